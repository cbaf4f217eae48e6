package domain

import "time"

// CheckoutParams параметры создания checkout-сессии у провайдера
type CheckoutParams struct {
	UserID    string
	UserEmail string
	ReturnURL string
}

// CheckoutSession проекция checkout-сессии провайдера
type CheckoutSession struct {
	ID             string            `json:"id"`
	URL            string            `json:"url,omitempty"`
	AmountTotal    int64             `json:"amount_total"`
	Currency       string            `json:"currency"`
	PaymentStatus  string            `json:"payment_status"`
	CustomerEmail  string            `json:"customer_email"`
	Metadata       map[string]string `json:"metadata"`
	CustomerID     string            `json:"-"`
	SubscriptionID string            `json:"-"`
}

// ProviderCustomer проекция клиента провайдера
type ProviderCustomer struct {
	ID      string
	Email   string
	Deleted bool
}

// ProviderSubscription проекция живого объекта подписки провайдера
type ProviderSubscription struct {
	ID                     string
	CustomerID             string
	Status                 string
	Metadata               map[string]string
	CurrentPeriodStart     *time.Time
	CurrentPeriodEnd       *time.Time
	CancelAtPeriodEnd      bool
	LatestInvoiceCreatedAt *time.Time
}
