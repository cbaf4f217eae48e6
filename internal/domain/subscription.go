package domain

import (
	"time"
)

// SubscriptionStatus статус подписки (открытое множество, зеркалит статусы провайдера)
type SubscriptionStatus = string

const (
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusTrialing   SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled   SubscriptionStatus = "canceled"
	SubscriptionStatusUnpaid     SubscriptionStatus = "unpaid"
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
)

const (
	// StatusNoSubscription локальный сентинел для пользователя без записи о подписке
	StatusNoSubscription = "No subscription"

	// BillingDateUnavailable сентинел для недоступной даты последнего списания
	BillingDateUnavailable = "Not available"

	// BillingDateLayout формат длинной даты для lastBillingDate
	BillingDateLayout = "January 2, 2006"
)

// SubscriptionRecord локальная запись о подписке пользователя.
// Не более одной записи на user_id, upsert по конфликту user_id.
type SubscriptionRecord struct {
	UserID               string     `db:"user_id" json:"user_id"`
	StripeCustomerID     string     `db:"stripe_customer_id" json:"stripe_customer_id"`
	StripeSubscriptionID string     `db:"stripe_subscription_id" json:"stripe_subscription_id"`
	Status               string     `db:"status" json:"status"`
	CurrentPeriodStart   *time.Time `db:"current_period_start" json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time `db:"current_period_end" json:"current_period_end,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// IsSubscribed определяет, дает ли статус доступ к платным функциям.
// Доступ открывает только статус active: trialing, past_due и прочие
// переходные статусы доступа не дают.
func (r *SubscriptionRecord) IsSubscribed() bool {
	return r.Status == SubscriptionStatusActive
}

// User локальный пользователь приложения (каталог для корреляции по email)
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SubscriptionStatusInfo ответ на запрос статуса подписки
type SubscriptionStatusInfo struct {
	IsSubscribed    bool   `json:"isSubscribed"`
	Status          string `json:"status"`
	LastBillingDate string `json:"lastBillingDate"`
}

// SyncOutcome результат синхронизации одной подписки
type SyncOutcome string

const (
	SyncOutcomeSynced  SyncOutcome = "synced"
	SyncOutcomeSkipped SyncOutcome = "skipped"
	SyncOutcomeError   SyncOutcome = "error"
)

// SyncResult результат обработки одной подписки при ручной синхронизации
type SyncResult struct {
	SubscriptionID string      `json:"subscription_id"`
	Status         SyncOutcome `json:"status"`
	Reason         string      `json:"reason,omitempty"`
}

// SyncCustomer корреляция клиента провайдера с локальным пользователем
type SyncCustomer struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	UserID string `json:"userId"`
}

// SyncReport итог ручной синхронизации клиента
type SyncReport struct {
	Message  string       `json:"message"`
	Customer SyncCustomer `json:"customer"`
	Results  []SyncResult `json:"results"`
}
