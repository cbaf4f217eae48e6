package stripe

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"github.com/Dhoini/billing-service/internal/domain"
	"github.com/Dhoini/billing-service/pkg/logger"
)

const (
	// Ключи метаданных для корреляции объектов Stripe с локальными пользователями
	metadataUserIDKey    = "userId"
	metadataReturnURLKey = "returnUrl"
)

// Client определяет методы для взаимодействия со Stripe API.
type Client interface {
	// CreateCheckoutSession создает checkout-сессию в режиме подписки
	// с вшитым userId в метаданных сессии и подписки.
	CreateCheckoutSession(ctx context.Context, params domain.CheckoutParams) (*domain.CheckoutSession, error)

	// GetCheckoutSession возвращает проекцию checkout-сессии по ее ID.
	GetCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error)

	// GetCustomer возвращает клиента Stripe.
	GetCustomer(ctx context.Context, customerID string) (*domain.ProviderCustomer, error)

	// GetSubscription возвращает живой объект подписки вместе с датой последнего инвойса.
	GetSubscription(ctx context.Context, subscriptionID string) (*domain.ProviderSubscription, error)

	// ListSubscriptions возвращает все подписки клиента независимо от статуса.
	ListSubscriptions(ctx context.Context, customerID string) ([]*domain.ProviderSubscription, error)

	// CreatePortalSession создает сессию клиентского портала и возвращает ее URL.
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

// Config конфигурация для клиента Stripe
type Config struct {
	APIKey  string
	PriceID string
	BaseURL string
}

// stripeClient реализует интерфейс Client поверх Stripe SDK.
type stripeClient struct {
	client  *client.API
	priceID string
	baseURL string
	log     *logger.Logger
}

// NewClient создает новый экземпляр клиента Stripe.
func NewClient(cfg Config, log *logger.Logger) Client {
	sc := &client.API{}
	sc.Init(cfg.APIKey, nil)
	return &stripeClient{
		client:  sc,
		priceID: cfg.PriceID,
		baseURL: cfg.BaseURL,
		log:     log,
	}
}

// logStripeError - вспомогательная функция для логирования деталей ошибки Stripe.
func logStripeError(log *logger.Logger, operation string, err error) {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		log.Errorw("Stripe API error",
			"operation", operation,
			"type", string(stripeErr.Type),
			"code", string(stripeErr.Code),
			"param", stripeErr.Param,
			"message", stripeErr.Msg,
			"request_id", stripeErr.RequestID,
			"status_code", stripeErr.HTTPStatusCode,
		)
	} else {
		log.Errorw("Non-Stripe error during Stripe operation",
			"operation", operation,
			"error", err,
		)
	}
}
