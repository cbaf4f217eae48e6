package service

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Dhoini/billing-service/internal/domain"
	"github.com/Dhoini/billing-service/internal/metrics"
	"github.com/Dhoini/billing-service/internal/repository"
	"github.com/Dhoini/billing-service/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.ERROR)
}

func testMetrics() metrics.BillingMetrics {
	return metrics.NewBillingMetrics(prometheus.NewRegistry(), testLogger())
}

// fakeSubscriptionRepo - in-memory реализация SubscriptionRepository
type fakeSubscriptionRepo struct {
	mu      sync.Mutex
	byUser  map[string]*domain.SubscriptionRecord
	records []domain.SubscriptionRecord // история upsert-ов

	upsertErr error
	getErr    error
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{byUser: make(map[string]*domain.SubscriptionRecord)}
}

func (f *fakeSubscriptionRepo) Upsert(ctx context.Context, rec *domain.SubscriptionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	cp := *rec
	f.byUser[rec.UserID] = &cp
	f.records = append(f.records, cp)
	return nil
}

func (f *fakeSubscriptionRepo) GetByUserID(ctx context.Context, userID string) (*domain.SubscriptionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.byUser[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeSubscriptionRepo) GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*domain.SubscriptionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, rec := range f.byUser {
		if rec.StripeSubscriptionID == stripeSubscriptionID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSubscriptionRepo) MarkCanceled(ctx context.Context, stripeSubscriptionID string) (*domain.SubscriptionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.byUser {
		if rec.StripeSubscriptionID == stripeSubscriptionID {
			rec.Status = domain.SubscriptionStatusCanceled
			cp := *rec
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSubscriptionRepo) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func (f *fakeSubscriptionRepo) get(userID string) *domain.SubscriptionRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byUser[userID]
}

// fakeUserRepo - in-memory реализация UserRepository
type fakeUserRepo struct {
	byEmail map[string]*domain.User
	getErr  error
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	f := &fakeUserRepo{byEmail: make(map[string]*domain.User)}
	for _, u := range users {
		f.byEmail[u.Email] = u
	}
	return f
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

// fakeProviderClient - конфигурируемая реализация stripe.Client
type fakeProviderClient struct {
	mu sync.Mutex

	createSessionResult *domain.CheckoutSession
	createSessionErr    error
	createSessionCalls  []domain.CheckoutParams

	getSessionResult *domain.CheckoutSession
	getSessionErr    error

	getCustomerResult *domain.ProviderCustomer
	getCustomerErr    error
	getCustomerCalls  int

	getSubscriptionResult *domain.ProviderSubscription
	getSubscriptionErr    error
	getSubscriptionCalls  int

	listSubscriptionsResult []*domain.ProviderSubscription
	listSubscriptionsErr    error

	portalURL string
	portalErr error
}

func (f *fakeProviderClient) CreateCheckoutSession(ctx context.Context, params domain.CheckoutParams) (*domain.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createSessionCalls = append(f.createSessionCalls, params)
	if f.createSessionErr != nil {
		return nil, f.createSessionErr
	}
	return f.createSessionResult, nil
}

func (f *fakeProviderClient) GetCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	if f.getSessionErr != nil {
		return nil, f.getSessionErr
	}
	return f.getSessionResult, nil
}

func (f *fakeProviderClient) GetCustomer(ctx context.Context, customerID string) (*domain.ProviderCustomer, error) {
	f.mu.Lock()
	f.getCustomerCalls++
	f.mu.Unlock()
	if f.getCustomerErr != nil {
		return nil, f.getCustomerErr
	}
	return f.getCustomerResult, nil
}

func (f *fakeProviderClient) GetSubscription(ctx context.Context, subscriptionID string) (*domain.ProviderSubscription, error) {
	f.mu.Lock()
	f.getSubscriptionCalls++
	f.mu.Unlock()
	if f.getSubscriptionErr != nil {
		return nil, f.getSubscriptionErr
	}
	return f.getSubscriptionResult, nil
}

func (f *fakeProviderClient) ListSubscriptions(ctx context.Context, customerID string) ([]*domain.ProviderSubscription, error) {
	if f.listSubscriptionsErr != nil {
		return nil, f.listSubscriptionsErr
	}
	return f.listSubscriptionsResult, nil
}

func (f *fakeProviderClient) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	if f.portalErr != nil {
		return "", f.portalErr
	}
	return f.portalURL, nil
}

// fakeInvalidator запоминает, чьи статусы были сброшены
type fakeInvalidator struct {
	mu      sync.Mutex
	userIDs []string
}

func (f *fakeInvalidator) Invalidate(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userIDs = append(f.userIDs, userID)
}

func (f *fakeInvalidator) invalidated() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.userIDs...)
}
