package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Dhoini/billing-service/internal/domain"
)

func TestCreateSessionPassesParamsToProvider(t *testing.T) {
	provider := &fakeProviderClient{
		createSessionResult: &domain.CheckoutSession{ID: "cs_123", URL: "https://checkout.stripe.com/pay/cs_123"},
	}
	svc := NewCheckoutService(provider, newFakeSubscriptionRepo(), "https://app.example.com", testMetrics(), testLogger())

	params := domain.CheckoutParams{
		UserID:    "user-1",
		UserEmail: "buyer@example.com",
		ReturnURL: "/projects/42?tab=billing",
	}
	session, err := svc.CreateSession(context.Background(), params)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if session.ID != "cs_123" {
		t.Errorf("session ID = %q, want cs_123", session.ID)
	}

	if len(provider.createSessionCalls) != 1 {
		t.Fatalf("provider calls = %d, want 1", len(provider.createSessionCalls))
	}
	got := provider.createSessionCalls[0]
	if got.UserID != "user-1" || got.UserEmail != "buyer@example.com" || got.ReturnURL != "/projects/42?tab=billing" {
		t.Errorf("provider received %+v", got)
	}
}

func TestCreateSessionRequiresUserID(t *testing.T) {
	provider := &fakeProviderClient{}
	svc := NewCheckoutService(provider, newFakeSubscriptionRepo(), "https://app.example.com", testMetrics(), testLogger())

	_, err := svc.CreateSession(context.Background(), domain.CheckoutParams{})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(provider.createSessionCalls) != 0 {
		t.Error("provider must not be called without userId")
	}
}

func TestGetSessionRequiresID(t *testing.T) {
	svc := NewCheckoutService(&fakeProviderClient{}, newFakeSubscriptionRepo(), "", testMetrics(), testLogger())

	_, err := svc.GetSession(context.Background(), "")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreatePortalLink(t *testing.T) {
	subs := newFakeSubscriptionRepo()
	subs.Upsert(context.Background(), &domain.SubscriptionRecord{
		UserID:           "user-1",
		StripeCustomerID: "cus_123",
		Status:           domain.SubscriptionStatusActive,
	})
	provider := &fakeProviderClient{portalURL: "https://billing.stripe.com/session/xyz"}
	svc := NewCheckoutService(provider, subs, "https://app.example.com", testMetrics(), testLogger())

	url, err := svc.CreatePortalLink(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CreatePortalLink() error = %v", err)
	}
	if url != "https://billing.stripe.com/session/xyz" {
		t.Errorf("url = %q", url)
	}
}

func TestCreatePortalLinkWithoutSubscription(t *testing.T) {
	svc := NewCheckoutService(&fakeProviderClient{}, newFakeSubscriptionRepo(), "", testMetrics(), testLogger())

	_, err := svc.CreatePortalLink(context.Background(), "user-1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreatePortalLinkWithoutCustomerID(t *testing.T) {
	subs := newFakeSubscriptionRepo()
	subs.Upsert(context.Background(), &domain.SubscriptionRecord{
		UserID: "user-1",
		Status: domain.StatusNoSubscription,
	})
	svc := NewCheckoutService(&fakeProviderClient{}, subs, "", testMetrics(), testLogger())

	_, err := svc.CreatePortalLink(context.Background(), "user-1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
