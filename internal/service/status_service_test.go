package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dhoini/billing-service/internal/domain"
)

func TestGetStatusNoSubscription(t *testing.T) {
	svc := NewStatusService(newFakeSubscriptionRepo(), &fakeProviderClient{}, testMetrics(), testLogger())

	info, err := svc.GetStatus(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if info.IsSubscribed {
		t.Error("IsSubscribed = true, want false")
	}
	if info.Status != domain.StatusNoSubscription {
		t.Errorf("Status = %q, want %q", info.Status, domain.StatusNoSubscription)
	}
	if info.LastBillingDate != domain.BillingDateUnavailable {
		t.Errorf("LastBillingDate = %q, want %q", info.LastBillingDate, domain.BillingDateUnavailable)
	}
}

func TestGetStatusLiveState(t *testing.T) {
	subs := newFakeSubscriptionRepo()
	start := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	subs.Upsert(context.Background(), &domain.SubscriptionRecord{
		UserID:               "user-1",
		StripeSubscriptionID: "sub_123",
		Status:               domain.SubscriptionStatusPastDue,
	})

	invoiceAt := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	provider := &fakeProviderClient{
		getSubscriptionResult: &domain.ProviderSubscription{
			ID:                     "sub_123",
			Status:                 domain.SubscriptionStatusActive,
			CurrentPeriodStart:     &start,
			LatestInvoiceCreatedAt: &invoiceAt,
		},
	}
	svc := NewStatusService(subs, provider, testMetrics(), testLogger())

	info, err := svc.GetStatus(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if !info.IsSubscribed {
		t.Error("IsSubscribed = false, want true for live active subscription")
	}
	if info.Status != domain.SubscriptionStatusActive {
		t.Errorf("Status = %q, want active", info.Status)
	}
	if info.LastBillingDate != "March 20, 2025" {
		t.Errorf("LastBillingDate = %q, want invoice date", info.LastBillingDate)
	}
}

func TestGetStatusTrialingDoesNotGrantAccess(t *testing.T) {
	subs := newFakeSubscriptionRepo()
	subs.Upsert(context.Background(), &domain.SubscriptionRecord{
		UserID:               "user-1",
		StripeSubscriptionID: "sub_123",
		Status:               domain.SubscriptionStatusTrialing,
	})

	provider := &fakeProviderClient{
		getSubscriptionResult: &domain.ProviderSubscription{
			ID:     "sub_123",
			Status: domain.SubscriptionStatusTrialing,
		},
	}
	svc := NewStatusService(subs, provider, testMetrics(), testLogger())

	info, err := svc.GetStatus(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if info.IsSubscribed {
		t.Error("IsSubscribed = true for trialing, want false")
	}
	if info.Status != domain.SubscriptionStatusTrialing {
		t.Errorf("Status = %q, want trialing", info.Status)
	}
}

func TestGetStatusLiveStateRefreshesRecord(t *testing.T) {
	subs := newFakeSubscriptionRepo()
	subs.Upsert(context.Background(), &domain.SubscriptionRecord{
		UserID:               "user-1",
		StripeSubscriptionID: "sub_123",
		Status:               domain.SubscriptionStatusActive,
	})
	before := subs.upsertCount()

	provider := &fakeProviderClient{
		getSubscriptionResult: &domain.ProviderSubscription{
			ID:     "sub_123",
			Status: domain.SubscriptionStatusPastDue,
		},
	}
	svc := NewStatusService(subs, provider, testMetrics(), testLogger())

	if _, err := svc.GetStatus(context.Background(), "user-1"); err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}

	if subs.upsertCount() != before+1 {
		t.Fatal("expected persisted record to be refreshed with live status")
	}
	if rec := subs.get("user-1"); rec.Status != domain.SubscriptionStatusPastDue {
		t.Errorf("persisted Status = %q, want past_due", rec.Status)
	}
}

func TestGetStatusProviderDownServesPersistedState(t *testing.T) {
	subs := newFakeSubscriptionRepo()
	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	subs.Upsert(context.Background(), &domain.SubscriptionRecord{
		UserID:               "user-1",
		StripeSubscriptionID: "sub_123",
		Status:               domain.SubscriptionStatusActive,
		CurrentPeriodStart:   &start,
	})

	provider := &fakeProviderClient{getSubscriptionErr: errors.New("stripe unavailable")}
	svc := NewStatusService(subs, provider, testMetrics(), testLogger())

	info, err := svc.GetStatus(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("provider outage must not fail status read, got %v", err)
	}
	if !info.IsSubscribed {
		t.Error("IsSubscribed = false, want true from persisted state")
	}
	if info.Status != domain.SubscriptionStatusActive {
		t.Errorf("Status = %q, want persisted active", info.Status)
	}
	if info.LastBillingDate != "February 1, 2025" {
		t.Errorf("LastBillingDate = %q, want formatted period start", info.LastBillingDate)
	}
}

func TestGetStatusStorageErrorPropagates(t *testing.T) {
	subs := newFakeSubscriptionRepo()
	subs.getErr = errors.New("connection refused")
	svc := NewStatusService(subs, &fakeProviderClient{}, testMetrics(), testLogger())

	_, err := svc.GetStatus(context.Background(), "user-1")
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}
