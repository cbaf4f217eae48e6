package statuscache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dhoini/billing-service/internal/domain"
	"github.com/Dhoini/billing-service/pkg/logger"
)

type fakeReader struct {
	info  *domain.SubscriptionStatusInfo
	err   error
	calls int
}

func (f *fakeReader) GetStatus(ctx context.Context, userID string) (*domain.SubscriptionStatusInfo, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.info, nil
}

func activeInfo() *domain.SubscriptionStatusInfo {
	return &domain.SubscriptionStatusInfo{
		IsSubscribed:    true,
		Status:          domain.SubscriptionStatusActive,
		LastBillingDate: "March 1, 2025",
	}
}

func TestGetStatusCachesWithinTTL(t *testing.T) {
	reader := &fakeReader{info: activeInfo()}
	cache := NewWithTTL(reader, time.Minute, logger.New(logger.ERROR))

	for i := 0; i < 3; i++ {
		info, err := cache.GetStatus(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("GetStatus() error = %v", err)
		}
		if !info.IsSubscribed || info.Status != domain.SubscriptionStatusActive {
			t.Errorf("unexpected info %+v", info)
		}
	}

	if reader.calls != 1 {
		t.Errorf("reader calls = %d, want 1 within TTL", reader.calls)
	}
}

func TestGetStatusIsolatesUsers(t *testing.T) {
	reader := &fakeReader{info: activeInfo()}
	cache := NewWithTTL(reader, time.Minute, logger.New(logger.ERROR))

	cache.GetStatus(context.Background(), "user-1")
	cache.GetStatus(context.Background(), "user-2")

	if reader.calls != 2 {
		t.Errorf("reader calls = %d, want one per user", reader.calls)
	}
}

func TestGetStatusRefetchesAfterExpiry(t *testing.T) {
	reader := &fakeReader{info: activeInfo()}
	cache := NewWithTTL(reader, time.Millisecond, logger.New(logger.ERROR))

	cache.GetStatus(context.Background(), "user-1")
	time.Sleep(5 * time.Millisecond)
	cache.GetStatus(context.Background(), "user-1")

	if reader.calls != 2 {
		t.Errorf("reader calls = %d, want refetch after expiry", reader.calls)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	reader := &fakeReader{info: activeInfo()}
	cache := NewWithTTL(reader, time.Minute, logger.New(logger.ERROR))

	cache.GetStatus(context.Background(), "user-1")
	cache.Invalidate("user-1")
	cache.GetStatus(context.Background(), "user-1")

	if reader.calls != 2 {
		t.Errorf("reader calls = %d, want refetch after invalidation", reader.calls)
	}
}

func TestResetDropsAllEntries(t *testing.T) {
	reader := &fakeReader{info: activeInfo()}
	cache := NewWithTTL(reader, time.Minute, logger.New(logger.ERROR))

	cache.GetStatus(context.Background(), "user-1")
	cache.GetStatus(context.Background(), "user-2")
	cache.Reset()
	cache.GetStatus(context.Background(), "user-1")
	cache.GetStatus(context.Background(), "user-2")

	if reader.calls != 4 {
		t.Errorf("reader calls = %d, want refetch for every user after reset", reader.calls)
	}
}

func TestGetStatusErrorNotCached(t *testing.T) {
	reader := &fakeReader{err: errors.New("storage down")}
	cache := NewWithTTL(reader, time.Minute, logger.New(logger.ERROR))

	if _, err := cache.GetStatus(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error from reader")
	}

	reader.err = nil
	reader.info = activeInfo()
	info, err := cache.GetStatus(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetStatus() after recovery error = %v", err)
	}
	if !info.IsSubscribed {
		t.Error("recovered read must come from reader, not a cached failure")
	}
}
