package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v78"

	"github.com/Dhoini/billing-service/internal/domain"
	"github.com/Dhoini/billing-service/pkg/logger"
)

const testWebhookSecret = "whsec_test_secret"

// signPayload строит заголовок Stripe-Signature для тестового payload
func signPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

// eventPayload собирает сырое webhook-событие с версией API текущей библиотеки
func eventPayload(id, eventType, object string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":%q,"type":%q,"api_version":%q,"data":{"object":%s}}`,
		id, eventType, stripe.APIVersion, object,
	))
}

func TestVerifyAndParseRejectsBadSignature(t *testing.T) {
	v := NewWebhookVerifier(testWebhookSecret, logger.New(logger.ERROR))

	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated"}`)
	_, err := v.VerifyAndParse(payload, "t=123,v1=deadbeef")
	if !errors.Is(err, domain.ErrWebhookValidationFailed) {
		t.Fatalf("expected ErrWebhookValidationFailed, got %v", err)
	}
}

func TestVerifyAndParseRejectsStaleTimestamp(t *testing.T) {
	v := NewWebhookVerifier(testWebhookSecret, logger.New(logger.ERROR))

	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated"}`)
	sig := signPayload(payload, testWebhookSecret, time.Now().Add(-time.Hour))
	_, err := v.VerifyAndParse(payload, sig)
	if !errors.Is(err, domain.ErrWebhookValidationFailed) {
		t.Fatalf("expected ErrWebhookValidationFailed for stale signature, got %v", err)
	}
}

func TestVerifyAndParseSubscriptionEvent(t *testing.T) {
	v := NewWebhookVerifier(testWebhookSecret, logger.New(logger.ERROR))

	payload := eventPayload("evt_1", "customer.subscription.updated", `{
		"id": "sub_123",
		"status": "active",
		"customer": "cus_123",
		"metadata": {"userId": "user-1"},
		"current_period_start": 1740787200,
		"current_period_end": 1743465600
	}`)
	sig := signPayload(payload, testWebhookSecret, time.Now())

	ev, err := v.VerifyAndParse(payload, sig)
	if err != nil {
		t.Fatalf("VerifyAndParse() error = %v", err)
	}
	if ev.Type != domain.EventSubscriptionUpdated {
		t.Errorf("Type = %q", ev.Type)
	}
	sub := ev.Subscription
	if sub == nil {
		t.Fatal("Subscription is nil")
	}
	if sub.ID != "sub_123" || sub.CustomerID != "cus_123" || sub.Status != "active" {
		t.Errorf("mapped subscription = %+v", sub)
	}
	if sub.Metadata["userId"] != "user-1" {
		t.Errorf("Metadata = %v", sub.Metadata)
	}
	if sub.CurrentPeriodStart == nil || sub.CurrentPeriodStart.Unix() != 1740787200 {
		t.Errorf("CurrentPeriodStart = %v", sub.CurrentPeriodStart)
	}
}

func TestVerifyAndParseCheckoutCompleted(t *testing.T) {
	v := NewWebhookVerifier(testWebhookSecret, logger.New(logger.ERROR))

	payload := eventPayload("evt_2", "checkout.session.completed", `{
		"id": "cs_123",
		"customer": "cus_123",
		"subscription": "sub_123",
		"customer_details": {"email": "buyer@example.com"},
		"metadata": {"userId": "user-1"}
	}`)
	sig := signPayload(payload, testWebhookSecret, time.Now())

	ev, err := v.VerifyAndParse(payload, sig)
	if err != nil {
		t.Fatalf("VerifyAndParse() error = %v", err)
	}
	session := ev.CheckoutSession
	if session == nil {
		t.Fatal("CheckoutSession is nil")
	}
	if session.SubscriptionID != "sub_123" || session.CustomerID != "cus_123" {
		t.Errorf("mapped session = %+v", session)
	}
	if session.CustomerEmail != "buyer@example.com" {
		t.Errorf("CustomerEmail = %q, want fallback from customer_details", session.CustomerEmail)
	}
}

func TestVerifyAndParseUnknownTypePassesThrough(t *testing.T) {
	v := NewWebhookVerifier(testWebhookSecret, logger.New(logger.ERROR))

	payload := eventPayload("evt_3", "invoice.paid", `{}`)
	sig := signPayload(payload, testWebhookSecret, time.Now())

	ev, err := v.VerifyAndParse(payload, sig)
	if err != nil {
		t.Fatalf("VerifyAndParse() error = %v", err)
	}
	if ev.Subscription != nil || ev.CheckoutSession != nil {
		t.Error("unknown event must carry no payload")
	}
	if ev.Recognized() {
		t.Error("Recognized() = true for invoice.paid")
	}
}
