package billing

import (
	"errors"
	"testing"
)

func TestParseWebhookPayload(t *testing.T) {
	raw := []byte(`{
		"event_name": "subscription_created",
		"data": {
			"type": "subscriptions", "id": "222",
			"attributes": {
				"id": 222, "customer_id": 111, "product_id": 12345, "variant_id": 3,
				"status": "active",
				"created_at": "2026-03-01T12:00:00Z",
				"renews_at": "2026-04-01T12:00:00Z",
				"ends_at": null
			}
		}
	}`)

	p, err := ParseWebhookPayload(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if p.EventName != "subscription_created" {
		t.Fatalf("unexpected event name %q", p.EventName)
	}

	attrs := p.Subscription()
	if attrs.SubscriptionID != "222" || attrs.CustomerID != "111" {
		t.Fatalf("unexpected ids: sub=%q customer=%q", attrs.SubscriptionID, attrs.CustomerID)
	}
	if attrs.ProductID != 12345 || attrs.VariantID != 3 {
		t.Fatalf("unexpected catalog ids: product=%d variant=%d", attrs.ProductID, attrs.VariantID)
	}
	if attrs.RenewsAt == nil || attrs.EndsAt != nil {
		t.Fatalf("unexpected period pointers: renews=%v ends=%v", attrs.RenewsAt, attrs.EndsAt)
	}
}

func TestParseWebhookPayloadRejectsGarbage(t *testing.T) {
	if _, err := ParseWebhookPayload([]byte(`{not json`)); !errors.Is(err, ErrDeserializationFailed) {
		t.Fatalf("expected ErrDeserializationFailed for malformed JSON, got %v", err)
	}
	if _, err := ParseWebhookPayload([]byte(`{"data":{}}`)); !errors.Is(err, ErrDeserializationFailed) {
		t.Fatalf("expected ErrDeserializationFailed for missing event_name, got %v", err)
	}
}
