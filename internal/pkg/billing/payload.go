package billing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// WebhookPayload mirrors the provider's wire format exactly.
type WebhookPayload struct {
	EventName string `json:"event_name"`
	Data      struct {
		Type       string `json:"type"`
		ID         string `json:"id"`
		Attributes struct {
			ID         int64      `json:"id"`
			CustomerID int64      `json:"customer_id"`
			ProductID  int64      `json:"product_id"`
			VariantID  int64      `json:"variant_id"`
			Status     string     `json:"status"`
			CreatedAt  time.Time  `json:"created_at"`
			RenewsAt   *time.Time `json:"renews_at"`
			EndsAt     *time.Time `json:"ends_at"`
		} `json:"attributes"`
	} `json:"data"`
}

// SubscriptionAttributes is the normalized event data the reconciler consumes.
type SubscriptionAttributes struct {
	SubscriptionID string
	CustomerID     string
	ProductID      int64
	VariantID      int64
	Status         string
	CreatedAt      time.Time
	RenewsAt       *time.Time
	EndsAt         *time.Time
}

// ParseWebhookPayload deserializes a raw webhook body. Malformed JSON or a
// payload without an event name fails with ErrDeserializationFailed.
func ParseWebhookPayload(raw []byte) (*WebhookPayload, error) {
	var p WebhookPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserializationFailed, err)
	}
	if p.EventName == "" {
		return nil, fmt.Errorf("%w: missing event_name", ErrDeserializationFailed)
	}
	return &p, nil
}

// Subscription extracts the normalized subscription attributes.
func (p *WebhookPayload) Subscription() SubscriptionAttributes {
	a := p.Data.Attributes
	return SubscriptionAttributes{
		SubscriptionID: strconv.FormatInt(a.ID, 10),
		CustomerID:     strconv.FormatInt(a.CustomerID, 10),
		ProductID:      a.ProductID,
		VariantID:      a.VariantID,
		Status:         a.Status,
		CreatedAt:      a.CreatedAt,
		RenewsAt:       a.RenewsAt,
		EndsAt:         a.EndsAt,
	}
}
