package billing

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventName       string
	PayloadJSON     string
	SignatureValid  bool
}
