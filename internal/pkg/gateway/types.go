package gateway

// EventInput is the normalized input for settlement event persistence.
type EventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PaymentID       uint
	PayloadJSON     string
	SignatureValid  bool
}

// SettlementPayload is the wire shape the payment gateway posts to the
// settlement webhook.
type SettlementPayload struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	PaymentID uint   `json:"payment_id" validate:"required"`
}
