package paystack

import (
	"encoding/json"
	"errors"
	"strings"
)

// Webhook event types the handler distinguishes. Anything else is logged and
// acknowledged so Paystack does not retry.
const (
	EventChargeSuccess        = "charge.success"
	EventSubscriptionCreate   = "subscription.create"
	EventSubscriptionNotRenew = "subscription.not_renew"
	EventSubscriptionDisable  = "subscription.disable"
	EventInvoiceFailed        = "invoice.payment_failed"
	EventTransferSuccess      = "transfer.success"
	EventTransferFailed       = "transfer.failed"
)

// CustomField is one entry of the metadata.custom_fields array carried on
// transactions we initialize.
type CustomField struct {
	DisplayName  string `json:"display_name"`
	VariableName string `json:"variable_name"`
	Value        string `json:"value"`
}

// Metadata is the transaction metadata envelope.
type Metadata struct {
	CustomFields []CustomField `json:"custom_fields"`
}

// Field returns the value of the custom field with the given variable name,
// or an empty string.
func (m Metadata) Field(variableName string) string {
	for _, f := range m.CustomFields {
		if f.VariableName == variableName {
			return strings.TrimSpace(f.Value)
		}
	}
	return ""
}

// Customer is the customer block attached to charge and invoice events.
type Customer struct {
	Email string `json:"email"`
}

// PlanInfo is the plan block attached to subscription-bound events.
type PlanInfo struct {
	Name     string `json:"name"`
	PlanCode string `json:"plan_code"`
	Interval string `json:"interval"`
}

// EventData is the provider payload attached to a webhook event. Only the
// fields the donation flow reads are declared.
type EventData struct {
	Reference        string   `json:"reference"`
	Amount           int64    `json:"amount"`
	Currency         string   `json:"currency"`
	SubscriptionCode string   `json:"subscription_code"`
	Customer         Customer `json:"customer"`
	Plan             PlanInfo `json:"plan"`
	Metadata         Metadata `json:"metadata"`
}

// AmountMajor converts the minor-unit amount (kobo/pesewas) to the main
// currency unit.
func (d EventData) AmountMajor() float64 {
	return float64(d.Amount) / 100
}

// Event is a typed webhook envelope.
type Event struct {
	Event string    `json:"event"`
	Data  EventData `json:"data"`
}

// ParseEvent decodes a webhook body into a typed event envelope.
func ParseEvent(body []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, err
	}
	if strings.TrimSpace(ev.Event) == "" {
		return nil, errors.New("webhook payload missing event type")
	}
	return &ev, nil
}
