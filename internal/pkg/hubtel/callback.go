package hubtel

import (
	"encoding/json"
	"errors"
	"strings"
)

const (
	// ResponseCodeSuccess is Hubtel's "accepted" response code.
	ResponseCodeSuccess = "0000"
	// StatusSuccess is the transaction status string for a completed payment.
	StatusSuccess = "Success"
	// StatusFailed is the transaction status string for a failed payment.
	StatusFailed = "Failed"
)

// Callback is the normalized shape of a Hubtel payment callback. Hubtel
// delivers field names with inconsistent capitalization (`Data` vs `data`,
// `ClientReference` vs `clientReference`); ParseCallback maps both variants
// onto this one struct so downstream code never sees the difference.
type Callback struct {
	ResponseCode    string
	ClientReference string
	Status          string
	SalesInvoiceID  string
	Amount          float64
}

// Successful reports whether the callback signals a completed payment.
func (cb *Callback) Successful() bool {
	return cb.ResponseCode == ResponseCodeSuccess && cb.Status == StatusSuccess
}

// ErrMissingReference is returned when a callback carries no client reference.
var ErrMissingReference = errors.New("client reference missing in callback")

// ParseCallback decodes and normalizes a raw Hubtel callback body.
func ParseCallback(body []byte) (*Callback, error) {
	var raw struct {
		ResponseCodeUpper string          `json:"ResponseCode"`
		ResponseCodeLower string          `json:"responseCode"`
		DataUpper         json.RawMessage `json:"Data"`
		DataLower         json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	data := raw.DataUpper
	if len(data) == 0 {
		data = raw.DataLower
	}

	var inner struct {
		ClientReferenceUpper string      `json:"ClientReference"`
		ClientReferenceLower string      `json:"clientReference"`
		StatusUpper          string      `json:"Status"`
		StatusLower          string      `json:"status"`
		SalesInvoiceIDUpper  string      `json:"SalesInvoiceId"`
		SalesInvoiceIDLower  string      `json:"salesInvoiceId"`
		AmountUpper          json.Number `json:"Amount"`
		AmountLower          json.Number `json:"amount"`
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, err
		}
	}

	cb := &Callback{
		ResponseCode:    coalesce(raw.ResponseCodeUpper, raw.ResponseCodeLower),
		ClientReference: coalesce(inner.ClientReferenceUpper, inner.ClientReferenceLower),
		Status:          coalesce(inner.StatusUpper, inner.StatusLower),
		SalesInvoiceID:  coalesce(inner.SalesInvoiceIDUpper, inner.SalesInvoiceIDLower),
	}

	amount := inner.AmountUpper
	if amount == "" {
		amount = inner.AmountLower
	}
	if amount != "" {
		if f, err := amount.Float64(); err == nil {
			cb.Amount = f
		}
	}

	if strings.TrimSpace(cb.ClientReference) == "" {
		return nil, ErrMissingReference
	}
	return cb, nil
}

func coalesce(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}
