package hubtel

import (
	"errors"
	"testing"
)

func TestParseCallbackUppercaseFields(t *testing.T) {
	raw := []byte(`{
		"ResponseCode": "0000",
		"Data": {
			"ClientReference": "viva_123",
			"Status": "Success",
			"SalesInvoiceId": "inv_9",
			"Amount": 50.5
		}
	}`)

	cb, err := ParseCallback(raw)
	if err != nil {
		t.Fatalf("ParseCallback returned error: %v", err)
	}
	if cb.ClientReference != "viva_123" {
		t.Fatalf("ClientReference = %q, want %q", cb.ClientReference, "viva_123")
	}
	if cb.SalesInvoiceID != "inv_9" {
		t.Fatalf("SalesInvoiceID = %q, want %q", cb.SalesInvoiceID, "inv_9")
	}
	if cb.Amount != 50.5 {
		t.Fatalf("Amount = %v, want 50.5", cb.Amount)
	}
	if !cb.Successful() {
		t.Fatalf("expected callback to be successful")
	}
}

func TestParseCallbackLowercaseFields(t *testing.T) {
	raw := []byte(`{
		"responseCode": "0000",
		"data": {
			"clientReference": "viva_456",
			"status": "Failed",
			"amount": "25"
		}
	}`)

	cb, err := ParseCallback(raw)
	if err != nil {
		t.Fatalf("ParseCallback returned error: %v", err)
	}
	if cb.ClientReference != "viva_456" {
		t.Fatalf("ClientReference = %q, want %q", cb.ClientReference, "viva_456")
	}
	if cb.Status != StatusFailed {
		t.Fatalf("Status = %q, want %q", cb.Status, StatusFailed)
	}
	if cb.Amount != 25 {
		t.Fatalf("Amount = %v, want 25", cb.Amount)
	}
	if cb.Successful() {
		t.Fatalf("failed callback must not report success")
	}
}

func TestParseCallbackMissingReference(t *testing.T) {
	raw := []byte(`{"ResponseCode": "0000", "Data": {"Status": "Success"}}`)

	if _, err := ParseCallback(raw); !errors.Is(err, ErrMissingReference) {
		t.Fatalf("expected ErrMissingReference, got %v", err)
	}
}

func TestParseCallbackInvalidJSON(t *testing.T) {
	if _, err := ParseCallback([]byte("not json")); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}

func TestSuccessfulRequiresBothCodeAndStatus(t *testing.T) {
	tests := []struct {
		code   string
		status string
		want   bool
	}{
		{code: "0000", status: "Success", want: true},
		{code: "0000", status: "Failed", want: false},
		{code: "2001", status: "Success", want: false},
	}

	for _, tt := range tests {
		cb := &Callback{ResponseCode: tt.code, Status: tt.status}
		if got := cb.Successful(); got != tt.want {
			t.Fatalf("Successful() with code=%q status=%q = %v, want %v", tt.code, tt.status, got, tt.want)
		}
	}
}
