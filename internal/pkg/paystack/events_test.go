package paystack

import "testing"

func TestParseEventChargeSuccess(t *testing.T) {
	raw := []byte(`{
		"event": "charge.success",
		"data": {
			"reference": "viva_sub_1",
			"amount": 5000,
			"currency": "GHS",
			"customer": {"email": "donor@example.com"},
			"plan": {"plan_code": "viva_monthly_50", "interval": "monthly"},
			"metadata": {
				"custom_fields": [
					{"display_name": "Donor Name", "variable_name": "donor_name", "value": "Ama Mensah"},
					{"display_name": "Donation Type", "variable_name": "donation_type", "value": "recurring"}
				]
			}
		}
	}`)

	ev, err := ParseEvent(raw)
	if err != nil {
		t.Fatalf("ParseEvent returned error: %v", err)
	}
	if ev.Event != EventChargeSuccess {
		t.Fatalf("Event = %q, want %q", ev.Event, EventChargeSuccess)
	}
	if ev.Data.Reference != "viva_sub_1" {
		t.Fatalf("Reference = %q", ev.Data.Reference)
	}
	if ev.Data.AmountMajor() != 50 {
		t.Fatalf("AmountMajor() = %v, want 50", ev.Data.AmountMajor())
	}
	if ev.Data.Customer.Email != "donor@example.com" {
		t.Fatalf("Customer.Email = %q", ev.Data.Customer.Email)
	}
	if got := ev.Data.Metadata.Field("donor_name"); got != "Ama Mensah" {
		t.Fatalf("metadata donor_name = %q", got)
	}
	if got := ev.Data.Metadata.Field("missing"); got != "" {
		t.Fatalf("missing metadata field = %q, want empty", got)
	}
}

func TestParseEventMissingType(t *testing.T) {
	if _, err := ParseEvent([]byte(`{"data": {}}`)); err == nil {
		t.Fatalf("expected error for payload without event type")
	}
}

func TestParseEventInvalidJSON(t *testing.T) {
	if _, err := ParseEvent([]byte("{")); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}
