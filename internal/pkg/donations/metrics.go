package donations

import (
	"strings"

	"github.com/vivahealthmed/foundation-site/app/models"
)

// Metrics is the public aggregation shown on the site and the admin view.
type Metrics struct {
	TotalDonations int     `json:"totalDonations"`
	TotalAmount    float64 `json:"totalAmount"`
	Successful     int     `json:"successful"`
	Failed         int     `json:"failed"`
	RecurringCount int     `json:"recurringCount"`
}

// ComputeMetrics aggregates donation rows. Both completed-status spellings
// count as successful: "paid" (Hubtel flow) and anything containing
// "success" (Paystack flow).
func ComputeMetrics(rows []models.Donation) Metrics {
	m := Metrics{TotalDonations: len(rows)}
	for _, d := range rows {
		m.TotalAmount += d.Amount

		status := strings.ToLower(d.PaymentStatus)
		switch {
		case strings.Contains(status, "success") || status == models.DonationStatusPaid:
			m.Successful++
		case strings.Contains(status, "fail"):
			m.Failed++
		}

		donationType := strings.ToLower(d.DonationType)
		if strings.Contains(donationType, "recurring") || strings.Contains(donationType, "subscription") {
			m.RecurringCount++
		}
	}
	return m
}
