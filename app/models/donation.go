package models

import "time"

const (
	DonationStatusPending    = "pending"
	DonationStatusPaid       = "paid"
	DonationStatusFailed     = "failed"
	DonationStatusCancelled  = "cancelled"
	DonationStatusSuccessful = "successful"
)

const (
	DonationTypeOneTime   = "one-time"
	DonationTypeRecurring = "recurring"
)

// Donation is a single giving attempt. Rows from the Hubtel checkout flow are
// created as pending before the gateway is called and updated by
// payment_reference afterwards; rows from Paystack charge.success webhooks are
// inserted already completed. The two lifecycles are intentionally separate.
type Donation struct {
	ID               uint64    `gorm:"primaryKey" json:"id"`
	DonorName        string    `gorm:"type:varchar(255);not null;default:'Anonymous'" json:"donor_name"`
	Email            string    `gorm:"type:varchar(255);not null;index" json:"email"`
	Phone            string    `gorm:"type:varchar(32)" json:"phone"`
	Amount           float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency         string    `gorm:"type:varchar(8);not null;default:'GHS'" json:"currency"`
	DonationType     string    `gorm:"type:varchar(20);not null;default:'one-time';index" json:"donation_type"`
	SubscriptionCode string    `gorm:"type:varchar(191);index" json:"subscription_code"`
	HubtelInvoiceID  string    `gorm:"type:varchar(191)" json:"hubtel_invoice_id"`
	PaymentReference string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"payment_reference"`
	PaymentStatus    string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_status"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the Donation model
func (Donation) TableName() string {
	return "donations"
}
