package models

import "time"

const (
	PaymentLogInitiateRequest  = "initiate_request"
	PaymentLogInitiateResponse = "initiate_response"
	PaymentLogVerification     = "verification"
	PaymentLogWebhookEvent     = "webhook_event"
)

// PaymentLog is an append-only audit entry written alongside gateway calls.
// Rows are never updated or deleted; they exist for debugging, not for
// control flow.
type PaymentLog struct {
	ID               uint64    `gorm:"primaryKey" json:"id"`
	PaymentReference string    `gorm:"type:varchar(191);not null;index" json:"payment_reference"`
	LogType          string    `gorm:"type:varchar(40);not null;index" json:"log_type"`
	RequestData      string    `gorm:"type:longtext" json:"request_data"`
	ResponseData     string    `gorm:"type:longtext" json:"response_data"`
	StatusCode       int       `gorm:"default:0" json:"status_code"`
	ErrorMessage     string    `gorm:"type:text" json:"error_message"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName specifies the table name for the PaymentLog model
func (PaymentLog) TableName() string {
	return "payment_logs"
}
