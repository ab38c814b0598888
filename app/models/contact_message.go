package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// ContactMessage stores a submission from the public contact form.
type ContactMessage struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name" validate:"required,min=2,max=255"`
	Email     string    `gorm:"type:varchar(255);not null" json:"email" validate:"required,email"`
	Subject   string    `gorm:"type:varchar(255)" json:"subject" validate:"max=255"`
	Message   string    `gorm:"type:text;not null" json:"message" validate:"required,min=10"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (m *ContactMessage) Validate() error {
	v := validator.New()
	return v.Struct(m)
}

// TableName specifies the table name for the ContactMessage model
func (ContactMessage) TableName() string {
	return "contact_messages"
}
