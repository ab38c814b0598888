package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// NewsletterSubscriber holds a confirmed-opt-in email address.
type NewsletterSubscriber struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email" validate:"required,email"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (n *NewsletterSubscriber) Validate() error {
	v := validator.New()
	return v.Struct(n)
}

// TableName specifies the table name for the NewsletterSubscriber model
func (NewsletterSubscriber) TableName() string {
	return "newsletter_subscribers"
}
