package controllers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vivahealthmed/foundation-site/internal/pkg/donations"
)

func TestValidationMessage(t *testing.T) {
	err := fmt.Errorf("%w: amount, email, and clientReference are required", donations.ErrValidation)
	assert.Equal(t, "amount, email, and clientReference are required", validationMessage(err))

	plain := fmt.Errorf("something else")
	assert.Equal(t, "something else", validationMessage(plain))
}
