package controllers

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vivahealthmed/foundation-site/internal/pkg/database"
	"github.com/vivahealthmed/foundation-site/internal/pkg/donations"
	"github.com/vivahealthmed/foundation-site/internal/pkg/env"
	"github.com/vivahealthmed/foundation-site/internal/pkg/paystack"
)

// HandlePaystackWebhook verifies the provider signature over the raw body
// before anything is parsed, then dispatches the typed event. Unrecognized
// events are acknowledged with 200 so Paystack does not retry them.
func HandlePaystackWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("x-paystack-signature"))
	secret := env.GetEnv("PAYSTACK_SECRET_KEY", "")

	if secret == "" {
		log.Printf("PAYSTACK_SECRET_KEY not configured")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server configuration error"})
	}

	if !paystack.VerifyWebhookSignature(rawBody, signature, secret) {
		log.Printf("Invalid Paystack webhook signature")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid signature"})
	}

	event, err := paystack.ParseEvent(rawBody)
	if err != nil {
		log.Printf("Failed to parse Paystack webhook payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payload"})
	}
	log.Printf("Received Paystack webhook event: %s", event.Event)

	svc := donations.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := svc.HandlePaystackEvent(ctx, event, rawBody); err != nil {
		log.Printf("Webhook processing error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Webhook processing failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}

// SubscriptionRequest is the JSON body for the recurring-giving flow.
type SubscriptionRequest struct {
	Email    string  `json:"email"`
	Amount   float64 `json:"amount"`
	Name     string  `json:"name"`
	Phone    string  `json:"phone"`
	Interval string  `json:"interval"`
}

// HandleCreateSubscription resolves a billing plan for the requested
// amount+interval and returns the hosted authorization URL.
func HandleCreateSubscription(c *fiber.Ctx) error {
	var req SubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	svc := donations.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := svc.CreateSubscription(ctx, donations.CreateSubscriptionInput{
		Email:    req.Email,
		Amount:   req.Amount,
		Name:     req.Name,
		Phone:    req.Phone,
		Interval: req.Interval,
	})
	if err != nil {
		return donationErrorResponse(c, err, "Failed to create subscription")
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
