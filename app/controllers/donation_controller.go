package controllers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vivahealthmed/foundation-site/internal/pkg/database"
	"github.com/vivahealthmed/foundation-site/internal/pkg/donations"
	"github.com/vivahealthmed/foundation-site/internal/pkg/hubtel"
)

// DonationInitiateRequest is the JSON intake body from the donate page.
type DonationInitiateRequest struct {
	TotalAmount     float64 `json:"totalAmount"`
	Description     string  `json:"description"`
	ClientReference string  `json:"clientReference"`
	Email           string  `json:"email"`
	DonorName       string  `json:"donorName"`
	Phone           string  `json:"phone"`
}

// HandleDonationInitiate creates a pending donation and returns the Hubtel
// checkout URL.
func HandleDonationInitiate(c *fiber.Ctx) error {
	var req DonationInitiateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	svc := donations.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	result, err := svc.InitiateDonation(ctx, donations.InitiateDonationInput{
		Amount:          req.TotalAmount,
		Description:     req.Description,
		ClientReference: req.ClientReference,
		Email:           req.Email,
		DonorName:       req.DonorName,
		Phone:           req.Phone,
	})
	if err != nil {
		return donationErrorResponse(c, err, "Failed to initialize payment")
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// HandleHubtelCallback receives the asynchronous payment notification from
// Hubtel. The response code matters: 200 tells the gateway the delivery is
// done (whatever the payment outcome was), non-2xx makes it redeliver.
func HandleHubtelCallback(c *fiber.Ctx) error {
	body := append([]byte(nil), c.BodyRaw()...)
	log.Printf("Hubtel callback received: %s", string(body))

	cb, err := hubtel.ParseCallback(body)
	if err != nil {
		if errors.Is(err, hubtel.ErrMissingReference) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ClientReference missing"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid callback body"})
	}

	svc := donations.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if _, err := svc.ApplyHubtelCallback(ctx, cb); err != nil {
		log.Printf("Failed to update donation from callback: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update donation"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "success"})
}

// DonationVerifyRequest asks for an on-demand status sync of one reference.
type DonationVerifyRequest struct {
	ClientReference string `json:"clientReference"`
}

// HandleDonationVerify polls Hubtel for the transaction status and syncs
// the local donation row.
func HandleDonationVerify(c *fiber.Ctx) error {
	var req DonationVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	svc := donations.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	result, err := svc.VerifyPayment(ctx, req.ClientReference)
	if err != nil {
		if errors.Is(err, donations.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment record not found in database."})
		}
		return donationErrorResponse(c, err, "Payment verification failed")
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// donationErrorResponse maps service errors onto the API error taxonomy:
// validation 400 with the named fields, gateway failures 500 with the
// upstream diagnostic attached, everything else a generic 500.
func donationErrorResponse(c *fiber.Ctx, err error, genericMessage string) error {
	if errors.Is(err, donations.ErrValidation) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	var gwErr *donations.GatewayError
	if errors.As(err, &gwErr) {
		log.Printf("Gateway error: %v", err)
		resp := fiber.Map{"error": genericMessage}
		if gwErr.Diagnostic != "" {
			resp["details"] = gwErr.Diagnostic
		}
		return c.Status(fiber.StatusInternalServerError).JSON(resp)
	}

	log.Printf("Donation handler error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": genericMessage})
}

// validationMessage strips the sentinel prefix so the caller sees only the
// human-readable part.
func validationMessage(err error) string {
	msg := err.Error()
	prefix := donations.ErrValidation.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
