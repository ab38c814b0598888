package controllers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/vivahealthmed/foundation-site/internal/pkg/database"
	"github.com/vivahealthmed/foundation-site/internal/pkg/donations"
	"github.com/vivahealthmed/foundation-site/internal/pkg/env"
	"github.com/vivahealthmed/foundation-site/internal/pkg/security"
	"github.com/vivahealthmed/foundation-site/internal/pkg/session"
)

const adminTokenTTL = 2 * time.Hour

// AdminPasswordRequest is the JSON body for the password gate.
type AdminPasswordRequest struct {
	Password string `json:"password"`
}

// HandleAdminVerifyPassword checks the submitted password against the
// configured admin secret. On success it issues a signed, expiring token
// that the admin endpoints require; the old client-held boolean is not
// trusted for anything.
func HandleAdminVerifyPassword(c *fiber.Ctx) error {
	var req AdminPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	plainSecret := env.GetEnv("ADMIN_PASSWORD", "")
	bcryptHash := env.GetEnv("ADMIN_PASSWORD_HASH", "")
	if plainSecret == "" && bcryptHash == "" {
		log.Printf("Admin password not configured")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Admin password not configured"})
	}

	if !security.CheckAdminPassword(req.Password, plainSecret, bcryptHash) {
		log.Printf("Invalid admin password attempt")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Invalid password"})
	}

	tokenSecret := env.GetEnv("ADMIN_TOKEN_SECRET", "")
	token, err := security.GenerateAdminToken(adminTokenTTL, tokenSecret)
	if err != nil {
		log.Printf("Admin token generation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server configuration error"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "token": token})
}

// HandleAdminDonations lists recent donation rows for reconciliation.
func HandleAdminDonations(c *fiber.Ctx) error {
	svc := donations.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := svc.RecentDonations(ctx, c.QueryInt("limit", 100))
	if err != nil {
		log.Printf("Error listing donations: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load donations"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"donations": rows})
}

// HandleAdminPaymentLogs lists audit entries, optionally filtered by
// reference.
func HandleAdminPaymentLogs(c *fiber.Ctx) error {
	svc := donations.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := svc.PaymentLogs(ctx, c.Query("reference"), c.QueryInt("limit", 100))
	if err != nil {
		log.Printf("Error listing payment logs: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load payment logs"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"logs": rows})
}

// --- server-rendered admin pages ---

// HandleAdminLoginPage renders the admin login form.
func HandleAdminLoginPage(c *fiber.Ctx) error {
	return c.Render("admin_login", fiber.Map{
		"Title": "Admin Login",
		"Flash": flash.Get(c),
	}, "layouts/main")
}

// HandleAdminLogin processes the login form and stores the admin flag in
// the server-side session.
func HandleAdminLogin(c *fiber.Ctx) error {
	password := c.FormValue("password")
	plainSecret := env.GetEnv("ADMIN_PASSWORD", "")
	bcryptHash := env.GetEnv("ADMIN_PASSWORD_HASH", "")

	if !security.CheckAdminPassword(password, plainSecret, bcryptHash) {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Invalid password"}).Redirect("/admin/login")
	}

	if err := session.SetSessionValue(c, "is_admin", "true"); err != nil {
		log.Printf("Admin session write failed: %v", err)
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Could not start session"}).Redirect("/admin/login")
	}
	return c.Redirect("/admin/payments", fiber.StatusSeeOther)
}

// HandleAdminLogout destroys the admin session.
func HandleAdminLogout(c *fiber.Ctx) error {
	if err := session.DestroySession(c); err != nil {
		log.Printf("Admin session destroy failed: %v", err)
	}
	return c.Redirect("/admin/login", fiber.StatusSeeOther)
}

// HandleAdminPaymentsPage renders the reconciliation view: recent
// donations with their statuses and a per-row verify action.
func HandleAdminPaymentsPage(c *fiber.Ctx) error {
	svc := donations.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := svc.RecentDonations(ctx, 100)
	if err != nil {
		log.Printf("Error listing donations for admin page: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load donations")
	}

	metrics, err := svc.Metrics(ctx)
	if err != nil {
		log.Printf("Error computing metrics for admin page: %v", err)
		metrics = &donations.Metrics{}
	}

	return c.Render("admin_payments", fiber.Map{
		"Title":     "Payment Reconciliation",
		"Donations": rows,
		"Metrics":   metrics,
		"Flash":     flash.Get(c),
	}, "layouts/main")
}

// HandleAdminVerifyDonation triggers a pull-based status sync for one
// reference from the admin page, then redirects back.
func HandleAdminVerifyDonation(c *fiber.Ctx) error {
	reference := c.FormValue("reference")

	svc := donations.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	result, err := svc.VerifyPayment(ctx, reference)
	if err != nil {
		log.Printf("Admin verify for %s failed: %v", reference, err)
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Verification failed"}).Redirect("/admin/payments")
	}

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Status: " + result.Status + " - " + result.Message}).Redirect("/admin/payments")
}
