package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/vivahealthmed/foundation-site/app/controllers"
	"github.com/vivahealthmed/foundation-site/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// Browser clients call these endpoints from the static site, so the
	// group answers CORS preflights itself.
	api := app.Group("/api", cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Authorization,X-Admin-Token",
	}), limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Viva Foundation API",
		})
	})

	v1 := api.Group("/v1")

	// Donations: Hubtel checkout flow
	v1.Post("/donations/initiate", controllers.HandleDonationInitiate)
	v1.Post("/donations/hubtel/callback", controllers.HandleHubtelCallback)
	v1.Post("/donations/verify", controllers.HandleDonationVerify)

	// Donations: Paystack hosted checkout
	v1.Post("/donations/paystack/webhook", controllers.HandlePaystackWebhook)
	v1.Post("/donations/subscriptions", controllers.HandleCreateSubscription)

	// Public aggregates
	v1.Get("/donations/metrics", controllers.HandleDonationMetrics)

	// Admin reconciliation
	v1.Post("/admin/verify-password", controllers.HandleAdminVerifyPassword)

	admin := v1.Group("/admin", middleware.RequireAdminToken)
	admin.Get("/donations", controllers.HandleAdminDonations)
	admin.Get("/payment-logs", controllers.HandleAdminPaymentLogs)
	admin.Post("/donations/verify", controllers.HandleDonationVerify)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
