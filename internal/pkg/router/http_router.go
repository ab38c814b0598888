package router

import (
	"github.com/vivahealthmed/foundation-site/app/controllers"
	"github.com/vivahealthmed/foundation-site/internal/pkg/constants"
	"github.com/vivahealthmed/foundation-site/internal/pkg/middleware"
	"github.com/vivahealthmed/foundation-site/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	h.registerPublicRoutes(app)
	h.registerAdminRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Content pages
	app.Get(constants.PublicRoute, controllers.RenderHome)
	app.Get("/about", controllers.RenderAbout)
	app.Get("/what-we-do", controllers.RenderWhatWeDo)
	app.Get("/volunteer", controllers.RenderVolunteer)
	app.Get("/gallery", controllers.RenderGallery)
	app.Get("/events", controllers.RenderEvents)
	app.Get("/blog", controllers.RenderBlogIndex)
	app.Get("/blog/:slug", controllers.RenderBlogShow)
	app.Get(constants.DonateRoute, controllers.RenderDonate)
	app.Get("/privacy-policy", controllers.RenderPrivacyPolicy)
	app.Get("/cookies-policy", controllers.RenderCookiesPolicy)

	// Contact + newsletter forms
	app.Get("/contact", controllers.RenderContact)
	app.Post("/contact", controllers.HandleContactSubmit)
	app.Post("/newsletter", controllers.HandleNewsletterSubscribe)
}

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	app.Get("/admin/login", controllers.HandleAdminLoginPage)
	app.Post("/admin/login", controllers.HandleAdminLogin)
	app.Get("/admin/logout", controllers.HandleAdminLogout)

	admin := app.Group("/admin", middleware.RequireAdminSession)
	admin.Get("/payments", controllers.HandleAdminPaymentsPage)
	admin.Post("/payments/verify", controllers.HandleAdminVerifyDonation)
}
