package controllers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/vivahealthmed/foundation-site/app/models"
	"github.com/vivahealthmed/foundation-site/internal/pkg/database"
	"github.com/vivahealthmed/foundation-site/internal/pkg/donations"
)

// RenderHome renders the landing page with the latest posts and upcoming
// events.
func RenderHome(c *fiber.Ctx) error {
	var posts []models.Post
	if err := database.DB.Where("published = ?", true).Order("created_at DESC").Limit(3).Find(&posts).Error; err != nil {
		log.Printf("Failed to fetch posts for home page: %v", err)
	}

	var events []models.Event
	if err := database.DB.Where("published = ? AND starts_at >= ?", true, time.Now()).Order("starts_at ASC").Limit(3).Find(&events).Error; err != nil {
		log.Printf("Failed to fetch events for home page: %v", err)
	}

	// Donation stats are decorative on the home page; fall back to zeros.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	metrics, err := donations.NewServiceFromDB(database.GetDB()).Metrics(ctx)
	if err != nil {
		log.Printf("Failed to compute metrics for home page: %v", err)
		metrics = &donations.Metrics{}
	}

	return c.Render("index", fiber.Map{
		"Title":   "Viva Health Medical Foundation",
		"Posts":   posts,
		"Events":  events,
		"Metrics": metrics,
		"Flash":   flash.Get(c),
	}, "layouts/main")
}

// RenderAbout renders the about page.
func RenderAbout(c *fiber.Ctx) error {
	return c.Render("about", fiber.Map{"Title": "About Us"}, "layouts/main")
}

// RenderWhatWeDo renders the services page.
func RenderWhatWeDo(c *fiber.Ctx) error {
	return c.Render("what_we_do", fiber.Map{"Title": "What We Do"}, "layouts/main")
}

// RenderVolunteer renders the volunteer page.
func RenderVolunteer(c *fiber.Ctx) error {
	return c.Render("volunteer", fiber.Map{"Title": "Volunteer"}, "layouts/main")
}

// RenderGallery renders the photo gallery.
func RenderGallery(c *fiber.Ctx) error {
	return c.Render("gallery", fiber.Map{"Title": "Gallery"}, "layouts/main")
}

// RenderEvents renders the public events page.
func RenderEvents(c *fiber.Ctx) error {
	var events []models.Event
	if err := database.DB.Where("published = ?", true).Order("starts_at DESC").Find(&events).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to fetch events")
	}
	return c.Render("events", fiber.Map{"Title": "Events", "Events": events}, "layouts/main")
}

// RenderBlogIndex renders the list of published blog posts.
func RenderBlogIndex(c *fiber.Ctx) error {
	var posts []models.Post
	if err := database.DB.Where("published = ?", true).Order("created_at DESC").Find(&posts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to fetch blog posts")
	}
	return c.Render("blog", fiber.Map{"Title": "Blog", "Posts": posts}, "layouts/main")
}

// RenderBlogShow renders a single blog post by slug.
func RenderBlogShow(c *fiber.Ctx) error {
	slug := c.Params("slug")

	var post models.Post
	if err := database.DB.Where("slug = ? AND published = ?", slug, true).First(&post).Error; err != nil {
		return c.Status(fiber.StatusNotFound).SendString("Post not found")
	}
	return c.Render("blog_show", fiber.Map{"Title": post.Title, "Post": post}, "layouts/main")
}

// RenderContact renders the contact page.
func RenderContact(c *fiber.Ctx) error {
	return c.Render("contact", fiber.Map{"Title": "Contact Us", "Flash": flash.Get(c)}, "layouts/main")
}

// RenderDonate renders the donation page.
func RenderDonate(c *fiber.Ctx) error {
	return c.Render("donate", fiber.Map{
		"Title":   "Donate",
		"Payment": c.Query("payment"),
		"Flash":   flash.Get(c),
	}, "layouts/main")
}

// RenderPrivacyPolicy renders the privacy policy page.
func RenderPrivacyPolicy(c *fiber.Ctx) error {
	return c.Render("privacy_policy", fiber.Map{"Title": "Privacy Policy"}, "layouts/main")
}

// RenderCookiesPolicy renders the cookies policy page.
func RenderCookiesPolicy(c *fiber.Ctx) error {
	return c.Render("cookies_policy", fiber.Map{"Title": "Cookies Policy"}, "layouts/main")
}
