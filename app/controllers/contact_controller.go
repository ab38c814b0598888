package controllers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/vivahealthmed/foundation-site/app/models"
	"github.com/vivahealthmed/foundation-site/internal/pkg/database"
	"github.com/vivahealthmed/foundation-site/internal/pkg/env"
	"github.com/vivahealthmed/foundation-site/internal/pkg/mail"
)

// HandleContactSubmit stores a contact form submission and notifies the
// foundation inbox. The notification email is best-effort.
func HandleContactSubmit(c *fiber.Ctx) error {
	msg := models.ContactMessage{
		Name:    strings.TrimSpace(c.FormValue("name")),
		Email:   strings.TrimSpace(c.FormValue("email")),
		Subject: strings.TrimSpace(c.FormValue("subject")),
		Message: strings.TrimSpace(c.FormValue("message")),
	}

	if err := msg.Validate(); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Please fill in your name, a valid email and a message."}).Redirect("/contact")
	}

	if err := database.DB.Create(&msg).Error; err != nil {
		log.Printf("Failed to store contact message: %v", err)
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Something went wrong, please try again."}).Redirect("/contact")
	}

	inbox := env.GetEnv("CONTACT_INBOX", "")
	if inbox != "" {
		body := "<p><strong>From:</strong> " + msg.Name + " (" + msg.Email + ")</p>" +
			"<p><strong>Subject:</strong> " + msg.Subject + "</p>" +
			"<p>" + msg.Message + "</p>"
		if err := mail.SendMail(inbox, "New contact message", body); err != nil {
			log.Printf("Contact notification email failed: %v", err)
		}
	}

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Thank you, your message has been sent."}).Redirect("/contact")
}

// HandleNewsletterSubscribe stores a newsletter opt-in. Duplicate emails
// are treated as success so re-subscribing never shows an error.
func HandleNewsletterSubscribe(c *fiber.Ctx) error {
	sub := models.NewsletterSubscriber{
		Email: strings.TrimSpace(c.FormValue("email")),
	}

	if err := sub.Validate(); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Please enter a valid email address."}).Redirect(redirectTarget(c))
	}

	if err := database.DB.Create(&sub).Error; err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "duplicate") {
			return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "You are already subscribed."}).Redirect(redirectTarget(c))
		}
		log.Printf("Failed to store newsletter subscriber: %v", err)
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Something went wrong, please try again."}).Redirect(redirectTarget(c))
	}

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Thank you for subscribing!"}).Redirect(redirectTarget(c))
}

func redirectTarget(c *fiber.Ctx) string {
	if ref := c.FormValue("redirect"); strings.HasPrefix(ref, "/") {
		return ref
	}
	return "/"
}
