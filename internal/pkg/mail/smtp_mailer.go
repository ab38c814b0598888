package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/vivahealthmed/foundation-site/internal/pkg/env"
)

// SendMail sends an HTML email via SMTP
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}

// SendDonationReceipt sends a thank-you receipt for a completed donation.
// Callers treat failures as best-effort: log and move on.
func SendDonationReceipt(to, donorName, reference string, amount float64, currency string) error {
	if donorName == "" {
		donorName = "Friend"
	}
	subject := "Thank you for your donation"
	body := fmt.Sprintf(
		"<p>Dear %s,</p>"+
			"<p>Thank you for your generous donation of %s %.2f to the Viva Health Medical Foundation.</p>"+
			"<p>Your payment reference is <strong>%s</strong>. Please keep it for your records.</p>"+
			"<p>With gratitude,<br>Viva Health Medical Foundation</p>",
		donorName, currency, amount, reference,
	)
	return SendMail(to, subject, body)
}
