package controllers

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func webhookApp() *fiber.App {
	app := fiber.New()
	app.Post("/api/v1/donations/paystack/webhook", HandlePaystackWebhook)
	return app
}

func signWebhook(payload []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPaystackWebhookMissingSecret(t *testing.T) {
	t.Setenv("PAYSTACK_SECRET_KEY", "")

	req := httptest.NewRequest("POST", "/api/v1/donations/paystack/webhook", strings.NewReader(`{}`))
	resp, err := webhookApp().Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestPaystackWebhookInvalidSignature(t *testing.T) {
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_secret")

	req := httptest.NewRequest("POST", "/api/v1/donations/paystack/webhook", strings.NewReader(`{"event":"charge.success"}`))
	req.Header.Set("x-paystack-signature", "deadbeef")
	resp, err := webhookApp().Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestPaystackWebhookUnsignedRequest(t *testing.T) {
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_secret")

	req := httptest.NewRequest("POST", "/api/v1/donations/paystack/webhook", strings.NewReader(`{"event":"charge.success"}`))
	resp, err := webhookApp().Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestPaystackWebhookSignedButMalformedPayload(t *testing.T) {
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_secret")

	payload := []byte(`{"data": {}}`)
	req := httptest.NewRequest("POST", "/api/v1/donations/paystack/webhook", strings.NewReader(string(payload)))
	req.Header.Set("x-paystack-signature", signWebhook(payload, "sk_test_secret"))
	resp, err := webhookApp().Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
