package controllers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vivahealthmed/foundation-site/internal/pkg/cache"
	"github.com/vivahealthmed/foundation-site/internal/pkg/database"
	"github.com/vivahealthmed/foundation-site/internal/pkg/donations"
)

const (
	metricsCacheKey = "donations:metrics"
	metricsCacheTTL = 60 * time.Second
)

// HandleDonationMetrics returns aggregate donation counts for the public
// stats section and the admin dashboard. The aggregation walks every row,
// so results are cached briefly.
func HandleDonationMetrics(c *fiber.Ctx) error {
	if cached, err := cache.Get(metricsCacheKey); err == nil && cached != "" {
		var m donations.Metrics
		if err := json.Unmarshal([]byte(cached), &m); err == nil {
			return c.Status(fiber.StatusOK).JSON(m)
		}
	}

	svc := donations.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	metrics, err := svc.Metrics(ctx)
	if err != nil {
		log.Printf("Error computing donation metrics: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load donation metrics"})
	}

	if payload, err := json.Marshal(metrics); err == nil {
		if err := cache.Set(metricsCacheKey, string(payload), metricsCacheTTL); err != nil {
			log.Printf("Metrics cache write failed: %v", err)
		}
	}

	return c.Status(fiber.StatusOK).JSON(metrics)
}
