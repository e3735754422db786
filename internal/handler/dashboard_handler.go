package handler

import (
	"strconv"

	"smartretail-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetDashboardStats returns overview statistics
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.Stats()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch dashboard stats"})
	}

	return c.JSON(stats)
}

// GetBestSelling returns the top products by quantity sold
// Query params: limit (default 5)
func (h *DashboardHandler) GetBestSelling(c *fiber.Ctx) error {
	limitStr := c.Query("limit", "5")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 5
	}

	data, err := h.service.BestSelling(limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch best sellers"})
	}

	return c.JSON(data)
}

// GetRevenueTrend returns daily revenue for charts
// Query params: days (default 7)
func (h *DashboardHandler) GetRevenueTrend(c *fiber.Ctx) error {
	daysStr := c.Query("days", "7")
	days, err := strconv.Atoi(daysStr)
	if err != nil || days <= 0 {
		days = 7
	}

	data, err := h.service.RevenueTrend(days)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch revenue trend"})
	}

	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}
