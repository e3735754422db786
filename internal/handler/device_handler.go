package handler

import (
	"smartretail-pos/internal/scheduler"

	"github.com/gofiber/fiber/v2"
)

// DeviceHandler lets the host signal connectivity and battery changes. The
// scheduler reads these flags before each run; jobs whose constraints are
// unmet skip the slot without burning a retry.
type DeviceHandler struct {
	device *scheduler.DeviceState
}

func NewDeviceHandler(device *scheduler.DeviceState) *DeviceHandler {
	return &DeviceHandler{device: device}
}

// DeviceSignalRequest represents a device state change body
type DeviceSignalRequest struct {
	NetworkAvailable *bool `json:"network_available"`
	BatteryLow       *bool `json:"battery_low"`
}

// Signal updates device state flags; absent fields are left unchanged
// POST /api/v1/device/signal
func (h *DeviceHandler) Signal(c *fiber.Ctx) error {
	var req DeviceSignalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if req.NetworkAvailable != nil {
		h.device.SetNetworkAvailable(*req.NetworkAvailable)
	}
	if req.BatteryLow != nil {
		h.device.SetBatteryLow(*req.BatteryLow)
	}

	return c.JSON(fiber.Map{
		"network_available": h.device.NetworkAvailable(),
		"battery_low":       h.device.BatteryLow(),
	})
}

// GetState reports current device flags
// GET /api/v1/device
func (h *DeviceHandler) GetState(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"network_available": h.device.NetworkAvailable(),
		"battery_low":       h.device.BatteryLow(),
	})
}
