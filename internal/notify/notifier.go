// Package notify turns low-stock query results into user-facing alerts.
package notify

import (
	"log"

	"smartretail-pos/internal/ws"
)

// Alert identifies one product that fell under the threshold.
type Alert struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	Stock       int    `json:"stock"`
}

// Notifier is the external alert sink. Cancel retracts a product's alert
// once it has been restocked.
type Notifier interface {
	LowStock(alert Alert)
	Cancel(productID uint)
}

// LogNotifier writes alerts to the process log. Useful headless and in tests.
type LogNotifier struct{}

func (LogNotifier) LowStock(a Alert) {
	log.Printf("[notify] low stock: %q down to %d units", a.ProductName, a.Stock)
}

func (LogNotifier) Cancel(productID uint) {
	log.Printf("[notify] low stock cleared for product %d", productID)
}

// HubNotifier pushes alerts to connected UI clients over the websocket hub.
type HubNotifier struct {
	hub *ws.Hub
}

func NewHubNotifier(hub *ws.Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) LowStock(a Alert) {
	n.hub.BroadcastJSON(map[string]interface{}{
		"type":  "low_stock_alert",
		"alert": a,
	})
}

func (n *HubNotifier) Cancel(productID uint) {
	n.hub.BroadcastJSON(map[string]interface{}{
		"type":       "low_stock_cleared",
		"product_id": productID,
	})
}
