package handler

import (
	"errors"

	"smartretail-pos/internal/model"
	"smartretail-pos/internal/receipt"
	"smartretail-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type TransactionHandler struct {
	service service.TransactionService
}

func NewTransactionHandler(s service.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: s}
}

// CheckoutRequest represents the checkout request body
type CheckoutRequest struct {
	Items []model.CartItem `json:"items"`
}

// Checkout records a sale: header, line items and stock decrements in one unit
// POST /api/v1/transactions
func (h *TransactionHandler) Checkout(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	tx, err := h.service.Checkout(userID, req.Items)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) || errors.Is(err, service.ErrInvalidQty) {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(422).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{"message": "Transaction recorded", "data": tx})
}

func (h *TransactionHandler) GetTransactions(c *fiber.Ctx) error {
	transactions, err := h.service.Transactions()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(transactions)
}

func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	tx, err := h.service.TransactionByID(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Transaction not found"})
	}
	return c.JSON(tx)
}

// GetTransactionDetail returns line items joined with product names. Deleted
// products still show up here so old receipts remain readable.
func (h *TransactionHandler) GetTransactionDetail(c *fiber.Ctx) error {
	items, err := h.service.ItemsDetail(c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(items)
}

// GetReceipt renders the plain-text receipt for a transaction
// GET /api/v1/transactions/:id/receipt
func (h *TransactionHandler) GetReceipt(c *fiber.Ctx) error {
	id := c.Params("id")

	tx, err := h.service.TransactionByID(id)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Transaction not found"})
	}

	items, err := h.service.ItemsDetail(id)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	storeName, _ := c.Locals("store_name").(string)
	if storeName == "" {
		storeName = "SmartRetail"
	}

	c.Set("Content-Type", "text/plain; charset=utf-8")
	return c.SendString(receipt.Render(storeName, tx, items))
}
