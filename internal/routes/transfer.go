package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bazaar-pay/bazaar_pay/internal/transfer"
)

// RegisterTransferRoutes wires the money-movement endpoints.
func RegisterTransferRoutes(r fiber.Router, h *transfer.Handler) {
	r.Post("/wallets/:walletId/deposit", h.Deposit)
	r.Post("/wallets/:walletId/withdraw", h.Withdraw)
	r.Post("/transfers", h.Transfer)
}
