package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bazaar-pay/bazaar_pay/internal/history"
)

// RegisterHistoryRoutes wires the transaction log endpoints.
func RegisterHistoryRoutes(r fiber.Router, h *history.Handler) {
	r.Get("/wallets/:walletId/transactions", h.ListByWallet)
	r.Get("/transfers/:correlationId", h.ListByCorrelation)
}
