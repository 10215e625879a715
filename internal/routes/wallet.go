package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bazaar-pay/bazaar_pay/internal/history"
	"github.com/bazaar-pay/bazaar_pay/internal/wallet"
)

// RegisterWalletRoutes wires wallet registry endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, hist *history.Handler) {
	r.Post("/wallets", h.Create)
	r.Get("/wallets/:walletId", h.Get)
	r.Get("/wallets/:walletId/balance", hist.Balance)
	r.Post("/wallets/:walletId/deactivate", h.Deactivate)
}
