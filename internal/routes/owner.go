package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bazaar-pay/bazaar_pay/internal/owner"
	"github.com/bazaar-pay/bazaar_pay/internal/wallet"
)

// RegisterOwnerRoutes wires the owner directory endpoints.
func RegisterOwnerRoutes(r fiber.Router, h *owner.Handler, wallets *wallet.Handler) {
	r.Post("/owners", h.Register)
	r.Get("/owners/:ownerId", h.Get)
	r.Get("/owners/:ownerId/wallets", wallets.ListByOwner)
}
