package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bazaar-pay/bazaar_pay/internal/currency"
)

// RegisterCurrencyRoutes exposes the supported currency registry.
func RegisterCurrencyRoutes(r fiber.Router) {
	r.Get("/currencies", func(c *fiber.Ctx) error {
		type currencyResponse struct {
			Code     string `json:"code"`
			Class    string `json:"class"`
			Exponent int    `json:"exponent"`
		}
		supported := currency.Supported()
		out := make([]currencyResponse, 0, len(supported))
		for _, cur := range supported {
			out = append(out, currencyResponse{
				Code:     cur.Code,
				Class:    string(cur.Class),
				Exponent: cur.Exponent,
			})
		}
		return c.JSON(fiber.Map{"currencies": out, "default": currency.DefaultCode})
	})
}
