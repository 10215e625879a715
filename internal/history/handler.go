package history

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bazaar-pay/bazaar_pay/internal/ledger"
	"github.com/bazaar-pay/bazaar_pay/internal/wallet"
)

// Handler exposes read-only transaction log endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a history handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transactionResponse struct {
	ID            string    `json:"id"`
	WalletID      string    `json:"wallet_id"`
	Amount        int64     `json:"amount"`
	Type          string    `json:"type"`
	CorrelationID string    `json:"correlation_id"`
	Counterparty  string    `json:"counterparty,omitempty"`
	Status        string    `json:"status"`
	Reference     string    `json:"reference,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListByWallet returns a page of the wallet's transactions, newest first.
func (h *Handler) ListByWallet(c *fiber.Ctx) error {
	page := Page{
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	}

	txs, err := h.service.ListByWallet(c.UserContext(), c.Params("walletId"), page)
	if err != nil {
		if errors.Is(err, wallet.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toResponse(tx))
	}
	return c.JSON(fiber.Map{
		"wallet_id":    c.Params("walletId"),
		"transactions": out,
	})
}

// ListByCorrelation returns every leg of one compound operation.
func (h *Handler) ListByCorrelation(c *fiber.Ctx) error {
	txs, err := h.service.ListByCorrelation(c.UserContext(), c.Params("correlationId"))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	if len(txs) == 0 {
		return fiber.NewError(http.StatusNotFound, "operation not found")
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toResponse(tx))
	}
	return c.JSON(fiber.Map{
		"correlation_id": c.Params("correlationId"),
		"transactions":   out,
	})
}

// Balance returns the wallet's committed balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	balance, err := h.service.Balance(c.UserContext(), c.Params("walletId"))
	if err != nil {
		if errors.Is(err, wallet.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"wallet_id": c.Params("walletId"),
		"balance":   balance,
	})
}

func toResponse(tx ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:            tx.ID,
		WalletID:      tx.WalletID,
		Amount:        tx.Amount,
		Type:          string(tx.Type),
		CorrelationID: tx.CorrelationID,
		Counterparty:  tx.Counterparty,
		Status:        tx.Status,
		Reference:     tx.Reference,
		CreatedAt:     tx.CreatedAt,
	}
}
