package transfer

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bazaar-pay/bazaar_pay/internal/ledger"
	"github.com/bazaar-pay/bazaar_pay/internal/wallet"
)

// Handler exposes the money-movement endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a transfer handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type amountRequest struct {
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

type transferRequest struct {
	FromWalletID string `json:"from_wallet_id"`
	ToWalletID   string `json:"to_wallet_id"`
	Amount       int64  `json:"amount"`
	Reference    string `json:"reference"`
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

func toTransactionResponses(txs []ledger.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionResponse{
			ID:            tx.ID,
			WalletID:      tx.WalletID,
			Amount:        tx.Amount,
			Type:          string(tx.Type),
			CorrelationID: tx.CorrelationID,
			Counterparty:  tx.Counterparty,
			Status:        tx.Status,
			Reference:     tx.Reference,
			CreatedAt:     tx.CreatedAt,
		})
	}
	return out
}

// Deposit credits a wallet.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Deposit(c.UserContext(), c.Params("walletId"), req.Amount,
		c.Get("Idempotency-Key"), req.Reference)
	if err != nil {
		return mapError(err)
	}
	return respond(c, res)
}

// Withdraw debits a wallet, fee included.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Withdraw(c.UserContext(), c.Params("walletId"), req.Amount,
		c.Get("Idempotency-Key"), req.Reference)
	if err != nil {
		return mapError(err)
	}
	return respond(c, res)
}

// Transfer moves funds between wallets.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Transfer(c.UserContext(), req.FromWalletID, req.ToWalletID,
		req.Amount, c.Get("Idempotency-Key"), req.Reference)
	if err != nil {
		return mapError(err)
	}
	return respond(c, res)
}

func respond(c *fiber.Ctx, res Result) error {
	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	return c.Status(status).JSON(fiber.Map{
		"correlation_id": res.CorrelationID,
		"duplicate":      res.Duplicate,
		"transactions":   toTransactionResponses(res.Transactions),
	})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrSameWallet), errors.Is(err, ledger.ErrInvalidSet):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrBelowMinimum):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, wallet.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, wallet.ErrInactive):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ledger.ErrCurrencyMismatch):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ledger.ErrLockTimeout):
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ledger.ErrCorrupted):
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
