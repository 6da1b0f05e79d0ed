package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conference-commerce/internal/model"
	"github.com/iliyamo/conference-commerce/internal/service"
)

// WalletHandler serves wallet balance and history for the caller and
// manual ledger adjustments for operators.  Adjustments are new
// signed entries, never edits: the ledger stays append-only.
type WalletHandler struct {
	Wallet *service.WalletService
}

// NewWalletHandler constructs a WalletHandler.
func NewWalletHandler(wallet *service.WalletService) *WalletHandler {
	if wallet == nil {
		panic("nil service passed to NewWalletHandler")
	}
	return &WalletHandler{Wallet: wallet}
}

// WalletEntryView is one ledger entry as returned to clients.
// AmountCents keeps its sign: credits are positive, debits negative.
type WalletEntryView struct {
	AmountCents int64     `json:"amount_cents"`
	Reason      string    `json:"reason"`
	Reference   string    `json:"reference,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Balance handles GET /v1/wallet.
func (h *WalletHandler) Balance(c echo.Context) error {
	userID, ok := authedUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	balance, err := h.Wallet.Balance(c.Request().Context(), userID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"balance_cents": balance})
}

// History handles GET /v1/wallet/transactions and returns the
// caller's ledger entries, newest first.
func (h *WalletHandler) History(c echo.Context) error {
	userID, ok := authedUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	entries, err := h.Wallet.History(c.Request().Context(), userID)
	if err != nil {
		return writeErr(c, err)
	}
	out := make([]WalletEntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, WalletEntryView{
			AmountCents: e.AmountCents,
			Reason:      e.Reason,
			Reference:   e.Reference,
			CreatedAt:   e.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": out})
}

// Credit handles POST /v1/wallet/credit, a manual operator credit to
// a user's ledger.
func (h *WalletHandler) Credit(c echo.Context) error {
	return h.adjust(c, "credit")
}

// Debit handles POST /v1/wallet/debit, a manual operator debit.  A
// debit that would push the target balance negative answers 409.
func (h *WalletHandler) Debit(c echo.Context) error {
	return h.adjust(c, "debit")
}

// adjust records a manual ledger correction.  Both routes carry the
// wallet:manage permission requirement; the handler records which
// operator made the correction.  The route fixes the direction so a
// body cannot flip a credit into a debit.
func (h *WalletHandler) adjust(c echo.Context, direction string) error {
	actorID, ok := authedUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var in model.WalletAdjustInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	in.Direction = direction
	if err := c.Validate(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	entry, err := h.Wallet.Adjust(c.Request().Context(), actorID, in)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, WalletEntryView{
		AmountCents: entry.AmountCents,
		Reason:      entry.Reason,
		Reference:   entry.Reference,
		CreatedAt:   entry.CreatedAt,
	})
}
