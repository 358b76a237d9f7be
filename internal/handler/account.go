package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coworking-booking/internal/ledger"
	"github.com/iliyamo/coworking-booking/internal/model"
)

// AccountHandler serves the caller's own financial state: balance,
// subscription pool and the transaction statement.
type AccountHandler struct {
	Store ledger.Store
}

func NewAccountHandler(s ledger.Store) *AccountHandler {
	if s == nil {
		panic("handler: nil store in NewAccountHandler")
	}
	return &AccountHandler{Store: s}
}

// Account returns the caller's balance, credit limit, pricing mode and
// subscription pool.
// GET /v1/account
func (h *AccountHandler) Account(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Store.Repos().Accounts.Get(ctx, uid)
	if err != nil {
		return ledgerError(c, err)
	}

	out := echo.Map{
		"customer_id":        a.CustomerID,
		"balance_cents":      a.BalanceCents,
		"credit_limit_cents": a.CreditLimitCents,
		"pricing_mode":       a.PricingMode,
	}
	if a.PricingMode == model.PricingPersonal {
		out["personal_discount_pct"] = a.PersonalDiscountPercent
	}
	if s := a.Subscription; s != nil {
		out["subscription"] = echo.Map{
			"total_hours":      s.TotalHours,
			"remaining_hours":  s.RemainingHours,
			"is_frozen":        s.IsFrozen,
			"included_formats": s.IncludedFormats,
			"expires_at":       s.ExpiresAt,
		}
	}
	return c.JSON(http.StatusOK, out)
}

// Transactions returns the caller's ledger statement, newest first.
// The optional ?limit= query caps the page (default 50, max 200).
// GET /v1/account/transactions
func (h *AccountHandler) Transactions(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		if n > 200 {
			n = 200
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	txns, err := h.Store.Repos().Transactions.ListByCustomer(ctx, uid, limit)
	if err != nil {
		return ledgerError(c, err)
	}
	out := make([]echo.Map, 0, len(txns))
	for _, t := range txns {
		entry := echo.Map{
			"id":           t.ID,
			"amount_cents": t.AmountCents,
			"category":     t.Category,
			"description":  t.Description,
			"created_at":   t.CreatedAt,
		}
		if t.BookingID != nil {
			entry["booking_id"] = *t.BookingID
		}
		if t.ExpiresAt != nil {
			entry["expires_at"] = *t.ExpiresAt
		}
		out = append(out, entry)
	}
	return c.JSON(http.StatusOK, echo.Map{"transactions": out})
}
