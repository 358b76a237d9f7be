package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coworking-booking/internal/ledger"
	"github.com/iliyamo/coworking-booking/internal/model"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole extracts the role claim stored by the JWT middleware and
// falls back to the plain user role when the claim is missing or not
// one of the known names.
func getRole(c echo.Context) model.RoleName {
	if s, ok := c.Get("role").(string); ok && model.ValidRole(s) {
		return model.RoleName(s)
	}
	return model.RoleUser
}

// ledgerError translates ledger sentinels into HTTP responses.  The
// wrapped message names the failed rule, so it goes to the client
// verbatim; anything unrecognized is reported as a generic database
// error.
func ledgerError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, ledger.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, ledger.ErrPermission):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return c.JSON(http.StatusPaymentRequired, echo.Map{"error": err.Error()})
	case errors.Is(err, ledger.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

// parseDate parses a YYYY-MM-DD path/query/body value as midnight UTC.
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// minuteClock renders minutes-since-midnight as HH:MM for responses.
func minuteClock(m int) string {
	h := m / 60
	return pad2(h) + ":" + pad2(m%60)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
