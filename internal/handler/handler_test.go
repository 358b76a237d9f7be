package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/coworking-booking/internal/ledger"
	"github.com/iliyamo/coworking-booking/internal/model"
)

func newEchoCtx() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestLedgerErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: bad cart", ledger.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: slot taken", ledger.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: not yours", ledger.ErrPermission), http.StatusForbidden},
		{fmt.Errorf("%w: too poor", ledger.ErrInsufficientFunds), http.StatusPaymentRequired},
		{fmt.Errorf("%w: booking 9", ledger.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("driver: connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		c, rec := newEchoCtx()
		require.NoError(t, ledgerError(c, tc.err))
		assert.Equal(t, tc.code, rec.Code, "for error %v", tc.err)
	}
}

func TestGetUserIDAcceptsJWTClaimTypes(t *testing.T) {
	// The JWT middleware stores the raw claim value, which json decodes
	// as float64; tests and internal callers may set native ints.
	for _, v := range []interface{}{uint64(7), int(7), int64(7), float64(7), "7"} {
		c, _ := newEchoCtx()
		c.Set("user_id", v)
		id, err := getUserID(c)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), id)
	}

	c, _ := newEchoCtx()
	c.Set("user_id", "not-a-number")
	_, err := getUserID(c)
	assert.Error(t, err)
}

func TestGetRoleFallsBackToUser(t *testing.T) {
	c, _ := newEchoCtx()
	c.Set("role", "senior_admin")
	assert.Equal(t, model.RoleSeniorAdmin, getRole(c))

	c, _ = newEchoCtx()
	c.Set("role", "SUPERUSER")
	assert.Equal(t, model.RoleUser, getRole(c))

	c, _ = newEchoCtx()
	assert.Equal(t, model.RoleUser, getRole(c))
}

func TestMinuteClock(t *testing.T) {
	assert.Equal(t, "00:00", minuteClock(0))
	assert.Equal(t, "09:30", minuteClock(570))
	assert.Equal(t, "23:30", minuteClock(1410))
}

func TestSlotStatus(t *testing.T) {
	date := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	blocked := &model.Booking{ResourceID: 1, Date: date, StartMinute: 600, DurationMin: 60, Status: model.StatusConfirmed}
	listed := &model.Booking{ResourceID: 1, Date: date, StartMinute: 720, DurationMin: 60, Status: model.StatusConfirmed, IsReRentListed: true}
	bookings := []*model.Booking{blocked, listed}

	assert.Equal(t, "free", slotStatus(bookings, 570))
	assert.Equal(t, "booked", slotStatus(bookings, 600))
	assert.Equal(t, "booked", slotStatus(bookings, 630))
	assert.Equal(t, "free", slotStatus(bookings, 660)) // half-open end
	assert.Equal(t, "re_rent", slotStatus(bookings, 720))
	assert.Equal(t, "re_rent", slotStatus(bookings, 750))
	assert.Equal(t, "free", slotStatus(bookings, 780))
}
