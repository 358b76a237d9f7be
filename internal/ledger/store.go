package ledger

import (
	"context"
	"time"

	"github.com/iliyamo/coworking-booking/internal/model"
)

// BookingRepo is the booking persistence surface the ledger needs.
// Implementations must honour the transaction scope they were created
// under (see Store.ExecTx).
type BookingRepo interface {
	// Create inserts a new booking and populates its generated ID.
	Create(ctx context.Context, b *model.Booking) error
	// GetByID loads one booking or returns ErrNotFound.
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	// Update persists status, price, flag and cancellation fields of
	// an existing booking.
	Update(ctx context.Context, b *model.Booking) error
	// ListConfirmedOverlapping returns confirmed bookings on the given
	// resource and date whose minute range intersects [startMin, endMin).
	ListConfirmedOverlapping(ctx context.Context, resourceID uint64, date time.Time, startMin, endMin int) ([]*model.Booking, error)
	// ListConfirmedByCustomerRange returns the customer's confirmed
	// bookings with dates in [from, to).
	ListConfirmedByCustomerRange(ctx context.Context, customerID uint64, from, to time.Time) ([]*model.Booking, error)
	// ListByCustomer returns every booking of a customer, newest first.
	ListByCustomer(ctx context.Context, customerID uint64) ([]*model.Booking, error)
	// ListConfirmedEndingBefore returns confirmed bookings whose end
	// instant is before the given cutoff.
	ListConfirmedEndingBefore(ctx context.Context, cutoff time.Time) ([]*model.Booking, error)
}

// AccountRepo reads and writes customer accounts.  Get followed by
// Update inside one transaction is the atomic unit every balance or
// hour mutation goes through.
type AccountRepo interface {
	Get(ctx context.Context, customerID uint64) (*model.Account, error)
	Update(ctx context.Context, a *model.Account) error
}

// TransactionRepo appends immutable audit records.  There is no update
// or delete.
type TransactionRepo interface {
	Append(ctx context.Context, t *model.LedgerTransaction) error
	ListByCustomer(ctx context.Context, customerID uint64, limit int) ([]*model.LedgerTransaction, error)
}

// Repos bundles the repositories bound to one transaction (or to the
// autocommit connection, for plain reads).
type Repos struct {
	Bookings     BookingRepo
	Accounts     AccountRepo
	Transactions TransactionRepo
}

// Store is the transactional boundary around the ledger.  ExecTx runs
// fn against transaction-scoped repositories and commits only when fn
// returns nil; any error rolls the whole operation back, so a partial
// cart can never leave an account half-deducted.
type Store interface {
	ExecTx(ctx context.Context, fn func(r Repos) error) error
	// Repos returns repositories for non-transactional reads.
	Repos() Repos
}

// CalendarEvent is the payload emitted to the external calendar
// collaborator when a booking is confirmed.
type CalendarEvent struct {
	BookingID  uint64    `json:"booking_id"`
	ResourceID uint64    `json:"resource_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Title      string    `json:"title"`
}

// CalendarNotifier delivers calendar events best-effort.  Failures are
// logged by the caller and never abort a booking.
type CalendarNotifier interface {
	NotifyBooked(ctx context.Context, ev CalendarEvent) error
}
