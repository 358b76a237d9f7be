// Package memory provides an in-memory ledger.Store.  ExecTx works on
// a deep copy of the state and swaps it in only when the callback
// succeeds, so a failed operation observably mutates nothing.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/coworking-booking/internal/ledger"
	"github.com/iliyamo/coworking-booking/internal/model"
)

// Store is an in-memory, copy-on-write implementation of ledger.Store.
// A single mutex serializes transactions, which is the whole point of
// the transactional boundary at this scale.
type Store struct {
	mu    sync.Mutex
	state *state
}

type state struct {
	nextBookingID uint64
	bookings      map[uint64]*model.Booking
	accounts      map[uint64]*model.Account
	transactions  []*model.LedgerTransaction
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{state: &state{
		nextBookingID: 1,
		bookings:      make(map[uint64]*model.Booking),
		accounts:      make(map[uint64]*model.Account),
	}}
}

// SeedAccount installs (or replaces) an account, for dev fixtures and
// tests.
func (s *Store) SeedAccount(a *model.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.accounts[a.CustomerID] = cloneAccount(a)
}

// ExecTx runs fn against a deep copy of the store state and commits
// the copy only when fn returns nil.
func (s *Store) ExecTx(ctx context.Context, fn func(r ledger.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	draft := s.state.clone()
	if err := fn(reposOver(draft)); err != nil {
		return err
	}
	s.state = draft
	return nil
}

// Repos returns repositories over the live state for plain reads.
// Returned entities are clones, so callers cannot mutate the store
// outside ExecTx.
func (s *Store) Repos() ledger.Repos {
	s.mu.Lock()
	defer s.mu.Unlock()
	return reposOver(s.state)
}

func reposOver(st *state) ledger.Repos {
	return ledger.Repos{
		Bookings:     &bookingRepo{st: st},
		Accounts:     &accountRepo{st: st},
		Transactions: &transactionRepo{st: st},
	}
}

type bookingRepo struct{ st *state }

func (r *bookingRepo) Create(_ context.Context, b *model.Booking) error {
	b.ID = r.st.nextBookingID
	r.st.nextBookingID++
	r.st.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (r *bookingRepo) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	b, ok := r.st.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: booking %d", ledger.ErrNotFound, id)
	}
	return cloneBooking(b), nil
}

func (r *bookingRepo) Update(_ context.Context, b *model.Booking) error {
	if _, ok := r.st.bookings[b.ID]; !ok {
		return fmt.Errorf("%w: booking %d", ledger.ErrNotFound, b.ID)
	}
	r.st.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (r *bookingRepo) ListConfirmedOverlapping(_ context.Context, resourceID uint64, date time.Time, startMin, endMin int) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range r.st.bookings {
		if b.Status != model.StatusConfirmed {
			continue
		}
		if b.Overlaps(resourceID, date, startMin, endMin) {
			out = append(out, cloneBooking(b))
		}
	}
	return out, nil
}

func (r *bookingRepo) ListConfirmedByCustomerRange(_ context.Context, customerID uint64, from, to time.Time) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range r.st.bookings {
		if b.Status != model.StatusConfirmed || b.CustomerID != customerID {
			continue
		}
		if b.Date.Before(from) || !b.Date.Before(to) {
			continue
		}
		out = append(out, cloneBooking(b))
	}
	return out, nil
}

func (r *bookingRepo) ListByCustomer(_ context.Context, customerID uint64) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range r.st.bookings {
		if b.CustomerID == customerID {
			out = append(out, cloneBooking(b))
		}
	}
	// newest first
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *bookingRepo) ListConfirmedEndingBefore(_ context.Context, cutoff time.Time) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range r.st.bookings {
		if b.Status != model.StatusConfirmed {
			continue
		}
		end := b.StartTime().Add(time.Duration(b.DurationMin) * time.Minute)
		if end.Before(cutoff) {
			out = append(out, cloneBooking(b))
		}
	}
	return out, nil
}

type accountRepo struct{ st *state }

func (r *accountRepo) Get(_ context.Context, customerID uint64) (*model.Account, error) {
	a, ok := r.st.accounts[customerID]
	if !ok {
		return nil, fmt.Errorf("%w: account for customer %d", ledger.ErrNotFound, customerID)
	}
	return cloneAccount(a), nil
}

func (r *accountRepo) Update(_ context.Context, a *model.Account) error {
	if _, ok := r.st.accounts[a.CustomerID]; !ok {
		return fmt.Errorf("%w: account for customer %d", ledger.ErrNotFound, a.CustomerID)
	}
	r.st.accounts[a.CustomerID] = cloneAccount(a)
	return nil
}

type transactionRepo struct{ st *state }

func (r *transactionRepo) Append(_ context.Context, t *model.LedgerTransaction) error {
	r.st.transactions = append(r.st.transactions, cloneTxn(t))
	return nil
}

func (r *transactionRepo) ListByCustomer(_ context.Context, customerID uint64, limit int) ([]*model.LedgerTransaction, error) {
	var out []*model.LedgerTransaction
	for i := len(r.st.transactions) - 1; i >= 0; i-- {
		t := r.st.transactions[i]
		if t.CustomerID != customerID {
			continue
		}
		out = append(out, cloneTxn(t))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (st *state) clone() *state {
	next := &state{
		nextBookingID: st.nextBookingID,
		bookings:      make(map[uint64]*model.Booking, len(st.bookings)),
		accounts:      make(map[uint64]*model.Account, len(st.accounts)),
		transactions:  make([]*model.LedgerTransaction, len(st.transactions)),
	}
	for id, b := range st.bookings {
		next.bookings[id] = cloneBooking(b)
	}
	for id, a := range st.accounts {
		next.accounts[id] = cloneAccount(a)
	}
	for i, t := range st.transactions {
		next.transactions[i] = cloneTxn(t)
	}
	return next
}

func cloneBooking(b *model.Booking) *model.Booking {
	cp := *b
	cp.Extras = append([]string(nil), b.Extras...)
	if b.CancellationReason != nil {
		v := *b.CancellationReason
		cp.CancellationReason = &v
	}
	if b.CancelledBy != nil {
		v := *b.CancelledBy
		cp.CancelledBy = &v
	}
	if b.ReplacesID != nil {
		v := *b.ReplacesID
		cp.ReplacesID = &v
	}
	return &cp
}

func cloneAccount(a *model.Account) *model.Account {
	cp := *a
	if a.Subscription != nil {
		sub := *a.Subscription
		sub.IncludedFormats = append([]model.BookingFormat(nil), a.Subscription.IncludedFormats...)
		if a.Subscription.ExpiresAt != nil {
			v := *a.Subscription.ExpiresAt
			sub.ExpiresAt = &v
		}
		cp.Subscription = &sub
	}
	return &cp
}

func cloneTxn(t *model.LedgerTransaction) *model.LedgerTransaction {
	cp := *t
	if t.BookingID != nil {
		v := *t.BookingID
		cp.BookingID = &v
	}
	if t.ExpiresAt != nil {
		v := *t.ExpiresAt
		cp.ExpiresAt = &v
	}
	return &cp
}
