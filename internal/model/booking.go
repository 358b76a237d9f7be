package model

import "time"

// BookingStatus is the lifecycle state of a booking.  A booking is
// created as CONFIRMED and every transition away from CONFIRMED is
// final.  Cancellation is a status, never a row deletion: bookings
// are kept forever for audit and timeline purposes.
type BookingStatus string

const (
	StatusConfirmed   BookingStatus = "confirmed"
	StatusCancelled   BookingStatus = "cancelled"
	StatusCompleted   BookingStatus = "completed"
	StatusRescheduled BookingStatus = "rescheduled"
	StatusReRented    BookingStatus = "re_rented"
	StatusNoShow      BookingStatus = "no_show"
)

// PaymentMethod selects how a cart is paid for at confirmation time.
type PaymentMethod string

const (
	PayBySubscription PaymentMethod = "subscription" // spend prepaid hours
	PayByBalance      PaymentMethod = "balance"      // spend the cash balance
)

// PaymentSource records which pool the money (or hours) actually came
// from.  Balance payments are tagged "deposit" when the pre-deduction
// balance covered the whole cart and "credit" when the customer went
// into their credit limit.
type PaymentSource string

const (
	SourceSubscription PaymentSource = "subscription"
	SourceDeposit      PaymentSource = "deposit"
	SourceCredit       PaymentSource = "credit"
)

// BookingFormat distinguishes individual from group use of a resource.
type BookingFormat string

const (
	FormatIndividual BookingFormat = "individual"
	FormatGroup      BookingFormat = "group"
)

// DiscountKind names the single rule that won when a booking was
// priced.  Exactly one kind applies per booking; tiers never stack.
type DiscountKind string

const (
	DiscountNone           DiscountKind = "none"
	DiscountPersonal       DiscountKind = "personal"
	DiscountDuration       DiscountKind = "duration"
	DiscountWeekly         DiscountKind = "weekly"
	DiscountHot            DiscountKind = "hot"
	DiscountManualOverride DiscountKind = "manual_override"
)

// Booking is the persisted outcome of a confirmed cart item.  All
// money fields are integer cents.  Start and duration are minutes:
// StartMinute counts from midnight of Date (UTC) and DurationMin is
// always a positive multiple of 30.
//
// Fields:
//  ID            – primary key identifier.
//  CustomerID    – owning customer.
//  ResourceID    – booked resource.
//  Date          – calendar date of the booking (midnight UTC).
//  StartMinute   – minutes since midnight, 30-minute aligned.
//  DurationMin   – length in minutes, positive multiple of 30.
//  Format        – individual or group.
//  Extras        – names of one-time extras attached at checkout.
//  PaymentMethod – subscription or balance.
//  PaymentSource – subscription, deposit or credit.
//  HoursDeducted – hours taken from the subscription pool at confirm
//                  time; zero for balance payments.  Refunds use this
//                  stored value, never a recomputation.
//  BasePriceCents – pre-discount price; kept for reconciliation.
//  ExtrasCents    – one-time extras charged with this booking.
//  DiscountCents  – amount deducted by the winning discount rule.
//  DiscountKind   – which rule won (none if no discount applied).
//  FinalPriceCents – what was actually charged; never negative.
//  Status        – lifecycle state.
//  IsReRentListed – the owner re-offered this confirmed booking for
//                  rental; the slot no longer blocks new bookings.
//  CancellationReason – reason supplied on late cancellations.
//  CancelledBy   – role of the actor who cancelled.
//  ReplacesID    – for a booking created by a reschedule, the booking
//                  it replaced (audit link; only the first cart item).
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last status change.
type Booking struct {
	ID                 uint64        // bookings.id
	CustomerID         uint64        // bookings.customer_id
	ResourceID         uint64        // bookings.resource_id
	Date               time.Time     // bookings.date
	StartMinute        int           // bookings.start_minute
	DurationMin        int           // bookings.duration_min
	Format             BookingFormat // bookings.format
	Extras             []string      // bookings.extras (JSON column)
	PaymentMethod      PaymentMethod // bookings.payment_method
	PaymentSource      PaymentSource // bookings.payment_source
	HoursDeducted      float64       // bookings.hours_deducted
	BasePriceCents     int64         // bookings.base_price_cents
	ExtrasCents        int64         // bookings.extras_cents
	DiscountCents      int64         // bookings.discount_cents
	DiscountKind       DiscountKind  // bookings.discount_kind
	FinalPriceCents    int64         // bookings.final_price_cents
	Status             BookingStatus // bookings.status
	IsReRentListed     bool          // bookings.is_re_rent_listed
	CancellationReason *string       // bookings.cancellation_reason (nullable)
	CancelledBy        *string       // bookings.cancelled_by (nullable)
	ReplacesID         *uint64       // bookings.replaces_id (nullable)
	CreatedAt          time.Time     // bookings.created_at
	UpdatedAt          time.Time     // bookings.updated_at
}

// EndMinute returns the minute-since-midnight at which the booking ends.
func (b *Booking) EndMinute() int { return b.StartMinute + b.DurationMin }

// StartTime combines Date and StartMinute into an absolute UTC instant.
func (b *Booking) StartTime() time.Time {
	return b.Date.Add(time.Duration(b.StartMinute) * time.Minute)
}

// Hours returns the booking length in hours (a multiple of 0.5).
func (b *Booking) Hours() float64 { return float64(b.DurationMin) / 60.0 }

// Overlaps reports whether two bookings occupy intersecting time on
// the same resource and calendar date.  Ranges are half-open: a
// booking ending at 12:00 does not overlap one starting at 12:00.
func (b *Booking) Overlaps(resourceID uint64, date time.Time, startMin, endMin int) bool {
	if b.ResourceID != resourceID {
		return false
	}
	if !sameDate(b.Date, date) {
		return false
	}
	lo := b.StartMinute
	if startMin > lo {
		lo = startMin
	}
	hi := b.EndMinute()
	if endMin < hi {
		hi = endMin
	}
	return lo < hi
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
