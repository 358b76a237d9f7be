package model

import "time"

// Subscription is a prepaid pool of hours attached to an account.  The
// pool is spent instead of currency when a cart is paid by
// subscription.  RemainingHours always stays within [0, TotalHours]:
// deductions clamp at zero and refunds clamp at TotalHours.
//
// Fields:
//  TotalHours      – hours originally granted.
//  RemainingHours  – hours left to spend.
//  IsFrozen        – a frozen subscription cannot pay for bookings.
//  IncludedFormats – booking formats the subscription covers.
//  ExpiresAt       – end of the subscription period (nullable).
type Subscription struct {
	TotalHours      float64         // accounts.sub_total_hours
	RemainingHours  float64         // accounts.sub_remaining_hours
	IsFrozen        bool            // accounts.sub_is_frozen
	IncludedFormats []BookingFormat // accounts.sub_formats (JSON column)
	ExpiresAt       *time.Time      // accounts.sub_expires_at (nullable)
}

// Covers reports whether the subscription can pay for a booking of the
// given format.  An empty IncludedFormats list covers every format.
func (s *Subscription) Covers(f BookingFormat) bool {
	if len(s.IncludedFormats) == 0 {
		return true
	}
	for _, inc := range s.IncludedFormats {
		if inc == f {
			return true
		}
	}
	return false
}

// PricingMode selects how a customer's discounts are resolved.  In
// personal mode a fixed percentage replaces all automatic tiers.
type PricingMode string

const (
	PricingStandard PricingMode = "standard"
	PricingPersonal PricingMode = "personal"
)

// Account holds the financial state of one customer.  BalanceCents is
// signed and may go negative down to -CreditLimitCents; the ledger
// rejects any confirmation that would project past that line.  The
// engine reads and writes the whole account atomically inside each
// ledger transaction.
//
// Fields:
//  CustomerID       – owning customer (one account per customer).
//  BalanceCents     – cash balance in cents, may be negative.
//  CreditLimitCents – how far below zero the balance may go (>= 0).
//  PricingMode      – standard tiers or a personal override.
//  PersonalDiscountPercent – override percent used in personal mode.
//  Subscription     – optional prepaid hour pool.
//  UpdatedAt        – timestamp of last mutation.
type Account struct {
	CustomerID              uint64        // accounts.customer_id
	BalanceCents            int64         // accounts.balance_cents
	CreditLimitCents        int64         // accounts.credit_limit_cents
	PricingMode             PricingMode   // accounts.pricing_mode
	PersonalDiscountPercent float64       // accounts.personal_discount_pct
	Subscription            *Subscription // nullable subscription columns
	UpdatedAt               time.Time     // accounts.updated_at
}
