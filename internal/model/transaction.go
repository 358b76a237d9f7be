package model

import "time"

// TransactionCategory classifies a ledger entry by the event that
// produced it.
type TransactionCategory string

const (
	TxnPayment    TransactionCategory = "payment"    // charge for a confirmed booking
	TxnRefund     TransactionCategory = "refund"     // cancellation / re-rent payout
	TxnBonus      TransactionCategory = "bonus"      // reconciliation cashback
	TxnAdjustment TransactionCategory = "adjustment" // manual price override diff
)

// LedgerTransaction is an immutable audit record appended whenever a
// customer's balance changes through a booking-related event.  Rows
// are never updated or deleted.  AmountCents is signed: negative for
// charges, positive for credits.
//
// Fields:
//  ID            – UUID assigned at creation.
//  CustomerID    – account the entry applies to.
//  AmountCents   – signed amount in cents.
//  Category      – payment, refund, bonus or adjustment.
//  PaymentMethod – method of the booking that triggered the entry.
//  BookingID     – triggering booking, when there is one.
//  Description   – human-readable summary for statements.
//  ExpiresAt     – expiry of a bonus credit (nullable).
//  CreatedAt     – timestamp of creation.
type LedgerTransaction struct {
	ID            string              // ledger_transactions.id (UUID)
	CustomerID    uint64              // ledger_transactions.customer_id
	AmountCents   int64               // ledger_transactions.amount_cents
	Category      TransactionCategory // ledger_transactions.category
	PaymentMethod PaymentMethod       // ledger_transactions.payment_method
	BookingID     *uint64             // ledger_transactions.booking_id (nullable)
	Description   string              // ledger_transactions.description
	ExpiresAt     *time.Time          // ledger_transactions.expires_at (nullable)
	CreatedAt     time.Time           // ledger_transactions.created_at
}
