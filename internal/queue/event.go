// Package queue defines message payloads exchanged over the message broker.
package queue

// CalendarSyncEvent is published when a booking is confirmed so the
// external calendar stays in sync.  It carries enough information for
// downstream consumers to log, notify, or mirror the slot without
// querying the primary database.
type CalendarSyncEvent struct {
	BookingID  uint64 `json:"booking_id"`
	ResourceID uint64 `json:"resource_id"`
	Title      string `json:"title"`
	StartsAt   string `json:"starts_at"`
	EndsAt     string `json:"ends_at"`
	SyncedAt   string `json:"synced_at"`
}
