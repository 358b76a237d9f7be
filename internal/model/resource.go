package model

import "time"

// ResourceCategory classifies a bookable unit.  The category together
// with the booking format determines the hourly rate applied by the
// pricing engine.
type ResourceCategory string

const (
	CategoryRoom    ResourceCategory = "room"    // meeting or work room
	CategoryCapsule ResourceCategory = "capsule" // single-person capsule
)

// Location represents a physical coworking site.  Resources belong to
// exactly one location.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the site.
//  Address   – street address shown to customers.
//  IsActive  – whether the location accepts bookings.
//  CreatedAt – timestamp of creation.
type Location struct {
	ID        uint64    // locations.id
	Name      string    // locations.name
	Address   string    // locations.address
	IsActive  bool      // locations.is_active
	CreatedAt time.Time // locations.created_at
}

// Resource is a bookable unit (a room or a capsule) at a location.
// Rates are not stored on the resource itself; the pricing engine
// looks them up by (category, format) in its rate table.
//
// Fields:
//  ID         – primary key identifier.
//  LocationID – owning location.
//  Name       – display name (e.g. "Room 2", "Capsule A").
//  Category   – room or capsule.
//  Capacity   – number of people the unit holds.
//  IsActive   – whether the resource is open for booking.
//  CreatedAt  – timestamp of creation.
type Resource struct {
	ID         uint64           // resources.id
	LocationID uint64           // resources.location_id
	Name       string           // resources.name
	Category   ResourceCategory // resources.category
	Capacity   uint32           // resources.capacity
	IsActive   bool             // resources.is_active
	CreatedAt  time.Time        // resources.created_at
}
