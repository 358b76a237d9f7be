package ledger

import (
	"fmt"

	"github.com/iliyamo/coworking-booking/internal/model"
)

// lateCancelHours is the lead-time threshold below which cancellation
// becomes restricted: admins are denied outright and every other role
// must record a reason.
const lateCancelHours = 24.0

// cancelRule describes what a role may do when cancelling with the
// given lead time remaining.
type cancelRule struct {
	allowed     bool
	needsReason bool
}

// cancelPolicy maps (role, late?) to the applicable rule.  Keeping the
// table explicit makes the authorization matrix testable on its own
// instead of being buried in handler conditionals.
var cancelPolicy = map[model.RoleName]map[bool]cancelRule{
	model.RoleUser:        {false: {allowed: true}, true: {allowed: true, needsReason: true}},
	model.RoleAdmin:       {false: {allowed: true}, true: {allowed: false}},
	model.RoleSeniorAdmin: {false: {allowed: true}, true: {allowed: true, needsReason: true}},
	model.RoleOwner:       {false: {allowed: true}, true: {allowed: true, needsReason: true}},
}

// authorizeCancel applies the cancellation matrix.  It returns a
// wrapped ErrPermission naming the failed rule, or nil when the
// cancellation may proceed.
func authorizeCancel(actor model.RoleName, hoursUntilStart float64, reason string) error {
	byLate, ok := cancelPolicy[actor]
	if !ok {
		return fmt.Errorf("%w: unknown role %q", ErrPermission, actor)
	}
	rule := byLate[hoursUntilStart < lateCancelHours]
	if !rule.allowed {
		return fmt.Errorf("%w: role %q may not cancel less than %v hours before start", ErrPermission, actor, lateCancelHours)
	}
	if rule.needsReason && reason == "" {
		return fmt.Errorf("%w: cancelling less than %v hours before start requires a reason", ErrPermission, lateCancelHours)
	}
	return nil
}
