package booking

import (
	"fmt"
	"strings"

	"github.com/example/room-booking/internal/scheduler"
)

// Policy decides which occurrence statuses occupy a room.
type Policy int

const (
	// PolicyStrict blocks on approved occurrences only.
	PolicyStrict Policy = iota
	// PolicyPendingAware also blocks on occurrences awaiting a decision.
	PolicyPendingAware
)

// ParsePolicy maps "strict" or "pending" onto a Policy. Empty input selects PolicyStrict.
func ParsePolicy(value string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "strict":
		return PolicyStrict, nil
	case "pending", "pending-aware":
		return PolicyPendingAware, nil
	default:
		return PolicyStrict, fmt.Errorf("booking: unknown availability mode %q", value)
	}
}

// String returns the wire name of the policy.
func (p Policy) String() string {
	if p == PolicyPendingAware {
		return "pending"
	}
	return "strict"
}

// Blocks reports whether an occurrence in the given status occupies its slot.
func (p Policy) Blocks(status RequestStatus) bool {
	switch status {
	case StatusApproved:
		return true
	case StatusSubmitted:
		return p == PolicyPendingAware
	default:
		return false
	}
}

// BlockingOccurrences filters occurrences to those of roomID that block under the policy,
// skipping any owned by excludeRequestID.
func BlockingOccurrences(occurrences []Occurrence, roomID string, policy Policy, excludeRequestID string) []scheduler.Occurrence {
	out := make([]scheduler.Occurrence, 0, len(occurrences))
	for _, occ := range occurrences {
		if occ.RoomID != roomID || !policy.Blocks(occ.Status) {
			continue
		}
		if excludeRequestID != "" && occ.RequestID == excludeRequestID {
			continue
		}
		out = append(out, scheduler.Occurrence{
			ID:        occ.ID,
			RequestID: occ.RequestID,
			RoomID:    occ.RoomID,
			Start:     occ.Start,
			End:       occ.End,
		})
	}
	return out
}
