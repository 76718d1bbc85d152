package algo

import (
	"errors"
	"fmt"

	"github.com/elektrokombinacija/fleetplan/internal/core"
)

// ErrNoPathFound reports that the search horizon was exhausted without
// reaching the goal. Recoverable: the agent stays idle this round and is
// retried on the next planning trigger.
var ErrNoPathFound = errors.New("no path found within horizon")

// ErrInvalidConfig reports malformed planner input. No partial round is
// attempted.
var ErrInvalidConfig = errors.New("invalid planner configuration")

// ConflictError reports a reservation collision. Reservations are
// written in strict priority order against a table each agent already
// searched, so a collision means the caller violated the ordering
// contract. Not recoverable.
type ConflictError struct {
	Cell     core.CellID
	From     core.CellID // set for edge reservations
	T        int
	IsEdge   bool
	Holder   core.AgentID
	Claimant core.AgentID
}

func (e *ConflictError) Error() string {
	if e.IsEdge {
		return fmt.Sprintf("reservation conflict: edge %d->%d at t=%d held by agent %d, claimed by agent %d",
			e.From, e.Cell, e.T, e.Holder, e.Claimant)
	}
	return fmt.Sprintf("reservation conflict: cell %d at t=%d held by agent %d, claimed by agent %d",
		e.Cell, e.T, e.Holder, e.Claimant)
}
