package algo

import (
	"errors"
	"fmt"
	"sort"

	"github.com/elektrokombinacija/fleetplan/internal/core"
)

// Outcome is the per-agent result of a planning round.
type Outcome struct {
	Path        core.Path // nil when unreachable
	Unreachable bool      // goal not reachable within the horizon this round
}

// Planner serializes space-time search across the fleet in priority
// order. It owns the reservation table for the duration of a round; the
// search only ever sees a read-only view of it.
type Planner struct {
	graph   core.Graph
	horizon int
}

// NewPlanner creates a planner over the given floor graph. A
// non-positive horizon falls back to DefaultHorizon.
func NewPlanner(g core.Graph, horizon int) *Planner {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	return &Planner{graph: g, horizon: horizon}
}

// Horizon returns the configured search horizon.
func (p *Planner) Horizon() int { return p.horizon }

// PlanRound produces new paths for every agent with an entry in goals,
// holding the committed paths of the remaining agents fixed.
//
// Protocol: rebuild an empty reservation table, reserve every fixed
// agent's remaining path (idle fixed agents hold their parked cell),
// then plan the requested agents in ascending rank order, committing and
// reserving each path before the next agent searches. Lower-priority
// agents route around higher-priority intentions, never the reverse.
//
// An agent whose goal is unreachable within the horizon is left idle
// with nothing reserved for it and marked Unreachable; that is a normal
// outcome, not an error. Errors mean the round input was malformed
// (ErrInvalidConfig) or the priority-ordering invariant was violated
// (*ConflictError); in either case no results are returned.
//
// Path timesteps are relative to the round start: every path begins at
// the agent's current cell at T=0.
func (p *Planner) PlanRound(agents []*core.Agent, goals map[core.AgentID]core.CellID) (map[core.AgentID]Outcome, error) {
	if err := p.validateRound(agents, goals); err != nil {
		return nil, err
	}

	table := NewReservationTable(p.horizon)

	// Fixed agents first: their intentions are immovable this round.
	for _, a := range agents {
		if _, replan := goals[a.ID]; replan {
			continue
		}
		committed := a.Path
		if len(committed) == 0 {
			committed = core.Path{{Cell: a.Cell, T: 0}}
		}
		if err := table.Reserve(committed, a.ID); err != nil {
			return nil, err
		}
	}

	toPlan := make([]*core.Agent, 0, len(goals))
	for _, a := range agents {
		if _, replan := goals[a.ID]; replan {
			toPlan = append(toPlan, a)
		}
	}
	sort.Slice(toPlan, func(i, j int) bool {
		return toPlan[i].Rank < toPlan[j].Rank
	})

	outcomes := make(map[core.AgentID]Outcome, len(toPlan))
	for _, a := range toPlan {
		path, err := SpaceTimeAStar(p.graph, a.ID, a.Cell, goals[a.ID], 0, p.horizon, table)
		if errors.Is(err, ErrNoPathFound) {
			a.Path = nil
			outcomes[a.ID] = Outcome{Unreachable: true}
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := table.Reserve(path, a.ID); err != nil {
			return nil, err
		}
		a.Path = path
		outcomes[a.ID] = Outcome{Path: path}
	}

	return outcomes, nil
}

// validateRound rejects malformed input before any planning starts.
func (p *Planner) validateRound(agents []*core.Agent, goals map[core.AgentID]core.CellID) error {
	byID := make(map[core.AgentID]*core.Agent, len(agents))
	ranks := make(map[int]core.AgentID, len(agents))

	for _, a := range agents {
		if a == nil {
			return fmt.Errorf("%w: nil agent", ErrInvalidConfig)
		}
		if _, dup := byID[a.ID]; dup {
			return fmt.Errorf("%w: duplicate agent id %d", ErrInvalidConfig, a.ID)
		}
		byID[a.ID] = a

		if a.Rank < 0 {
			return fmt.Errorf("%w: agent %d has negative rank %d", ErrInvalidConfig, a.ID, a.Rank)
		}
		if other, dup := ranks[a.Rank]; dup {
			return fmt.Errorf("%w: agents %d and %d share rank %d", ErrInvalidConfig, other, a.ID, a.Rank)
		}
		ranks[a.Rank] = a.ID

		if !p.graph.Contains(a.Cell) {
			return fmt.Errorf("%w: agent %d is at unknown cell %d", ErrInvalidConfig, a.ID, a.Cell)
		}
		if len(a.Path) > 0 {
			if a.Path[0].T != 0 || a.Path[0].Cell != a.Cell {
				return fmt.Errorf("%w: agent %d committed path does not start at its current state", ErrInvalidConfig, a.ID)
			}
			if !a.Path.Conforms(p.graph) {
				return fmt.Errorf("%w: agent %d committed path is not traversable", ErrInvalidConfig, a.ID)
			}
		}
	}

	for id, goal := range goals {
		if _, ok := byID[id]; !ok {
			return fmt.Errorf("%w: goal for unknown agent %d", ErrInvalidConfig, id)
		}
		if !p.graph.Contains(goal) {
			return fmt.Errorf("%w: goal cell %d for agent %d is not on the floor", ErrInvalidConfig, goal, id)
		}
	}

	return nil
}
