// Package scenario defines the on-disk description of a simulation
// setup: the floor, the fleet and the orders to run against it. The
// same files feed the CLI and the benchmark tools.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/elektrokombinacija/fleetplan/internal/core"
	"github.com/elektrokombinacija/fleetplan/internal/grid"
	"github.com/elektrokombinacija/fleetplan/internal/sim"
)

// Agent places one robot on the floor. Goal is optional; the plan
// command uses it for one-shot rounds.
type Agent struct {
	ID       int    `json:"id"`
	Rank     int    `json:"rank"`
	StartCol int    `json:"start_col"` // corridor column
	Goal     string `json:"goal,omitempty"`
}

// Order is a delivery request injected at a fixed tick.
type Order struct {
	Tick int    `json:"tick"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Scenario is a complete simulation setup.
type Scenario struct {
	Name      string   `json:"name"`
	Rooms     []string `json:"rooms"`
	Agents    []Agent  `json:"agents"`
	Orders    []Order  `json:"orders,omitempty"`
	Ticks     int      `json:"ticks"`
	OrderRate float64  `json:"order_rate"`
	Seed      int64    `json:"seed"`
	Horizon   int      `json:"horizon"`
	Generated string   `json:"generated,omitempty"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &sc, nil
}

// Save writes the scenario as indented JSON.
func (sc *Scenario) Save(path string) error {
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks internal consistency without building anything.
func (sc *Scenario) Validate() error {
	if len(sc.Rooms) == 0 {
		return fmt.Errorf("no rooms")
	}
	rooms := make(map[string]bool, len(sc.Rooms))
	for _, r := range sc.Rooms {
		if r == "" {
			return fmt.Errorf("empty room name")
		}
		if rooms[r] {
			return fmt.Errorf("duplicate room %q", r)
		}
		rooms[r] = true
	}

	if len(sc.Agents) == 0 {
		return fmt.Errorf("no agents")
	}
	ids := make(map[int]bool, len(sc.Agents))
	cols := make(map[int]bool, len(sc.Agents))
	for _, a := range sc.Agents {
		if ids[a.ID] {
			return fmt.Errorf("duplicate agent id %d", a.ID)
		}
		ids[a.ID] = true
		if a.StartCol < 0 || a.StartCol >= len(sc.Rooms) {
			return fmt.Errorf("agent %d start column %d outside the corridor", a.ID, a.StartCol)
		}
		if cols[a.StartCol] {
			return fmt.Errorf("agents share start column %d", a.StartCol)
		}
		cols[a.StartCol] = true
		if a.Goal != "" && !rooms[a.Goal] {
			return fmt.Errorf("agent %d goal %q is not a room", a.ID, a.Goal)
		}
	}

	for i, o := range sc.Orders {
		if !rooms[o.From] || !rooms[o.To] {
			return fmt.Errorf("order %d references unknown room", i)
		}
		if o.From == o.To {
			return fmt.Errorf("order %d picks up and delivers in %q", i, o.From)
		}
		if o.Tick < 0 {
			return fmt.Errorf("order %d has negative tick", i)
		}
	}

	if sc.OrderRate < 0 || sc.OrderRate > 1 {
		return fmt.Errorf("order rate %v outside [0,1]", sc.OrderRate)
	}
	return nil
}

// FloorPlan builds the floor described by the scenario.
func (sc *Scenario) FloorPlan() (*grid.Floor, error) {
	return grid.NewFloor(sc.Rooms)
}

// AgentSpecs converts the fleet to simulator specs on the given floor.
func (sc *Scenario) AgentSpecs(f *grid.Floor) []sim.AgentSpec {
	specs := make([]sim.AgentSpec, 0, len(sc.Agents))
	for _, a := range sc.Agents {
		specs = append(specs, sim.AgentSpec{
			ID:    core.AgentID(a.ID),
			Rank:  a.Rank,
			Start: f.CorridorCell(a.StartCol),
		})
	}
	return specs
}

// ScheduledOrders converts the order list to simulator form.
func (sc *Scenario) ScheduledOrders() []sim.ScheduledOrder {
	out := make([]sim.ScheduledOrder, 0, len(sc.Orders))
	for _, o := range sc.Orders {
		out = append(out, sim.ScheduledOrder{Tick: o.Tick, From: o.From, To: o.To})
	}
	return out
}

// Goals collects the per-agent goal rooms for a one-shot planning
// round. Agents without a goal are held fixed.
func (sc *Scenario) Goals(f *grid.Floor) map[core.AgentID]core.CellID {
	goals := make(map[core.AgentID]core.CellID)
	for _, a := range sc.Agents {
		if a.Goal == "" {
			continue
		}
		if cell, ok := f.RoomCell(a.Goal); ok {
			goals[core.AgentID(a.ID)] = cell
		}
	}
	return goals
}

// FleetAgents builds fresh core agents for a one-shot round.
func (sc *Scenario) FleetAgents(f *grid.Floor) []*core.Agent {
	agents := make([]*core.Agent, 0, len(sc.Agents))
	for _, a := range sc.Agents {
		agents = append(agents, &core.Agent{
			ID:   core.AgentID(a.ID),
			Rank: a.Rank,
			Cell: f.CorridorCell(a.StartCol),
		})
	}
	return agents
}
