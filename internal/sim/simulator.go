// Package sim runs the discrete-tick fleet simulation.
//
// Each tick may introduce a new order, assigns pending orders to idle
// agents, advances every agent one step along its committed path, and
// runs planning rounds for agents that need a new plan (a fresh
// assignment, the next leg of a delivery, or a retry after an
// unreachable round). The planner core never sees the clock; it is
// invoked with round-relative paths only.
package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"sync"

	"github.com/elektrokombinacija/fleetplan/internal/algo"
	"github.com/elektrokombinacija/fleetplan/internal/core"
	"github.com/elektrokombinacija/fleetplan/internal/grid"
	"github.com/elektrokombinacija/fleetplan/internal/order"
)

// AgentSpec describes one robot at simulation start.
type AgentSpec struct {
	ID    core.AgentID
	Rank  int
	Start core.CellID
}

// ScheduledOrder is an order injected at a fixed tick, on top of the
// random arrival process.
type ScheduledOrder struct {
	Tick int
	From string
	To   string
}

// Config configures a simulation run.
type Config struct {
	Floor     *grid.Floor
	Agents    []AgentSpec
	Ticks     int     // simulated duration
	Horizon   int     // planning horizon, 0 = algo.DefaultHorizon
	OrderRate float64 // probability of a new order per tick
	Seed      int64   // drives order generation
	Scheduled []ScheduledOrder
	Audit     bool // verify the joint plan after every round
	Logger    *slog.Logger
	Store     *order.Store // optional completed-order sink
}

// Metrics collects counters over a run.
type Metrics struct {
	Ticks           int     `json:"ticks"`
	OrdersGenerated int     `json:"orders_generated"`
	OrdersAssigned  int     `json:"orders_assigned"`
	OrdersCompleted int     `json:"orders_completed"`
	AvgOrderLatency float64 `json:"avg_order_latency"`
	PlanRounds      int     `json:"plan_rounds"`
	PlansCommitted  int     `json:"plans_committed"`
	PlanFailures    int     `json:"plan_failures"` // unreachable outcomes, retried next tick
}

// Simulator drives the fleet over discrete time.
type Simulator struct {
	mu sync.Mutex

	cfg        Config
	floor      *grid.Floor
	planner    *algo.Planner
	orders     *order.Manager
	agents     []*core.Agent
	queues     map[core.AgentID][]core.CellID // remaining goal legs
	relocating map[core.AgentID]bool          // head of queue is a step-aside, not a delivery leg
	rng        *rand.Rand
	logger     *slog.Logger

	tick    int
	metrics Metrics
}

// New creates a simulator from the config.
func New(cfg Config) (*Simulator, error) {
	if cfg.Floor == nil {
		return nil, fmt.Errorf("sim: no floor configured")
	}
	if len(cfg.Agents) == 0 {
		return nil, fmt.Errorf("sim: no agents configured")
	}
	if cfg.OrderRate < 0 || cfg.OrderRate > 1 {
		return nil, fmt.Errorf("sim: order rate %v outside [0,1]", cfg.OrderRate)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	agents := make([]*core.Agent, 0, len(cfg.Agents))
	seen := make(map[core.CellID]core.AgentID, len(cfg.Agents))
	for _, spec := range cfg.Agents {
		if !cfg.Floor.Contains(spec.Start) {
			return nil, fmt.Errorf("sim: agent %d starts off the floor at cell %d", spec.ID, spec.Start)
		}
		if other, taken := seen[spec.Start]; taken {
			return nil, fmt.Errorf("sim: agents %d and %d share start cell %d", other, spec.ID, spec.Start)
		}
		seen[spec.Start] = spec.ID
		agents = append(agents, &core.Agent{ID: spec.ID, Rank: spec.Rank, Cell: spec.Start})
	}

	return &Simulator{
		cfg:        cfg,
		floor:      cfg.Floor,
		planner:    algo.NewPlanner(cfg.Floor, cfg.Horizon),
		orders:     order.NewManager(cfg.Floor, cfg.Seed),
		agents:     agents,
		queues:     make(map[core.AgentID][]core.CellID),
		relocating: make(map[core.AgentID]bool),
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		logger:     cfg.Logger,
	}, nil
}

// Run executes the configured number of ticks.
func (s *Simulator) Run(ctx context.Context) (Metrics, error) {
	for {
		s.mu.Lock()
		done := s.tick >= s.cfg.Ticks
		s.mu.Unlock()
		if done {
			break
		}

		select {
		case <-ctx.Done():
			return s.Metrics(), ctx.Err()
		default:
		}

		if err := s.Step(ctx); err != nil {
			return s.Metrics(), err
		}
	}
	return s.Metrics(), nil
}

// Step advances the simulation by one tick.
func (s *Simulator) Step(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick++
	s.metrics.Ticks = s.tick

	for _, so := range s.cfg.Scheduled {
		if so.Tick != s.tick {
			continue
		}
		o, err := s.orders.Add(so.From, so.To, s.tick)
		if err != nil {
			return fmt.Errorf("scheduled order at tick %d: %w", s.tick, err)
		}
		s.metrics.OrdersGenerated++
		s.logger.Debug("scheduled order placed", "order", o.ID, "from", o.From, "to", o.To, "tick", s.tick)
	}
	if s.rng.Float64() < s.cfg.OrderRate {
		o := s.orders.Generate(s.tick)
		s.metrics.OrdersGenerated++
		s.logger.Debug("order generated", "order", o.ID, "from", o.From, "to", o.To, "tick", s.tick)
	}

	if err := s.advanceAgents(ctx); err != nil {
		return err
	}
	s.assignOrders()
	return s.planPending()
}

// advanceAgents moves every agent one step along its committed path and
// retires finished legs.
func (s *Simulator) advanceAgents(ctx context.Context) error {
	for _, a := range s.agents {
		if len(a.Path) > 1 {
			a.Cell = a.Path[1].Cell
			a.Path = a.Path.Advance()
		}
		if len(a.Path) == 1 {
			a.Path = nil
		}

		// Leg finished?
		queue := s.queues[a.ID]
		if a.Path == nil && len(queue) > 0 && a.Cell == queue[0] {
			s.queues[a.ID] = queue[1:]
			switch {
			case s.relocating[a.ID]:
				delete(s.relocating, a.ID)
			case len(queue) == 1:
				if err := s.completeDelivery(ctx, a); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *Simulator) completeDelivery(ctx context.Context, a *core.Agent) error {
	o := s.orders.ByAgent(a.ID)
	if o == nil {
		return nil
	}
	s.orders.Complete(o, s.tick)
	s.metrics.OrdersCompleted++
	stats := s.orders.Stats()
	s.metrics.AvgOrderLatency = stats.AvgLatency
	s.logger.Info("order completed",
		"order", o.ID, "agent", a.ID, "latency", o.Latency(), "tick", s.tick)

	if s.cfg.Store != nil {
		if err := s.cfg.Store.Record(ctx, o); err != nil {
			return fmt.Errorf("record completed order: %w", err)
		}
	}
	return nil
}

// assignOrders hands the oldest pending order to the closest idle
// agent. One assignment per tick, matching order arrival cadence.
func (s *Simulator) assignOrders() {
	pending := s.orders.Pending()
	if len(pending) == 0 {
		return
	}

	var idle []*core.Agent
	for _, a := range s.agents {
		if a.Idle() && len(s.queues[a.ID]) == 0 && s.orders.ByAgent(a.ID) == nil {
			idle = append(idle, a)
		}
	}
	if len(idle) == 0 {
		return
	}

	o := pending[0]
	best := s.orders.ClosestAgent(o, idle)
	if best == nil {
		return
	}

	pickup, _ := s.floor.RoomCell(o.From)
	dropoff, _ := s.floor.RoomCell(o.To)
	s.queues[best.ID] = []core.CellID{pickup, dropoff}
	s.orders.Assign(o, best.ID, s.tick)
	s.metrics.OrdersAssigned++
	s.logger.Debug("order assigned", "order", o.ID, "agent", best.ID, "tick", s.tick)
}

// planPending plans one agent per round, in rank order. Serializing the
// rounds means every search sees all committed paths and every parked
// agent as immovable, so committed plans can never run over an agent
// that failed to plan afterwards. Agents left unreachable keep their
// queue and retry next tick; when the blocker is another parked agent
// sitting on the goal, that agent is sent aside first.
func (s *Simulator) planPending() error {
	byRank := make([]*core.Agent, len(s.agents))
	copy(byRank, s.agents)
	sort.Slice(byRank, func(i, j int) bool { return byRank[i].Rank < byRank[j].Rank })

	var stuck []*core.Agent
	for _, a := range byRank {
		queue := s.queues[a.ID]
		if !a.Idle() || len(queue) == 0 || a.Path != nil {
			continue
		}
		goal := queue[0]

		outcomes, err := s.planner.PlanRound(s.agents, map[core.AgentID]core.CellID{a.ID: goal})
		if err != nil {
			return fmt.Errorf("planning round at tick %d: %w", s.tick, err)
		}
		s.metrics.PlanRounds++

		if outcomes[a.ID].Unreachable {
			s.metrics.PlanFailures++
			s.logger.Debug("no path found, retrying next tick", "agent", a.ID, "goal", goal, "tick", s.tick)
			stuck = append(stuck, a)
			continue
		}
		s.metrics.PlansCommitted++
	}

	s.resolveStandoffs(stuck)

	if s.cfg.Audit {
		if c := s.auditPlans(); c != nil {
			return fmt.Errorf("joint plan audit failed at tick %d: agents %d/%d at cell %d t=%d",
				s.tick, c.A, c.B, c.Cell, c.T)
		}
	}
	return nil
}

// resolveStandoffs sends parked agents out of cells that stuck agents
// need. The relocated agent gets a step-aside leg prepended to its
// queue and plans it on a later tick, freeing the cell. Without this,
// two agents whose goals are each other's parking spots would wait on
// one another forever.
func (s *Simulator) resolveStandoffs(stuck []*core.Agent) {
	if len(stuck) == 0 {
		return
	}

	taken := make(map[core.CellID]bool)
	for _, a := range s.agents {
		taken[a.Cell] = true
		if queue := s.queues[a.ID]; len(queue) > 0 {
			taken[queue[0]] = true
		}
		if a.Path != nil {
			taken[a.Path.End().Cell] = true
		}
	}

	for _, x := range stuck {
		goal := s.queues[x.ID][0]
		y := s.agentAt(goal)
		if y == nil || y.ID == x.ID || len(y.Path) > 1 {
			continue // nobody parked there, or the occupant is already leaving
		}
		queue := s.queues[y.ID]
		if len(queue) > 0 && !s.relocating[y.ID] && !containsAgent(stuck, y.ID) {
			continue // tasked and not stuck, it will move on its own
		}

		aside, ok := s.chooseAside(y.Cell, taken)
		if !ok {
			continue
		}
		if s.relocating[y.ID] && len(queue) > 0 {
			queue[0] = aside // refresh a step-aside that went stale
		} else {
			s.queues[y.ID] = append([]core.CellID{aside}, queue...)
		}
		s.relocating[y.ID] = true
		taken[aside] = true
		s.logger.Debug("relocating parked agent",
			"agent", y.ID, "from", y.Cell, "to", aside, "blocked", x.ID, "tick", s.tick)
	}
}

func (s *Simulator) agentAt(c core.CellID) *core.Agent {
	for _, a := range s.agents {
		if a.Cell == c {
			return a
		}
	}
	return nil
}

func containsAgent(agents []*core.Agent, id core.AgentID) bool {
	for _, a := range agents {
		if a.ID == id {
			return true
		}
	}
	return false
}

// chooseAside picks the nearest free room as a step-aside spot. Rooms
// are dead ends off the corridor, so a parked agent there blocks
// nothing but the room itself.
func (s *Simulator) chooseAside(from core.CellID, taken map[core.CellID]bool) (core.CellID, bool) {
	best := core.CellID(-1)
	bestDist := 0
	for c := core.CellID(0); int(c) < s.floor.NumCells(); c++ {
		if taken[c] || !s.floor.IsRoom(c) {
			continue
		}
		if d := s.floor.DistanceEstimate(from, c); best < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// auditPlans cross-checks every committed path, treating idle agents as
// parked at their cell.
func (s *Simulator) auditPlans() *algo.Conflict {
	joint := make(map[core.AgentID]core.Path, len(s.agents))
	for _, a := range s.agents {
		if a.Path != nil {
			joint[a.ID] = a.Path
		} else {
			joint[a.ID] = core.Path{{Cell: a.Cell, T: 0}}
		}
	}
	return algo.FindFirstConflict(joint)
}

// Tick returns the current simulated time.
func (s *Simulator) Tick() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// Agents returns the live agent records. Callers must not mutate them.
func (s *Simulator) Agents() []*core.Agent {
	return s.agents
}

// Orders exposes the order manager for inspection.
func (s *Simulator) Orders() *order.Manager {
	return s.orders
}

// Metrics returns a snapshot of the run counters.
func (s *Simulator) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

// ExportMetrics writes the metrics snapshot to a JSON file.
func (s *Simulator) ExportMetrics(path string) error {
	m := s.Metrics()
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
