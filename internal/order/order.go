// Package order manages pickup/delivery orders for the fleet.
package order

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/elektrokombinacija/fleetplan/internal/core"
	"github.com/elektrokombinacija/fleetplan/internal/grid"
)

// Status tracks an order through its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAssigned  Status = "assigned"
	StatusCompleted Status = "completed"
)

// Order is a request to carry goods from one room to another.
type Order struct {
	ID          uuid.UUID
	From        string // pickup room
	To          string // delivery room
	RequestedAt int    // tick the order arrived
	Status      Status
	AssignedTo  core.AgentID
	Assigned    bool
	AssignedAt  int
	CompletedAt int
}

// Latency returns ticks from request to completion.
func (o *Order) Latency() int {
	return o.CompletedAt - o.RequestedAt
}

// Stats summarizes order throughput.
type Stats struct {
	Pending    int
	Assigned   int
	Completed  int
	AvgLatency float64
}

// Manager tracks active and completed orders. Generation is driven by a
// seeded source so runs are reproducible.
type Manager struct {
	floor     *grid.Floor
	rng       *rand.Rand
	active    []*Order
	completed []*Order
}

// NewManager creates a manager over the given floor.
func NewManager(floor *grid.Floor, seed int64) *Manager {
	return &Manager{
		floor: floor,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Generate creates a random order between two distinct rooms.
func (m *Manager) Generate(now int) *Order {
	rooms := m.floor.Rooms()
	from := m.rng.Intn(len(rooms))
	to := m.rng.Intn(len(rooms) - 1)
	if to >= from {
		to++
	}
	o := &Order{
		ID:          uuid.New(),
		From:        rooms[from],
		To:          rooms[to],
		RequestedAt: now,
		Status:      StatusPending,
	}
	m.active = append(m.active, o)
	return o
}

// Add creates an explicit order between two named rooms.
func (m *Manager) Add(from, to string, now int) (*Order, error) {
	if _, ok := m.floor.RoomCell(from); !ok {
		return nil, fmt.Errorf("unknown pickup room %q", from)
	}
	if _, ok := m.floor.RoomCell(to); !ok {
		return nil, fmt.Errorf("unknown delivery room %q", to)
	}
	if from == to {
		return nil, fmt.Errorf("order from %q to itself", from)
	}
	o := &Order{
		ID:          uuid.New(),
		From:        from,
		To:          to,
		RequestedAt: now,
		Status:      StatusPending,
	}
	m.active = append(m.active, o)
	return o, nil
}

// Pending returns unassigned orders in arrival order.
func (m *Manager) Pending() []*Order {
	var out []*Order
	for _, o := range m.active {
		if o.Status == StatusPending {
			out = append(out, o)
		}
	}
	return out
}

// Assign marks the order as owned by the agent.
func (m *Manager) Assign(o *Order, id core.AgentID, now int) {
	o.Status = StatusAssigned
	o.AssignedTo = id
	o.Assigned = true
	o.AssignedAt = now
}

// Complete closes the order and moves it to the completed list.
func (m *Manager) Complete(o *Order, now int) {
	o.Status = StatusCompleted
	o.CompletedAt = now
	for i, candidate := range m.active {
		if candidate == o {
			m.active = append(m.active[:i], m.active[i+1:]...)
			break
		}
	}
	m.completed = append(m.completed, o)
}

// ByAgent returns the active order assigned to the agent, if any.
func (m *Manager) ByAgent(id core.AgentID) *Order {
	for _, o := range m.active {
		if o.Status == StatusAssigned && o.AssignedTo == id {
			return o
		}
	}
	return nil
}

// ClosestAgent picks the candidate nearest to the order's pickup room,
// breaking distance ties by rank so assignment is deterministic.
func (m *Manager) ClosestAgent(o *Order, candidates []*core.Agent) *core.Agent {
	pickup, ok := m.floor.RoomCell(o.From)
	if !ok {
		return nil
	}

	var best *core.Agent
	bestDist := 0
	for _, a := range candidates {
		d := m.floor.DistanceEstimate(a.Cell, pickup)
		if best == nil || d < bestDist || (d == bestDist && a.Rank < best.Rank) {
			best = a
			bestDist = d
		}
	}
	return best
}

// Completed returns closed orders in completion order.
func (m *Manager) Completed() []*Order {
	return m.completed
}

// Stats returns current throughput counters.
func (m *Manager) Stats() Stats {
	s := Stats{Completed: len(m.completed)}
	for _, o := range m.active {
		switch o.Status {
		case StatusPending:
			s.Pending++
		case StatusAssigned:
			s.Assigned++
		}
	}
	if len(m.completed) > 0 {
		total := 0
		for _, o := range m.completed {
			total += o.Latency()
		}
		s.AvgLatency = float64(total) / float64(len(m.completed))
	}
	return s
}
