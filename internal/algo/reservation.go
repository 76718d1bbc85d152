package algo

import (
	"github.com/elektrokombinacija/fleetplan/internal/core"
)

type vertexKey struct {
	Cell core.CellID
	T    int
}

type edgeKey struct {
	From, To core.CellID
	T        int // departure timestep
}

// ReservationTable records which agent holds which space-time cell and
// edge. It is rebuilt from scratch at the start of every planning round
// and populated in priority order; entries are never mutated in place.
//
// Edge reservations are written in both directions of travel so a swap
// shows up as a collision regardless of which side queries it.
type ReservationTable struct {
	horizon  int
	vertices map[vertexKey]core.AgentID
	edges    map[edgeKey]core.AgentID
}

// NewReservationTable creates an empty table covering timesteps
// 0..horizon.
func NewReservationTable(horizon int) *ReservationTable {
	return &ReservationTable{
		horizon:  horizon,
		vertices: make(map[vertexKey]core.AgentID),
		edges:    make(map[edgeKey]core.AgentID),
	}
}

// Horizon returns the last timestep the table covers.
func (rt *ReservationTable) Horizon() int { return rt.horizon }

// Reserve inserts vertex and edge reservations for every state of the
// path, attributed to id. After the path ends the agent is parked at its
// destination, so the final cell is held through the horizon.
//
// A collision with a reservation held by a different agent returns a
// *ConflictError and indicates a priority-ordering defect in the caller.
func (rt *ReservationTable) Reserve(p core.Path, id core.AgentID) error {
	if len(p) == 0 {
		return nil
	}
	for i, s := range p {
		if err := rt.reserveVertex(s.Cell, s.T, id); err != nil {
			return err
		}
		if i > 0 && p[i-1].Cell != s.Cell {
			if err := rt.reserveEdge(p[i-1].Cell, s.Cell, p[i-1].T, id); err != nil {
				return err
			}
		}
	}
	end := p.End()
	for t := end.T + 1; t <= rt.horizon; t++ {
		if err := rt.reserveVertex(end.Cell, t, id); err != nil {
			return err
		}
	}
	return nil
}

// QueryVertex returns the agent holding the cell at timestep t, if any.
func (rt *ReservationTable) QueryVertex(c core.CellID, t int) (core.AgentID, bool) {
	id, ok := rt.vertices[vertexKey{Cell: c, T: t}]
	return id, ok
}

// QueryEdge returns the agent holding the from->to transition departing
// at timestep t, if any. Reservations cover both directions, so the
// reverse traversal reports the same holder.
func (rt *ReservationTable) QueryEdge(from, to core.CellID, t int) (core.AgentID, bool) {
	id, ok := rt.edges[edgeKey{From: from, To: to, T: t}]
	return id, ok
}

func (rt *ReservationTable) reserveVertex(c core.CellID, t int, id core.AgentID) error {
	k := vertexKey{Cell: c, T: t}
	if holder, ok := rt.vertices[k]; ok && holder != id {
		return &ConflictError{Cell: c, T: t, Holder: holder, Claimant: id}
	}
	rt.vertices[k] = id
	return nil
}

func (rt *ReservationTable) reserveEdge(from, to core.CellID, t int, id core.AgentID) error {
	for _, k := range [2]edgeKey{
		{From: from, To: to, T: t},
		{From: to, To: from, T: t},
	} {
		if holder, ok := rt.edges[k]; ok && holder != id {
			return &ConflictError{From: k.From, Cell: k.To, T: t, IsEdge: true, Holder: holder, Claimant: id}
		}
		rt.edges[k] = id
	}
	return nil
}
