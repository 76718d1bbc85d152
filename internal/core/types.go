// Package core defines domain models for fleet path planning.
package core

// CellID is a unique identifier for a discrete location on the floor.
type CellID int

// AgentID is a unique robot identifier.
type AgentID int

// State is a position at a specific timestep.
type State struct {
	Cell CellID
	T    int
}

// Graph is the spatial topology consumed by the planner.
// Implementations supply adjacency and an admissible distance estimate.
type Graph interface {
	// Contains reports whether the cell exists on the floor.
	Contains(c CellID) bool

	// Neighbors returns every cell reachable in one move, including c
	// itself (waiting in place is always a move).
	Neighbors(c CellID) []CellID

	// DistanceEstimate returns a lower bound on the number of moves
	// from a to b.
	DistanceEstimate(a, b CellID) int
}
