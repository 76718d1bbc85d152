// Package algo implements prioritized space-time path planning.
package algo

import (
	"container/heap"

	"github.com/elektrokombinacija/fleetplan/internal/core"
)

// DefaultHorizon is the maximum timestep the search explores when no
// explicit horizon is configured. It bounds worst-case search effort
// when an agent is boxed in by higher-priority traffic.
const DefaultHorizon = 50

// searchState identifies a (cell, timestep) node in the search space.
type searchState struct {
	Cell core.CellID
	T    int
}

// searchNode for the frontier.
type searchNode struct {
	state  searchState
	g      int // cost so far, one per step (wait included)
	f      int // g + heuristic
	seq    int // insertion order, breaks f ties deterministically
	parent *searchNode
	index  int // heap index
}

// searchHeap implements heap.Interface. Equal-f nodes pop in insertion
// order so identical inputs always produce identical paths.
type searchHeap []*searchNode

func (h searchHeap) Len() int { return len(h) }
func (h searchHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].seq < h[j].seq
}
func (h searchHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *searchHeap) Push(x any) {
	n := x.(*searchNode)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *searchHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// SpaceTimeAStar finds the shortest-duration collision-free path for
// one agent from start to goal, beginning at startTime. The reservation
// table holds the committed intentions of higher-priority agents;
// states that would collide with them are never generated. The goal is
// accepted the moment it is discovered, provided the agent can then sit
// on it unreserved through the horizon. An arrival that a later
// reservation would run over is not an arrival; the search keeps
// looking for a later one.
//
// Returns ErrNoPathFound when the horizon is exhausted first.
func SpaceTimeAStar(
	g core.Graph,
	self core.AgentID,
	start, goal core.CellID,
	startTime, horizon int,
	rt *ReservationTable,
) (core.Path, error) {
	open := &searchHeap{}
	heap.Init(open)

	seq := 0
	heap.Push(open, &searchNode{
		state: searchState{Cell: start, T: startTime},
		g:     0,
		f:     g.DistanceEstimate(start, goal),
	})

	visited := make(map[searchState]bool)

	for open.Len() > 0 {
		current := heap.Pop(open).(*searchNode)

		if current.state.Cell == goal && holdFree(rt, self, goal, current.state.T, horizon) {
			return reconstructPath(current), nil
		}

		if visited[current.state] {
			continue
		}
		visited[current.state] = true

		if current.state.T >= horizon {
			continue
		}

		nextT := current.state.T + 1
		for _, next := range g.Neighbors(current.state.Cell) {
			if blockedVertex(rt, self, next, nextT) {
				continue
			}
			if next != current.state.Cell && blockedEdge(rt, self, current.state.Cell, next, current.state.T) {
				continue
			}

			nextState := searchState{Cell: next, T: nextT}
			if visited[nextState] {
				continue
			}

			seq++
			stepG := current.g + 1
			heap.Push(open, &searchNode{
				state:  nextState,
				g:      stepG,
				f:      stepG + g.DistanceEstimate(next, goal),
				seq:    seq,
				parent: current,
			})
		}
	}

	return nil, ErrNoPathFound
}

func blockedVertex(rt *ReservationTable, self core.AgentID, c core.CellID, t int) bool {
	if rt == nil {
		return false
	}
	holder, ok := rt.QueryVertex(c, t)
	return ok && holder != self
}

func blockedEdge(rt *ReservationTable, self core.AgentID, from, to core.CellID, t int) bool {
	if rt == nil {
		return false
	}
	holder, ok := rt.QueryEdge(from, to, t)
	return ok && holder != self
}

// holdFree reports whether the cell stays unreserved by other agents at
// every timestep from t through the horizon. Committing a path implies
// parking on its last cell until the horizon, so a goal state is only
// usable when that parking slot is clear.
func holdFree(rt *ReservationTable, self core.AgentID, c core.CellID, t, horizon int) bool {
	if rt == nil {
		return true
	}
	for ; t <= horizon; t++ {
		if holder, ok := rt.QueryVertex(c, t); ok && holder != self {
			return false
		}
	}
	return true
}

func reconstructPath(node *searchNode) core.Path {
	var path core.Path
	for n := node; n != nil; n = n.parent {
		path = append(core.Path{{Cell: n.state.Cell, T: n.state.T}}, path...)
	}
	return path
}
