package algo

import (
	"sort"

	"github.com/elektrokombinacija/fleetplan/internal/core"
)

// Conflict represents a collision between two committed paths.
type Conflict struct {
	A, B   core.AgentID
	Cell   core.CellID
	From   core.CellID // set for edge conflicts: the cell A departed
	T      int
	IsEdge bool
}

// sortedAgentIDs returns the path map's keys in ascending order so
// audits are reproducible.
func sortedAgentIDs(paths map[core.AgentID]core.Path) []core.AgentID {
	ids := make([]core.AgentID, 0, len(paths))
	for id := range paths {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func lastTimestep(paths map[core.AgentID]core.Path) int {
	maxT := 0
	for _, p := range paths {
		if len(p) > 0 && p.End().T > maxT {
			maxT = p.End().T
		}
	}
	return maxT
}

// FindFirstConflict returns the earliest vertex or swap conflict among
// the committed paths, or nil if the joint plan is collision-free.
// Agents are assumed parked at their final cell after their path ends.
func FindFirstConflict(paths map[core.AgentID]core.Path) *Conflict {
	ids := sortedAgentIDs(paths)
	maxT := lastTimestep(paths)

	for t := 0; t <= maxT; t++ {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				if c := conflictAt(ids[i], ids[j], paths[ids[i]], paths[ids[j]], t); c != nil {
					return c
				}
			}
		}
	}
	return nil
}

// FindAllConflicts returns every conflict among the committed paths in
// time order.
func FindAllConflicts(paths map[core.AgentID]core.Path) []*Conflict {
	ids := sortedAgentIDs(paths)
	maxT := lastTimestep(paths)

	var conflicts []*Conflict
	for t := 0; t <= maxT; t++ {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				if c := conflictAt(ids[i], ids[j], paths[ids[i]], paths[ids[j]], t); c != nil {
					conflicts = append(conflicts, c)
				}
			}
		}
	}
	return conflicts
}

// conflictAt checks one agent pair at timestep t: a vertex conflict at
// t, or a swap across the step t -> t+1.
func conflictAt(idA, idB core.AgentID, pa, pb core.Path, t int) *Conflict {
	posA, okA := pa.CellAt(t)
	posB, okB := pb.CellAt(t)
	if !okA || !okB {
		return nil
	}

	if posA == posB {
		return &Conflict{A: idA, B: idB, Cell: posA, T: t}
	}

	nextA, _ := pa.CellAt(t + 1)
	nextB, _ := pb.CellAt(t + 1)
	if posA != nextA && posA == nextB && posB == nextA {
		return &Conflict{A: idA, B: idB, Cell: nextA, From: posA, T: t, IsEdge: true}
	}
	return nil
}
