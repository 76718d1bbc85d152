package core

// Path is a sequence of states one timestep apart. A committed path
// means the agent occupies path[i].Cell at time path[i].T and parks on
// the final cell afterwards.
type Path []State

// End returns the final state. Panics on an empty path.
func (p Path) End() State {
	return p[len(p)-1]
}

// Duration returns the number of timesteps the path spans.
func (p Path) Duration() int {
	if len(p) == 0 {
		return 0
	}
	return p.End().T - p[0].T
}

// CellAt returns the cell occupied at time t. Before the first state it
// reports the start cell, after the last it reports the destination
// (the agent is parked there). Reports false only for an empty path.
func (p Path) CellAt(t int) (CellID, bool) {
	if len(p) == 0 {
		return 0, false
	}
	if t <= p[0].T {
		return p[0].Cell, true
	}
	if last := p.End(); t >= last.T {
		return last.Cell, true
	}
	for _, s := range p {
		if s.T == t {
			return s.Cell, true
		}
	}
	return 0, false
}

// Advance drops the first state and shifts the rest one timestep
// earlier, re-basing the path on the next tick. Returns nil once the
// path is spent.
func (p Path) Advance() Path {
	if len(p) <= 1 {
		return nil
	}
	next := make(Path, len(p)-1)
	for i, s := range p[1:] {
		next[i] = State{Cell: s.Cell, T: s.T - 1}
	}
	return next
}

// Conforms reports whether the path is traversable on the graph:
// every cell exists, timesteps increase by exactly one, and each step
// moves to a neighbor (waiting included).
func (p Path) Conforms(g Graph) bool {
	for i, s := range p {
		if !g.Contains(s.Cell) {
			return false
		}
		if i == 0 {
			continue
		}
		prev := p[i-1]
		if s.T != prev.T+1 {
			return false
		}
		legal := false
		for _, n := range g.Neighbors(prev.Cell) {
			if n == s.Cell {
				legal = true
				break
			}
		}
		if !legal {
			return false
		}
	}
	return true
}
