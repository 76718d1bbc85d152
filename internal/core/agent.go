package core

// Agent is one robot in the fleet. Rank orders planning: lower rank
// plans first and never yields to higher ranks.
type Agent struct {
	ID   AgentID
	Rank int

	// Cell is the current position. Path, when set, is the committed
	// plan relative to the current tick: Path[0] is always (Cell, 0).
	Cell CellID
	Path Path
}

// Idle reports whether the agent has no committed movement left.
func (a *Agent) Idle() bool {
	return len(a.Path) <= 1
}
