package core

import "testing"

// lineGraph is a 1D corridor for testing path helpers.
type lineGraph struct{ n int }

func (g lineGraph) Contains(c CellID) bool { return c >= 0 && int(c) < g.n }

func (g lineGraph) Neighbors(c CellID) []CellID {
	out := []CellID{c}
	if c > 0 {
		out = append(out, c-1)
	}
	if int(c) < g.n-1 {
		out = append(out, c+1)
	}
	return out
}

func (g lineGraph) DistanceEstimate(a, b CellID) int {
	d := int(a - b)
	if d < 0 {
		d = -d
	}
	return d
}

func TestPathCellAt(t *testing.T) {
	p := Path{{Cell: 0, T: 0}, {Cell: 1, T: 1}, {Cell: 2, T: 2}}

	tests := []struct {
		t    int
		want CellID
	}{
		{-1, 0}, // before start: start cell
		{0, 0},
		{1, 1},
		{2, 2},
		{10, 2}, // parked at destination
	}

	for _, tt := range tests {
		got, ok := p.CellAt(tt.t)
		if !ok || got != tt.want {
			t.Errorf("CellAt(%d) = %d, %v, want %d", tt.t, got, ok, tt.want)
		}
	}

	if _, ok := Path(nil).CellAt(0); ok {
		t.Error("CellAt on empty path should report not ok")
	}
}

func TestPathAdvance(t *testing.T) {
	p := Path{{Cell: 0, T: 0}, {Cell: 1, T: 1}, {Cell: 2, T: 2}}

	p = p.Advance()
	if len(p) != 2 || p[0] != (State{Cell: 1, T: 0}) || p[1] != (State{Cell: 2, T: 1}) {
		t.Errorf("after Advance: %v", p)
	}

	p = p.Advance()
	p = p.Advance()
	if p != nil {
		t.Errorf("exhausted path should be nil, got %v", p)
	}
}

func TestPathConforms(t *testing.T) {
	g := lineGraph{n: 5}

	good := Path{{Cell: 0, T: 0}, {Cell: 1, T: 1}, {Cell: 1, T: 2}, {Cell: 2, T: 3}}
	if !good.Conforms(g) {
		t.Error("expected path with move and wait steps to conform")
	}

	skip := Path{{Cell: 0, T: 0}, {Cell: 2, T: 1}}
	if skip.Conforms(g) {
		t.Error("path jumping over a cell should not conform")
	}

	gap := Path{{Cell: 0, T: 0}, {Cell: 1, T: 2}}
	if gap.Conforms(g) {
		t.Error("path with a timestep gap should not conform")
	}
}

func TestAgentIdle(t *testing.T) {
	a := &Agent{ID: 1, Rank: 1, Cell: 3}
	if !a.Idle() {
		t.Error("agent without a path should be idle")
	}

	a.Path = Path{{Cell: 3, T: 0}, {Cell: 4, T: 1}}
	if a.Idle() {
		t.Error("agent mid-plan should not be idle")
	}

	a.Path = Path{{Cell: 4, T: 0}}
	if !a.Idle() {
		t.Error("agent with only its current state left should be idle")
	}
}
