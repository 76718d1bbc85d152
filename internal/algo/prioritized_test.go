package algo

import (
	"errors"
	"reflect"
	"testing"

	"github.com/elektrokombinacija/fleetplan/internal/core"
	"github.com/elektrokombinacija/fleetplan/internal/grid"
)

// corridorAgents is the head-on scenario: agent 1 (rank 1) crosses the
// corridor left to right, agent 2 (rank 2) right to left.
func corridorAgents(f *grid.Floor) []*core.Agent {
	return []*core.Agent{
		{ID: 1, Rank: 1, Cell: f.CorridorCell(0)},
		{ID: 2, Rank: 2, Cell: f.CorridorCell(4)},
	}
}

func TestPlanRoundHeadOnCorridor(t *testing.T) {
	f := testFloor(t)
	p := NewPlanner(f, DefaultHorizon)

	agents := corridorAgents(f)
	goals := map[core.AgentID]core.CellID{
		1: f.CorridorCell(4),
		2: f.CorridorCell(0),
	}

	outcomes, err := p.PlanRound(agents, goals)
	if err != nil {
		t.Fatalf("PlanRound: %v", err)
	}

	// The higher-priority agent gets the direct 4-step corridor path.
	first := outcomes[1]
	if first.Unreachable {
		t.Fatal("agent 1 should reach its goal")
	}
	wantDirect := core.Path{
		{Cell: f.CorridorCell(0), T: 0},
		{Cell: f.CorridorCell(1), T: 1},
		{Cell: f.CorridorCell(2), T: 2},
		{Cell: f.CorridorCell(3), T: 3},
		{Cell: f.CorridorCell(4), T: 4},
	}
	if !reflect.DeepEqual(first.Path, wantDirect) {
		t.Errorf("agent 1 path = %v, want direct corridor path", first.Path)
	}

	// The lower-priority agent has to yield, so its plan takes longer
	// than the unobstructed 4 steps.
	second := outcomes[2]
	if second.Unreachable {
		t.Fatal("agent 2 should reach its goal")
	}
	if second.Path.Duration() < 5 {
		t.Errorf("agent 2 duration = %d, expected at least 5 with a yield", second.Path.Duration())
	}
	if end := second.Path.End().Cell; end != f.CorridorCell(0) {
		t.Errorf("agent 2 ends at %d, want corridor-0", end)
	}

	// The joint plan is collision-free.
	if c := FindFirstConflict(map[core.AgentID]core.Path{1: first.Path, 2: second.Path}); c != nil {
		t.Errorf("joint plan has conflict: %+v", c)
	}

	// Paths are committed to the agents.
	if !reflect.DeepEqual(agents[0].Path, first.Path) || !reflect.DeepEqual(agents[1].Path, second.Path) {
		t.Error("outcomes not committed to agents")
	}
}

func TestPlanRoundPrioritySoundness(t *testing.T) {
	f := testFloor(t)
	p := NewPlanner(f, DefaultHorizon)

	goals := map[core.AgentID]core.CellID{
		1: f.CorridorCell(4),
		2: f.CorridorCell(0),
	}

	together, err := p.PlanRound(corridorAgents(f), goals)
	if err != nil {
		t.Fatalf("PlanRound together: %v", err)
	}

	alone, err := p.PlanRound(
		[]*core.Agent{{ID: 1, Rank: 1, Cell: f.CorridorCell(0)}},
		map[core.AgentID]core.CellID{1: f.CorridorCell(4)},
	)
	if err != nil {
		t.Fatalf("PlanRound alone: %v", err)
	}

	// The lower-priority agent never forces the higher-priority one to
	// deviate: agent 1 plans the same path with or without agent 2.
	if !reflect.DeepEqual(together[1].Path, alone[1].Path) {
		t.Errorf("agent 1 deviated because of agent 2: %v vs %v", together[1].Path, alone[1].Path)
	}
}

func TestPlanRoundDeterministic(t *testing.T) {
	f := testFloor(t)
	p := NewPlanner(f, DefaultHorizon)

	goals := map[core.AgentID]core.CellID{
		1: f.CorridorCell(4),
		2: f.CorridorCell(0),
	}

	first, err := p.PlanRound(corridorAgents(f), goals)
	if err != nil {
		t.Fatalf("PlanRound: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := p.PlanRound(corridorAgents(f), goals)
		if err != nil {
			t.Fatalf("PlanRound run %d: %v", i, err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d produced different outcomes", i)
		}
	}
}

func TestPlanRoundUnreachableWithinHorizon(t *testing.T) {
	f := testFloor(t)
	p := NewPlanner(f, 2) // required distance is 4

	agent := &core.Agent{ID: 1, Rank: 1, Cell: f.CorridorCell(0)}
	outcomes, err := p.PlanRound(
		[]*core.Agent{agent},
		map[core.AgentID]core.CellID{1: f.CorridorCell(4)},
	)
	if err != nil {
		t.Fatalf("PlanRound: %v", err)
	}

	out := outcomes[1]
	if !out.Unreachable || out.Path != nil {
		t.Errorf("expected unreachable outcome, got %+v", out)
	}
	if agent.Path != nil {
		t.Errorf("failed agent should stay idle, has path %v", agent.Path)
	}
}

func TestPlanRoundFailedAgentDoesNotBlockOthers(t *testing.T) {
	f := testFloor(t)
	p := NewPlanner(f, 3)

	// Agent 1 cannot make it across in 3 steps; agent 2's short hop
	// still plans.
	agents := []*core.Agent{
		{ID: 1, Rank: 1, Cell: f.CorridorCell(0)},
		{ID: 2, Rank: 2, Cell: f.CorridorCell(3)},
	}
	outcomes, err := p.PlanRound(agents, map[core.AgentID]core.CellID{
		1: f.CorridorCell(4),
		2: f.CorridorCell(4),
	})
	if err != nil {
		t.Fatalf("PlanRound: %v", err)
	}

	if !outcomes[1].Unreachable {
		t.Error("agent 1 should be unreachable with horizon 3")
	}
	if outcomes[2].Unreachable {
		t.Error("agent 2 should still get a path")
	}
}

func TestPlanRoundSharedGoalYieldsToRank(t *testing.T) {
	f := testFloor(t)
	p := NewPlanner(f, DefaultHorizon)

	// Both agents want corridor-4. The higher-priority agent takes it
	// and holds it through the horizon, so the other must come out
	// unreachable rather than trip a conflict.
	agents := corridorAgents(f)
	outcomes, err := p.PlanRound(agents, map[core.AgentID]core.CellID{
		1: f.CorridorCell(4),
		2: f.CorridorCell(4),
	})
	if err != nil {
		t.Fatalf("PlanRound: %v", err)
	}

	if outcomes[1].Unreachable {
		t.Error("agent 1 should win the shared goal")
	}
	if !outcomes[2].Unreachable {
		t.Errorf("agent 2 should be unreachable, got path %v", outcomes[2].Path)
	}
}

func TestPlanRoundFixedAgentsAreObstacles(t *testing.T) {
	f := testFloor(t)
	p := NewPlanner(f, DefaultHorizon)

	// Agent 9 is fixed and idle, parked mid-corridor; it has no goal
	// this round so its cell is immovable.
	parked := &core.Agent{ID: 9, Rank: 0, Cell: f.CorridorCell(2)}
	mover := &core.Agent{ID: 1, Rank: 1, Cell: f.CorridorCell(0)}

	outcomes, err := p.PlanRound(
		[]*core.Agent{parked, mover},
		map[core.AgentID]core.CellID{1: f.CorridorCell(4)},
	)
	if err != nil {
		t.Fatalf("PlanRound: %v", err)
	}

	path := outcomes[1].Path
	if path == nil {
		t.Fatal("expected a path for agent 1")
	}
	for _, s := range path {
		if s.Cell == f.CorridorCell(2) {
			t.Errorf("agent 1 drives through the parked agent at t=%d", s.T)
		}
	}
	if _, planned := outcomes[9]; planned {
		t.Error("fixed agent should not appear in outcomes")
	}
}

func TestPlanRoundFixedCommittedPathHeld(t *testing.T) {
	f := testFloor(t)
	p := NewPlanner(f, DefaultHorizon)

	// Agent 9 is mid-plan, sweeping right to left. Agent 1 plans around
	// that committed path without disturbing it.
	committed := core.Path{
		{Cell: f.CorridorCell(4), T: 0},
		{Cell: f.CorridorCell(3), T: 1},
		{Cell: f.CorridorCell(2), T: 2},
		{Cell: f.CorridorCell(1), T: 3},
		{Cell: f.CorridorCell(0), T: 4},
	}
	busy := &core.Agent{ID: 9, Rank: 0, Cell: f.CorridorCell(4), Path: committed}
	mover := &core.Agent{ID: 1, Rank: 1, Cell: f.CorridorCell(0)}

	outcomes, err := p.PlanRound(
		[]*core.Agent{busy, mover},
		map[core.AgentID]core.CellID{1: f.CorridorCell(4)},
	)
	if err != nil {
		t.Fatalf("PlanRound: %v", err)
	}

	if !reflect.DeepEqual(busy.Path, committed) {
		t.Error("fixed agent's committed path was modified")
	}
	joint := map[core.AgentID]core.Path{9: committed, 1: outcomes[1].Path}
	if c := FindFirstConflict(joint); c != nil {
		t.Errorf("plan conflicts with fixed path: %+v", c)
	}
}

func TestPlanRoundInvalidConfiguration(t *testing.T) {
	f := testFloor(t)
	p := NewPlanner(f, DefaultHorizon)

	tests := []struct {
		name   string
		agents []*core.Agent
		goals  map[core.AgentID]core.CellID
	}{
		{
			name: "duplicate ranks",
			agents: []*core.Agent{
				{ID: 1, Rank: 1, Cell: f.CorridorCell(0)},
				{ID: 2, Rank: 1, Cell: f.CorridorCell(4)},
			},
			goals: map[core.AgentID]core.CellID{1: f.CorridorCell(4)},
		},
		{
			name:   "negative rank",
			agents: []*core.Agent{{ID: 1, Rank: -1, Cell: f.CorridorCell(0)}},
			goals:  map[core.AgentID]core.CellID{1: f.CorridorCell(4)},
		},
		{
			name: "duplicate agent ids",
			agents: []*core.Agent{
				{ID: 1, Rank: 1, Cell: f.CorridorCell(0)},
				{ID: 1, Rank: 2, Cell: f.CorridorCell(4)},
			},
			goals: map[core.AgentID]core.CellID{1: f.CorridorCell(4)},
		},
		{
			name:   "goal off the floor",
			agents: []*core.Agent{{ID: 1, Rank: 1, Cell: f.CorridorCell(0)}},
			goals:  map[core.AgentID]core.CellID{1: core.CellID(99)},
		},
		{
			name:   "goal for unknown agent",
			agents: []*core.Agent{{ID: 1, Rank: 1, Cell: f.CorridorCell(0)}},
			goals:  map[core.AgentID]core.CellID{7: f.CorridorCell(4)},
		},
		{
			name:   "agent off the floor",
			agents: []*core.Agent{{ID: 1, Rank: 1, Cell: core.CellID(99)}},
			goals:  map[core.AgentID]core.CellID{1: f.CorridorCell(4)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.PlanRound(tt.agents, tt.goals)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestPlanRoundPathsConform(t *testing.T) {
	f := testFloor(t)
	p := NewPlanner(f, DefaultHorizon)

	outcomes, err := p.PlanRound(corridorAgents(f), map[core.AgentID]core.CellID{
		1: f.CorridorCell(4),
		2: f.CorridorCell(0),
	})
	if err != nil {
		t.Fatalf("PlanRound: %v", err)
	}

	for id, out := range outcomes {
		if out.Unreachable {
			continue
		}
		if !out.Path.Conforms(f) {
			t.Errorf("agent %d path is not traversable: %v", id, out.Path)
		}
	}
}
