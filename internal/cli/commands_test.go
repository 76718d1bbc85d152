package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/fleetplan/internal/scenario"
	"github.com/elektrokombinacija/fleetplan/internal/sim"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func writeScenario(t *testing.T, sc *scenario.Scenario) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.json")
	require.NoError(t, sc.Save(path))
	return path
}

func TestPlanCommand(t *testing.T) {
	path := writeScenario(t, &scenario.Scenario{
		Name:  "cli-plan",
		Rooms: []string{"in", "A", "B", "C", "out"},
		Agents: []scenario.Agent{
			{ID: 1, Rank: 1, StartCol: 0, Goal: "out"},
			{ID: 2, Rank: 2, StartCol: 4, Goal: "in"},
		},
		Horizon: 50,
	})

	out, err := runCLI(t, "plan", "--scenario", path)
	require.NoError(t, err)
	assert.Contains(t, out, "agent 1")
	assert.Contains(t, out, "agent 2")
	assert.Contains(t, out, "out")
	assert.NotContains(t, out, "unreachable")
}

func TestPlanCommandRequiresScenario(t *testing.T) {
	_, err := runCLI(t, "plan", "--scenario", "")
	assert.Error(t, err)
}

func TestSimulateCommandWithScenario(t *testing.T) {
	path := writeScenario(t, &scenario.Scenario{
		Name:  "cli-simulate",
		Rooms: []string{"in", "A", "B", "C", "out"},
		Agents: []scenario.Agent{
			{ID: 1, Rank: 1, StartCol: 0},
			{ID: 2, Rank: 2, StartCol: 4},
		},
		Orders: []scenario.Order{
			{Tick: 1, From: "A", To: "C"},
		},
		Ticks:   40,
		Seed:    7,
		Horizon: 50,
	})

	out, err := runCLI(t, "simulate", "--scenario", path, "--db", "", "--audit")
	require.NoError(t, err)

	var m sim.Metrics
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, 40, m.Ticks)
	assert.Equal(t, 1, m.OrdersGenerated)
	assert.Equal(t, 1, m.OrdersCompleted)
}
