package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/fleetplan/internal/core"
	"github.com/elektrokombinacija/fleetplan/internal/grid"
	"github.com/elektrokombinacija/fleetplan/internal/order"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	f, err := grid.NewFloor(grid.DefaultRooms)
	require.NoError(t, err)
	return Config{
		Floor: f,
		Agents: []AgentSpec{
			{ID: 1, Rank: 1, Start: f.CorridorCell(0)},
			{ID: 2, Rank: 2, Start: f.CorridorCell(4)},
		},
		Ticks:     100,
		OrderRate: 0, // tests inject orders explicitly
		Seed:      42,
		Audit:     true,
	}
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := testConfig(t)

	bad := cfg
	bad.Floor = nil
	_, err := New(bad)
	assert.Error(t, err)

	bad = cfg
	bad.Agents = nil
	_, err = New(bad)
	assert.Error(t, err)

	bad = cfg
	bad.Agents = []AgentSpec{
		{ID: 1, Rank: 1, Start: cfg.Floor.CorridorCell(0)},
		{ID: 2, Rank: 2, Start: cfg.Floor.CorridorCell(0)},
	}
	_, err = New(bad)
	assert.Error(t, err, "shared start cell must be rejected")

	bad = cfg
	bad.OrderRate = 1.5
	_, err = New(bad)
	assert.Error(t, err)
}

func TestSingleOrderDelivered(t *testing.T) {
	cfg := testConfig(t)
	s, err := New(cfg)
	require.NoError(t, err)

	_, err = s.Orders().Add("A", "C", 0)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 30 && s.Metrics().OrdersCompleted == 0; i++ {
		require.NoError(t, s.Step(ctx))
	}

	m := s.Metrics()
	assert.Equal(t, 1, m.OrdersCompleted, "order should complete within 30 ticks")
	assert.Equal(t, 1, m.OrdersAssigned)
	assert.GreaterOrEqual(t, m.PlanRounds, 2, "pickup and delivery legs each need a round")

	// The carrier ends parked in room C.
	roomC, _ := cfg.Floor.RoomCell("C")
	var carrier *core.Agent
	for _, a := range s.Agents() {
		if a.Cell == roomC {
			carrier = a
		}
	}
	require.NotNil(t, carrier, "an agent should be parked in room C")
	assert.True(t, carrier.Idle())
}

func TestClosestAgentGetsTheOrder(t *testing.T) {
	cfg := testConfig(t)
	s, err := New(cfg)
	require.NoError(t, err)

	// Pickup at room "out" (column 4): agent 2 starts right under it.
	_, err = s.Orders().Add("out", "in", 0)
	require.NoError(t, err)

	require.NoError(t, s.Step(context.Background()))

	assert.NotNil(t, s.Orders().ByAgent(2))
	assert.Nil(t, s.Orders().ByAgent(1))
}

func TestCrossingOrdersStayCollisionFree(t *testing.T) {
	cfg := testConfig(t)
	s, err := New(cfg)
	require.NoError(t, err)

	// Orders that send the two agents through each other head-on. The
	// audit in every Step fails the test on any vertex or swap
	// conflict.
	_, err = s.Orders().Add("in", "out", 0)
	require.NoError(t, err)
	_, err = s.Orders().Add("out", "in", 0)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 60 && s.Metrics().OrdersCompleted < 2; i++ {
		require.NoError(t, s.Step(ctx))
	}

	m := s.Metrics()
	assert.Equal(t, 2, m.OrdersCompleted, "both crossing orders should complete")
}

func TestStandoffResolvedByRelocation(t *testing.T) {
	f, err := grid.NewFloor(grid.DefaultRooms)
	require.NoError(t, err)
	roomA, _ := f.RoomCell("A")
	roomC, _ := f.RoomCell("C")

	cfg := Config{
		Floor: f,
		Agents: []AgentSpec{
			{ID: 1, Rank: 1, Start: roomA},
			{ID: 2, Rank: 2, Start: roomC},
		},
		Ticks: 30,
		Seed:  1,
		Audit: true,
	}
	s, err := New(cfg)
	require.NoError(t, err)

	// Each agent is headed for the room the other is parked in. Neither
	// goal is reachable until one steps aside.
	s.queues[1] = []core.CellID{roomC}
	s.queues[2] = []core.CellID{roomA}

	ctx := context.Background()
	for i := 0; i < 30; i++ {
		require.NoError(t, s.Step(ctx))
		if len(s.queues[1]) == 0 && len(s.queues[2]) == 0 &&
			s.agents[0].Idle() && s.agents[1].Idle() {
			break
		}
	}

	assert.Equal(t, roomC, s.agents[0].Cell, "agent 1 should end in room C")
	assert.Equal(t, roomA, s.agents[1].Cell, "agent 2 should end in room A")
	assert.Empty(t, s.queues[1])
	assert.Empty(t, s.queues[2])
	assert.Positive(t, s.Metrics().PlanFailures, "the standoff shows up as retried rounds")
}

func TestRandomTrafficRunsClean(t *testing.T) {
	cfg := testConfig(t)
	cfg.OrderRate = 0.3
	cfg.Ticks = 200
	s, err := New(cfg)
	require.NoError(t, err)

	m, err := s.Run(context.Background())
	require.NoError(t, err, "audited run must stay conflict-free")
	assert.Equal(t, 200, m.Ticks)
	assert.Positive(t, m.OrdersGenerated)
	assert.Positive(t, m.OrdersCompleted)
}

func TestRunIsDeterministic(t *testing.T) {
	run := func() Metrics {
		cfg := testConfig(t)
		cfg.OrderRate = 0.25
		cfg.Ticks = 150
		s, err := New(cfg)
		require.NoError(t, err)
		m, err := s.Run(context.Background())
		require.NoError(t, err)
		return m
	}

	assert.Equal(t, run(), run(), "same seed must reproduce the same run")
}

func TestCompletedOrdersRecorded(t *testing.T) {
	ctx := context.Background()
	store, err := order.OpenStore(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	cfg := testConfig(t)
	cfg.Store = store
	s, err := New(cfg)
	require.NoError(t, err)

	_, err = s.Orders().Add("A", "B", 0)
	require.NoError(t, err)

	for i := 0; i < 30 && s.Metrics().OrdersCompleted == 0; i++ {
		require.NoError(t, s.Step(ctx))
	}
	require.Equal(t, 1, s.Metrics().OrdersCompleted)

	sum, err := store.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Count)
}

func TestRunHonorsContext(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ticks = 1000
	s, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
