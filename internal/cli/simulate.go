package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/fleetplan/internal/core"
	"github.com/elektrokombinacija/fleetplan/internal/grid"
	"github.com/elektrokombinacija/fleetplan/internal/order"
	"github.com/elektrokombinacija/fleetplan/internal/scenario"
	"github.com/elektrokombinacija/fleetplan/internal/sim"
	"github.com/elektrokombinacija/fleetplan/pkg/config"
)

var simulateFlags struct {
	scenarioPath string
	ticks        int
	rate         float64
	seed         int64
	agents       int
	horizon      int
	audit        bool
	dbPath       string
	metricsOut   string
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the discrete-tick fleet simulation",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		applySimulateDefaults(cfg)

		simCfg := sim.Config{
			Ticks:     simulateFlags.ticks,
			Horizon:   simulateFlags.horizon,
			OrderRate: simulateFlags.rate,
			Seed:      simulateFlags.seed,
			Audit:     simulateFlags.audit,
			Logger:    newLogger(cfg.LogLevel),
		}

		if simulateFlags.scenarioPath != "" {
			sc, err := scenario.Load(simulateFlags.scenarioPath)
			if err != nil {
				return err
			}
			floor, err := sc.FloorPlan()
			if err != nil {
				return err
			}
			simCfg.Floor = floor
			simCfg.Agents = sc.AgentSpecs(floor)
			simCfg.Scheduled = sc.ScheduledOrders()
			if sc.Ticks > 0 {
				simCfg.Ticks = sc.Ticks
			}
			if sc.Horizon > 0 {
				simCfg.Horizon = sc.Horizon
			}
			simCfg.OrderRate = sc.OrderRate
			simCfg.Seed = sc.Seed
		} else {
			floor, err := grid.NewFloor(grid.DefaultRooms)
			if err != nil {
				return err
			}
			specs, err := defaultFleet(floor, simulateFlags.agents)
			if err != nil {
				return err
			}
			simCfg.Floor = floor
			simCfg.Agents = specs
		}

		if simulateFlags.dbPath != "" {
			store, err := order.OpenStore(cmd.Context(), simulateFlags.dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			simCfg.Store = store
		}

		s, err := sim.New(simCfg)
		if err != nil {
			return err
		}

		metrics, err := s.Run(cmd.Context())
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(metrics, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))

		if simulateFlags.metricsOut != "" {
			return s.ExportMetrics(simulateFlags.metricsOut)
		}
		return nil
	},
}

// applySimulateDefaults fills in flags the user did not set from the
// environment config.
func applySimulateDefaults(cfg *config.Config) {
	if simulateFlags.ticks == 0 {
		simulateFlags.ticks = cfg.Ticks
	}
	if simulateFlags.rate < 0 {
		simulateFlags.rate = cfg.OrderRate
	}
	if simulateFlags.seed == 0 {
		simulateFlags.seed = cfg.Seed
	}
	if simulateFlags.agents == 0 {
		simulateFlags.agents = cfg.Agents
	}
	if simulateFlags.horizon == 0 {
		simulateFlags.horizon = cfg.Horizon
	}
	if simulateFlags.dbPath == "unset" {
		simulateFlags.dbPath = cfg.DBPath
	}
	if !simulateFlags.audit {
		simulateFlags.audit = cfg.Audit
	}
}

// defaultFleet spreads n agents over the corridor, rank by position.
func defaultFleet(f *grid.Floor, n int) ([]sim.AgentSpec, error) {
	if n < 1 || n > f.Width() {
		return nil, fmt.Errorf("fleet size %d does not fit a corridor of %d cells", n, f.Width())
	}
	specs := make([]sim.AgentSpec, 0, n)
	for i := 0; i < n; i++ {
		col := 0
		if n > 1 {
			col = i * (f.Width() - 1) / (n - 1)
		}
		specs = append(specs, sim.AgentSpec{
			ID:    core.AgentID(i + 1),
			Rank:  i + 1,
			Start: f.CorridorCell(col),
		})
	}
	return specs, nil
}

func init() {
	simulateCmd.Flags().StringVar(&simulateFlags.scenarioPath, "scenario", "", "scenario file to run (overrides fleet and order flags)")
	simulateCmd.Flags().IntVar(&simulateFlags.ticks, "ticks", 0, "number of ticks to simulate")
	simulateCmd.Flags().Float64Var(&simulateFlags.rate, "rate", -1, "order arrival probability per tick")
	simulateCmd.Flags().Int64Var(&simulateFlags.seed, "seed", 0, "random seed")
	simulateCmd.Flags().IntVar(&simulateFlags.agents, "agents", 0, "fleet size on the default floor")
	simulateCmd.Flags().IntVar(&simulateFlags.horizon, "horizon", 0, "planning horizon in timesteps")
	simulateCmd.Flags().BoolVar(&simulateFlags.audit, "audit", false, "cross-check the joint plan every tick")
	simulateCmd.Flags().StringVar(&simulateFlags.dbPath, "db", "unset", "order history database path (empty disables recording)")
	simulateCmd.Flags().StringVar(&simulateFlags.metricsOut, "metrics-out", "", "write run metrics to a JSON file")

	rootCmd.AddCommand(simulateCmd)
}
