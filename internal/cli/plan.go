package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/fleetplan/internal/algo"
	"github.com/elektrokombinacija/fleetplan/internal/core"
	"github.com/elektrokombinacija/fleetplan/internal/grid"
	"github.com/elektrokombinacija/fleetplan/pkg/config"

	"github.com/elektrokombinacija/fleetplan/internal/scenario"
)

var planFlags struct {
	scenarioPath string
	horizon      int
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Run a single planning round from a scenario file",
	Long: `plan loads a scenario, runs one prioritized planning round for every
agent with a goal, and prints the resulting space-time paths. Agents
without a goal are treated as parked obstacles.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if planFlags.scenarioPath == "" {
			return fmt.Errorf("--scenario is required")
		}

		sc, err := scenario.Load(planFlags.scenarioPath)
		if err != nil {
			return err
		}
		floor, err := sc.FloorPlan()
		if err != nil {
			return err
		}
		goals := sc.Goals(floor)
		if len(goals) == 0 {
			return fmt.Errorf("scenario has no agent goals to plan")
		}

		horizon := planFlags.horizon
		if horizon == 0 {
			if sc.Horizon > 0 {
				horizon = sc.Horizon
			} else {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				horizon = cfg.Horizon
			}
		}

		agents := sc.FleetAgents(floor)
		planner := algo.NewPlanner(floor, horizon)
		outcomes, err := planner.PlanRound(agents, goals)
		if err != nil {
			return err
		}

		ids := make([]core.AgentID, 0, len(outcomes))
		for id := range outcomes {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		for _, id := range ids {
			out := outcomes[id]
			if out.Unreachable {
				fmt.Fprintf(cmd.OutOrStdout(), "agent %d: unreachable within horizon %d\n", id, horizon)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "agent %d (%d steps): %s\n",
				id, out.Path.Duration(), formatPath(floor, out.Path))
		}
		return nil
	},
}

func formatPath(f *grid.Floor, p core.Path) string {
	names := make([]string, 0, len(p))
	for _, s := range p {
		names = append(names, f.CellName(s.Cell))
	}
	return strings.Join(names, " -> ")
}

func init() {
	planCmd.Flags().StringVar(&planFlags.scenarioPath, "scenario", "", "scenario file with agents and goals")
	planCmd.Flags().IntVar(&planFlags.horizon, "horizon", 0, "planning horizon in timesteps")

	rootCmd.AddCommand(planCmd)
}
