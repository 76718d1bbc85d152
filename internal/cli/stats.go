package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/fleetplan/internal/order"
	"github.com/elektrokombinacija/fleetplan/pkg/config"
)

var statsFlags struct {
	dbPath string
	limit  int
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show completed-order history from the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := statsFlags.dbPath
		if dbPath == "" {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			dbPath = cfg.DBPath
		}

		store, err := order.OpenStore(cmd.Context(), dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		sum, err := store.Summarize(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "completed orders: %d\n", sum.Count)
		fmt.Fprintf(cmd.OutOrStdout(), "average latency:  %.1f ticks\n", sum.AvgLatency)

		if sum.Count == 0 || statsFlags.limit == 0 {
			return nil
		}

		recent, err := store.Recent(cmd.Context(), statsFlags.limit)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout())
		for _, o := range recent {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s -> %s  agent %d  t%d..t%d\n",
				o.ID, o.From, o.To, o.AssignedTo, o.RequestedAt, o.CompletedAt)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsFlags.dbPath, "db", "", "order history database path")
	statsCmd.Flags().IntVar(&statsFlags.limit, "limit", 10, "number of recent orders to list")

	rootCmd.AddCommand(statsCmd)
}
