// Package main runs the fleet simulator over scenario files and
// collects per-run metrics.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/elektrokombinacija/fleetplan/internal/scenario"
	"github.com/elektrokombinacija/fleetplan/internal/sim"
)

// BenchmarkResult stores results from a single scenario run.
type BenchmarkResult struct {
	Timestamp       string
	GoVersion       string
	OS              string
	Arch            string
	Scenario        string
	NumAgents       int
	NumRooms        int
	Ticks           int
	RuntimeMs       float64
	Success         bool
	OrdersGenerated int
	OrdersCompleted int
	AvgLatency      float64
	PlanRounds      int
	PlanFailures    int
}

func runScenario(ctx context.Context, sc *scenario.Scenario, audit bool) (*BenchmarkResult, error) {
	result := &BenchmarkResult{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Scenario:  sc.Name,
		NumAgents: len(sc.Agents),
		NumRooms:  len(sc.Rooms),
	}

	floor, err := sc.FloorPlan()
	if err != nil {
		return nil, err
	}
	s, err := sim.New(sim.Config{
		Floor:     floor,
		Agents:    sc.AgentSpecs(floor),
		Scheduled: sc.ScheduledOrders(),
		Ticks:     sc.Ticks,
		Horizon:   sc.Horizon,
		OrderRate: sc.OrderRate,
		Seed:      sc.Seed,
		Audit:     audit,
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	metrics, err := s.Run(ctx)
	result.RuntimeMs = float64(time.Since(start).Microseconds()) / 1000.0
	result.Success = err == nil
	if err != nil {
		fmt.Fprintf(os.Stderr, "Run %s failed: %v\n", sc.Name, err)
	}

	result.Ticks = metrics.Ticks
	result.OrdersGenerated = metrics.OrdersGenerated
	result.OrdersCompleted = metrics.OrdersCompleted
	result.AvgLatency = metrics.AvgOrderLatency
	result.PlanRounds = metrics.PlanRounds
	result.PlanFailures = metrics.PlanFailures
	return result, nil
}

func writeCSV(results []*BenchmarkResult, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"timestamp", "go_version", "os", "arch",
		"scenario", "num_agents", "num_rooms", "ticks",
		"runtime_ms", "success", "orders_generated", "orders_completed",
		"avg_latency", "plan_rounds", "plan_failures",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{
			r.Timestamp, r.GoVersion, r.OS, r.Arch,
			r.Scenario, fmt.Sprintf("%d", r.NumAgents), fmt.Sprintf("%d", r.NumRooms),
			fmt.Sprintf("%d", r.Ticks),
			fmt.Sprintf("%.3f", r.RuntimeMs), fmt.Sprintf("%t", r.Success),
			fmt.Sprintf("%d", r.OrdersGenerated), fmt.Sprintf("%d", r.OrdersCompleted),
			fmt.Sprintf("%.3f", r.AvgLatency),
			fmt.Sprintf("%d", r.PlanRounds), fmt.Sprintf("%d", r.PlanFailures),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(results []*BenchmarkResult) {
	fmt.Println("\n=== BENCHMARK SUMMARY ===")
	fmt.Printf("%-24s %7s %7s %9s %9s %10s %12s\n",
		"Scenario", "Agents", "Orders", "Done", "AvgLat", "Rounds", "Runtime(ms)")
	for _, r := range results {
		fmt.Printf("%-24s %7d %7d %9d %9.2f %10d %12.2f\n",
			r.Scenario, r.NumAgents, r.OrdersGenerated, r.OrdersCompleted,
			r.AvgLatency, r.PlanRounds, r.RuntimeMs)
	}
}

func main() {
	inputDir := flag.String("input", "testdata", "Directory containing scenario JSON files")
	outputFile := flag.String("output", "evidence/benchmark_results.csv", "Output CSV file")
	audit := flag.Bool("audit", true, "Cross-check the joint plan every tick")

	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*outputFile), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	files, err := filepath.Glob(filepath.Join(*inputDir, "*.json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding scenario files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "No scenario files found in %s\n", *inputDir)
		fmt.Fprintf(os.Stderr, "Run gen_scenarios first: go run ./tools/gen_scenarios -suite -output %s\n", *inputDir)
		os.Exit(1)
	}

	ctx := context.Background()
	var results []*BenchmarkResult
	for i, file := range files {
		sc, err := scenario.Load(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", file, err)
			continue
		}

		fmt.Printf("[%d/%d] %s ... ", i+1, len(files), sc.Name)
		result, err := runScenario(ctx, sc, *audit)
		if err != nil {
			fmt.Printf("SKIPPED (%v)\n", err)
			continue
		}
		results = append(results, result)
		if result.Success {
			fmt.Printf("OK (%.2fms, %d/%d orders)\n",
				result.RuntimeMs, result.OrdersCompleted, result.OrdersGenerated)
		} else {
			fmt.Printf("FAILED\n")
		}
	}

	if err := writeCSV(results, *outputFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing results: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nResults written to: %s\n", *outputFile)

	printSummary(results)
}
