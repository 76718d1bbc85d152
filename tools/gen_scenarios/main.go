// Package main generates deterministic simulation scenarios for
// fleetplan benchmarks and CLI runs.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/elektrokombinacija/fleetplan/internal/scenario"
)

// roomNames builds a floor of the given width: an intake room, lettered
// middle rooms, and an outbound room.
func roomNames(width int) []string {
	rooms := make([]string, 0, width)
	rooms = append(rooms, "in")
	for i := 0; i < width-2; i++ {
		rooms = append(rooms, string(rune('A'+i)))
	}
	rooms = append(rooms, "out")
	return rooms
}

// spreadAgents places n agents over the corridor at evenly spaced
// columns, rank by position.
func spreadAgents(width, n int) []scenario.Agent {
	agents := make([]scenario.Agent, 0, n)
	for i := 0; i < n; i++ {
		col := 0
		if n > 1 {
			col = i * (width - 1) / (n - 1)
		}
		agents = append(agents, scenario.Agent{ID: i + 1, Rank: i + 1, StartCol: col})
	}
	return agents
}

func generateScenario(seed int64, width, agents, ticks, orders int, rate float64, horizon int) *scenario.Scenario {
	rng := rand.New(rand.NewSource(seed))
	rooms := roomNames(width)

	sc := &scenario.Scenario{
		Name:      fmt.Sprintf("fleet_%da_%dr_%d", agents, width, seed),
		Rooms:     rooms,
		Agents:    spreadAgents(width, agents),
		Ticks:     ticks,
		OrderRate: rate,
		Seed:      seed,
		Horizon:   horizon,
		Generated: time.Now().UTC().Format(time.RFC3339),
	}

	for i := 0; i < orders; i++ {
		from := rng.Intn(len(rooms))
		to := rng.Intn(len(rooms) - 1)
		if to >= from {
			to++
		}
		sc.Orders = append(sc.Orders, scenario.Order{
			Tick: 1 + rng.Intn(ticks/2+1),
			From: rooms[from],
			To:   rooms[to],
		})
	}
	return sc
}

func main() {
	seed := flag.Int64("seed", 42, "Random seed for deterministic generation")
	width := flag.Int("width", 5, "Number of rooms (and corridor cells)")
	agents := flag.Int("agents", 2, "Fleet size")
	ticks := flag.Int("ticks", 300, "Simulated duration in ticks")
	orders := flag.Int("orders", 10, "Number of scheduled orders")
	rate := flag.Float64("rate", 0.1, "Random order probability per tick, on top of the schedule")
	horizon := flag.Int("horizon", 50, "Planning horizon in timesteps")
	outputDir := flag.String("output", "testdata", "Output directory")
	suite := flag.Bool("suite", false, "Generate a scaling suite (2, 3, 4 agents on widening floors)")

	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	var scenarios []*scenario.Scenario
	if *suite {
		for _, n := range []int{2, 3, 4} {
			w := *width
			if w < n+2 {
				w = n + 2
			}
			scenarios = append(scenarios, generateScenario(*seed, w, n, *ticks, *orders*n, *rate, *horizon))
		}
	} else {
		if *agents > *width {
			fmt.Fprintf(os.Stderr, "Fleet of %d does not fit a corridor of %d cells\n", *agents, *width)
			os.Exit(1)
		}
		scenarios = append(scenarios, generateScenario(*seed, *width, *agents, *ticks, *orders, *rate, *horizon))
	}

	for _, sc := range scenarios {
		if err := sc.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Generated invalid scenario %s: %v\n", sc.Name, err)
			os.Exit(1)
		}
		path := filepath.Join(*outputDir, sc.Name+".json")
		if err := sc.Save(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
			continue
		}
		fmt.Printf("Generated: %s (%d agents, %d rooms, %d scheduled orders)\n",
			path, len(sc.Agents), len(sc.Rooms), len(sc.Orders))
	}
}
