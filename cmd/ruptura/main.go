package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/foodsys/ruptura/pkg/interfaces/cli/commands"
)

func main() {
	// Command line flags
	var (
		mode        = flag.String("mode", "scan", "Operation: scan, project, options, reschedule")
		scenarioDir = flag.String(
			"scenario",
			"",
			"Path to scenario directory containing CSV files",
		)
		configFile = flag.String("config", "", "Path to YAML configuration file (optional)")
		products   = flag.String("products", "", "Comma-separated product codes")
		line       = flag.String("line", "", "Production line for reschedule suggestions")
		orderFile  = flag.String("order", "", "Path to order lines CSV file")
		horizon    = flag.Int("horizon", 0, "Projection horizon in days (0 uses configured default)")
		format     = flag.String("format", "text", "Output format: text, json")
		verbose    = flag.Bool("verbose", false, "Enable verbose output")
		help       = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	// Create command configuration
	config := commands.Config{
		Mode:           *mode,
		ScenarioDir:    *scenarioDir,
		ConfigFile:     *configFile,
		Products:       *products,
		ProductionLine: *line,
		OrderFile:      *orderFile,
		HorizonDays:    *horizon,
		Format:         *format,
		Verbose:        *verbose,
		Help:           *help,
	}

	// Create and execute command
	cmd := commands.NewCommand(config)
	ctx := context.Background()

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
