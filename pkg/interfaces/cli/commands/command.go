// Package commands wires the projection engine to the CLI: it loads a CSV
// scenario into the in-memory store, builds the services from the
// configuration and runs the requested operation.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"

	"github.com/foodsys/ruptura/pkg/application/services/fulfillment"
	"github.com/foodsys/ruptura/pkg/application/services/projection"
	"github.com/foodsys/ruptura/pkg/application/services/reschedule"
	"github.com/foodsys/ruptura/pkg/application/services/scan"
	"github.com/foodsys/ruptura/pkg/domain/entities"
	"github.com/foodsys/ruptura/pkg/domain/services"
	"github.com/foodsys/ruptura/pkg/infrastructure/config"
	"github.com/foodsys/ruptura/pkg/infrastructure/metrics"
	"github.com/foodsys/ruptura/pkg/infrastructure/repositories/csv"
	"github.com/foodsys/ruptura/pkg/infrastructure/repositories/memory"
	"github.com/foodsys/ruptura/pkg/interfaces/cli/output"
)

// Config holds configuration for the ruptura command
type Config struct {
	Mode           string
	ScenarioDir    string
	ConfigFile     string
	Products       string
	ProductionLine string
	OrderFile      string
	HorizonDays    int
	Format         string
	Verbose        bool
	Help           bool
}

// Command executes one engine operation against a CSV scenario
type Command struct {
	config Config
	logger *slog.Logger
}

// NewCommand creates a command with the given configuration
func NewCommand(cfg Config) *Command {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return &Command{config: cfg, logger: logger}
}

// Execute runs the configured mode
func (c *Command) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}
	if c.config.ScenarioDir == "" {
		return fmt.Errorf("a scenario directory is required (-scenario)")
	}

	engineCfg := config.Default()
	if c.config.ConfigFile != "" {
		loaded, err := config.Load(c.config.ConfigFile)
		if err != nil {
			return err
		}
		engineCfg = loaded
	}
	if c.config.HorizonDays > 0 {
		engineCfg.HorizonDays = c.config.HorizonDays
	}

	if c.config.Verbose {
		fmt.Println("📂 Loading scenario data...")
	}
	store, err := csv.NewLoader().LoadScenario(c.config.ScenarioDir)
	if err != nil {
		return fmt.Errorf("error loading scenario: %w", err)
	}

	engine := projection.NewEngine(
		store, store, store.DemandSource(), store.SupplySource(),
		projection.WithLogger(c.logger),
	)

	switch c.config.Mode {
	case "scan":
		return c.runScan(ctx, engine, engineCfg)
	case "project":
		return c.runProject(ctx, engine, engineCfg)
	case "options":
		return c.runOptions(ctx, engine, engineCfg)
	case "reschedule":
		return c.runReschedule(ctx, engine, store, engineCfg)
	default:
		return fmt.Errorf("unknown mode %q (want scan, project, options or reschedule)", c.config.Mode)
	}
}

func (c *Command) runScan(ctx context.Context, engine *projection.Engine, cfg config.Config) error {
	codes := c.productList()
	if len(codes) == 0 {
		return fmt.Errorf("scan mode needs -products with a comma-separated code list")
	}

	classifier := services.NewRuptureClassifier(cfg.Thresholds)
	opts := []scan.Option{
		scan.WithLogger(c.logger),
		scan.WithMetrics(metrics.NewScan(prometheus.DefaultRegisterer)),
	}
	if c.config.Verbose {
		bar := progressbar.Default(int64(len(codes)), "scanning catalog")
		defer func() { _ = bar.Finish() }()
		opts = append(opts, scan.WithItemObserver(func(entities.ProductCode) {
			_ = bar.Add(1)
		}))
	}
	scheduler := scan.NewScheduler(engine, classifier, cfg.MaxConcurrency, cfg.PerItemTimeout, opts...)

	report, err := scheduler.ScanCatalog(ctx, codes, cfg.HorizonDays)
	if err != nil && report == nil {
		return err
	}
	if renderErr := output.RenderScan(report, c.outputConfig()); renderErr != nil {
		return renderErr
	}
	return err
}

func (c *Command) runProject(ctx context.Context, engine *projection.Engine, cfg config.Config) error {
	codes := c.productList()
	if len(codes) != 1 {
		return fmt.Errorf("project mode needs exactly one product in -products")
	}
	result, err := engine.Project(ctx, codes[0], cfg.HorizonDays)
	if err != nil {
		return err
	}
	return output.RenderProjection(result, c.outputConfig())
}

func (c *Command) runOptions(ctx context.Context, engine *projection.Engine, cfg config.Config) error {
	if c.config.OrderFile == "" {
		return fmt.Errorf("options mode needs -order with an order lines CSV")
	}
	lines, err := csv.NewLoader().LoadOrderLines(c.config.OrderFile)
	if err != nil {
		return err
	}
	generator := fulfillment.NewGenerator(engine,
		services.NewOrderRiskClassifier(cfg.Thresholds),
		fulfillment.WithLogger(c.logger))

	options, err := generator.GenerateOptions(ctx, lines, cfg.HorizonDays)
	if err != nil {
		return err
	}
	if err := output.RenderOptions(options, c.outputConfig()); err != nil {
		return err
	}

	risk, err := generator.AssessOrder(ctx, lines, cfg.HorizonDays)
	if err != nil {
		return err
	}
	if c.config.Format == "text" {
		fmt.Printf("\nOrder risk: %s (%d/%d lines affected, %s%% of value)\n",
			risk.Level, risk.AffectedLines, risk.TotalLines, risk.PctAtRisk.StringFixed(1))
	}
	return nil
}

func (c *Command) runReschedule(ctx context.Context, engine *projection.Engine, store *memory.Store, cfg config.Config) error {
	codes := c.productList()
	if len(codes) != 1 {
		return fmt.Errorf("reschedule mode needs exactly one product in -products")
	}
	if c.config.ProductionLine == "" {
		return fmt.Errorf("reschedule mode needs -line with a production line id")
	}
	advisor := reschedule.NewAdvisor(engine, store, store,
		reschedule.WithDefaultCapacity(cfg.DefaultCapacityQty),
		reschedule.WithLogger(c.logger))

	options, err := advisor.SuggestReschedule(ctx, codes[0], c.config.ProductionLine, cfg.HorizonDays)
	if err != nil {
		return err
	}
	return output.RenderReschedule(options, c.outputConfig())
}

func (c *Command) productList() []entities.ProductCode {
	var codes []entities.ProductCode
	for _, part := range strings.Split(c.config.Products, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			codes = append(codes, entities.ProductCode(part))
		}
	}
	return codes
}

func (c *Command) outputConfig() output.Config {
	return output.Config{Format: c.config.Format, Verbose: c.config.Verbose}
}

func (c *Command) showHelp() {
	fmt.Println(`ruptura - inventory projection and stockout resolution

Usage:
  ruptura -mode scan -scenario DIR -products P1,P2,...
  ruptura -mode project -scenario DIR -products P1 [-horizon N]
  ruptura -mode options -scenario DIR -order order.csv
  ruptura -mode reschedule -scenario DIR -products P1 -line LINE

Scenario directory files:
  movements.csv    product_code,quantity,active,moved_on
  commitments.csv  product_code,order_ref,source,quantity,unit_price,due_on
  supply.csv       product_code,production_line,quantity,scheduled_on
  aliases.csv      product_code,group_id (optional)

Flags:
  -mode       scan | project | options | reschedule
  -scenario   scenario directory with CSV files
  -products   comma-separated product codes
  -order      order lines CSV (options mode)
  -line       production line id (reschedule mode)
  -horizon    projection horizon in days (overrides config)
  -config     YAML config file
  -format     text | json
  -verbose    debug logging and daily detail`)
}
