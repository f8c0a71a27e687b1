package output

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/foodsys/ruptura/pkg/application/services/scan"
	"github.com/foodsys/ruptura/pkg/domain/entities"
)

// Config holds configuration for output generation
type Config struct {
	Format  string
	Verbose bool
}

const dayFormat = "2006-01-02"

// RenderScan writes a catalog scan report in the configured format
func RenderScan(report *scan.Report, config Config) error {
	switch config.Format {
	case "text":
		renderScanText(report)
		return nil
	case "json":
		return renderJSON(report)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

func renderScanText(report *scan.Report) {
	fmt.Printf("📊 Stockout Risk Scan %s\n", report.ScanID)
	fmt.Printf("=====================\n\n")
	fmt.Printf("Scanned: %d products in %v\n", report.Scanned, report.Duration.Round(time.Millisecond))
	fmt.Printf("At risk: %d   Failures: %d   Complete: %v\n\n", len(report.Entries), len(report.Failures), report.Complete)

	if len(report.Entries) > 0 {
		fmt.Printf("%-15s %-10s %10s %10s %12s %8s %12s\n",
			"Product", "Severity", "Balance", "MinHrzn", "Shortfall", "Orders", "Value@Risk")
		fmt.Printf("%-15s %-10s %10s %10s %12s %8s %12s\n",
			"---------------", "----------", "----------", "----------", "------------", "--------", "------------")
		for _, e := range report.Entries {
			shortfall := "never"
			if e.FirstShortfall != nil {
				shortfall = e.FirstShortfall.Format(dayFormat)
			}
			fmt.Printf("%-15s %-10s %10.1f %10.1f %12s %8d %12s\n",
				e.ProductCode, e.Severity, e.CurrentBalance, e.MinBalanceHorizon,
				shortfall, e.AffectedOrders, e.ValueAtRisk.StringFixed(2))
		}
		fmt.Println()
	}

	if len(report.Failures) > 0 {
		fmt.Printf("⚠️  Products with unknown status:\n")
		for _, f := range report.Failures {
			fmt.Printf("  %-15s %-25s %s\n", f.ProductCode, f.Code, f.Err)
		}
	}
}

// RenderProjection writes a single product projection in the configured format
func RenderProjection(result *entities.ProjectionResult, config Config) error {
	switch config.Format {
	case "text":
		renderProjectionText(result, config.Verbose)
		return nil
	case "json":
		return renderJSON(result)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

func renderProjectionText(result *entities.ProjectionResult, verbose bool) {
	fmt.Printf("📦 Projection for %s (horizon %d days)\n\n", result.ProductCode, result.HorizonDays)
	fmt.Printf("Current balance:      %.1f\n", result.CurrentBalance)
	fmt.Printf("Min balance (8 days): %.1f\n", result.MinBalanceWeek)
	fmt.Printf("Min balance (full):   %.1f\n", result.MinBalanceHorizon)
	if result.FirstShortfall != nil {
		fmt.Printf("First shortfall:      %s\n", result.FirstShortfall.Format(dayFormat))
	} else {
		fmt.Printf("First shortfall:      none\n")
	}

	if verbose {
		fmt.Printf("\n%-5s %-12s %10s %10s %10s %10s %10s\n",
			"Day", "Date", "Opening", "Outflow", "AfterOut", "Inflow", "Closing")
		for _, d := range result.Days {
			fmt.Printf("%-5d %-12s %10.1f %10.1f %10.1f %10.1f %10.1f\n",
				d.DayIndex, d.Date.Format(dayFormat),
				d.OpeningBalance, d.Outflow, d.AfterOutflow, d.Inflow, d.ClosingBalance)
		}
	}
}

// RenderOptions writes fulfillment options in the configured format
func RenderOptions(options []entities.FulfillmentOption, config Config) error {
	switch config.Format {
	case "text":
		renderOptionsText(options)
		return nil
	case "json":
		return renderJSON(options)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

func renderOptionsText(options []entities.FulfillmentOption) {
	fmt.Printf("🚚 Fulfillment Options\n")
	fmt.Printf("======================\n\n")
	for _, opt := range options {
		shipDate := "not within horizon"
		if opt.ShipDate != nil {
			shipDate = opt.ShipDate.Format(dayFormat)
		}
		fmt.Printf("Option %s: ship %s, %d lines included, %d excluded, value %s (%s%%)\n",
			opt.Code, shipDate, opt.IncludedLines, opt.ExcludedLines,
			opt.Value.StringFixed(2), opt.PctOfOrder.StringFixed(1))
		for _, line := range opt.Excluded {
			sufficient := "never within horizon"
			if line.FirstSufficient != nil {
				sufficient = line.FirstSufficient.Format(dayFormat)
			}
			fmt.Printf("  excluded: %s qty %.1f (sufficient %s)\n", line.ProductCode, line.Quantity, sufficient)
		}
	}
}

// RenderReschedule writes reschedule options in the configured format
func RenderReschedule(options []entities.RescheduleOption, config Config) error {
	switch config.Format {
	case "text":
		renderRescheduleText(options)
		return nil
	case "json":
		return renderJSON(options)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

func renderRescheduleText(options []entities.RescheduleOption) {
	fmt.Printf("🏭 Reschedule Options\n")
	fmt.Printf("=====================\n\n")
	for i, opt := range options {
		switch opt.Kind {
		case entities.Advance:
			fmt.Printf("%d. Advance %s run of %.1f scheduled %s\n",
				i+1, opt.Event.ProductCode, opt.Event.Quantity, opt.Event.ScheduledOn.Format(dayFormat))
		case entities.Swap:
			fmt.Printf("%d. Swap slot with %s (slack %.1f)\n", i+1, opt.SwapProduct, opt.SwapSlack)
		case entities.AddCapacity:
			fmt.Printf("%d. Add capacity: produce %.1f extra\n", i+1, opt.SuggestedQty)
		}
	}
}

func renderJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
