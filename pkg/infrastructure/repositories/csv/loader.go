// Package csv loads scenario data (stock movements, demand commitments,
// supply events, alias groups) from CSV files into the in-memory store for
// CLI runs.
package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foodsys/ruptura/pkg/domain/entities"
	"github.com/foodsys/ruptura/pkg/infrastructure/repositories/memory"
)

const dayFormat = "2006-01-02"

// Loader handles loading scenario data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadScenario loads every file of a scenario directory into a fresh
// in-memory store. Missing optional files (aliases) are skipped.
func (l *Loader) LoadScenario(dir string) (*memory.Store, error) {
	store := memory.NewStore()

	if err := l.LoadMovements(scenarioPath(dir, "movements.csv"), store); err != nil {
		return nil, err
	}
	if err := l.LoadCommitments(scenarioPath(dir, "commitments.csv"), store); err != nil {
		return nil, err
	}
	if err := l.LoadSupplyEvents(scenarioPath(dir, "supply.csv"), store); err != nil {
		return nil, err
	}
	aliases := scenarioPath(dir, "aliases.csv")
	if _, err := os.Stat(aliases); err == nil {
		if err := l.LoadAliases(aliases, store); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// LoadMovements loads stock movements from a CSV file
func (l *Loader) LoadMovements(filename string, store *memory.Store) error {
	records, err := readRecords(filename, []string{"product_code", "quantity", "active", "moved_on"})
	if err != nil {
		return fmt.Errorf("movements: %w", err)
	}
	for i, record := range records {
		qty, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return fmt.Errorf("movements row %d: bad quantity %q: %w", i+2, record[1], err)
		}
		active, err := strconv.ParseBool(record[2])
		if err != nil {
			return fmt.Errorf("movements row %d: bad active flag %q: %w", i+2, record[2], err)
		}
		movedOn, err := time.ParseInLocation(dayFormat, record[3], time.UTC)
		if err != nil {
			return fmt.Errorf("movements row %d: bad date %q: %w", i+2, record[3], err)
		}
		movement, err := entities.NewStockMovement(entities.ProductCode(record[0]), qty, active, movedOn)
		if err != nil {
			return fmt.Errorf("movements row %d: %w", i+2, err)
		}
		store.AddMovement(*movement)
	}
	return nil
}

// LoadCommitments loads demand commitments from a CSV file. An empty
// due_on column means the commitment has no confirmed date.
func (l *Loader) LoadCommitments(filename string, store *memory.Store) error {
	records, err := readRecords(filename, []string{"product_code", "order_ref", "source", "quantity", "unit_price", "due_on"})
	if err != nil {
		return fmt.Errorf("commitments: %w", err)
	}
	for i, record := range records {
		var source entities.CommitmentSource
		switch strings.ToLower(record[2]) {
		case "allocated":
			source = entities.Allocated
		case "backlog":
			source = entities.Backlog
		default:
			return fmt.Errorf("commitments row %d: unknown source %q", i+2, record[2])
		}
		qty, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return fmt.Errorf("commitments row %d: bad quantity %q: %w", i+2, record[3], err)
		}
		price, err := decimal.NewFromString(record[4])
		if err != nil {
			return fmt.Errorf("commitments row %d: bad unit price %q: %w", i+2, record[4], err)
		}
		var dueOn *time.Time
		if record[5] != "" {
			d, err := time.ParseInLocation(dayFormat, record[5], time.UTC)
			if err != nil {
				return fmt.Errorf("commitments row %d: bad date %q: %w", i+2, record[5], err)
			}
			dueOn = &d
		}
		commitment, err := entities.NewDemandCommitment(
			entities.ProductCode(record[0]), record[1], source, qty, price, dueOn)
		if err != nil {
			return fmt.Errorf("commitments row %d: %w", i+2, err)
		}
		store.AddCommitment(*commitment)
	}
	return nil
}

// LoadSupplyEvents loads scheduled production inflows from a CSV file
func (l *Loader) LoadSupplyEvents(filename string, store *memory.Store) error {
	records, err := readRecords(filename, []string{"product_code", "production_line", "quantity", "scheduled_on"})
	if err != nil {
		return fmt.Errorf("supply: %w", err)
	}
	for i, record := range records {
		qty, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return fmt.Errorf("supply row %d: bad quantity %q: %w", i+2, record[2], err)
		}
		scheduledOn, err := time.ParseInLocation(dayFormat, record[3], time.UTC)
		if err != nil {
			return fmt.Errorf("supply row %d: bad date %q: %w", i+2, record[3], err)
		}
		event, err := entities.NewSupplyEvent(entities.ProductCode(record[0]), record[1], qty, scheduledOn)
		if err != nil {
			return fmt.Errorf("supply row %d: %w", i+2, err)
		}
		store.AddSupplyEvent(*event)
	}
	return nil
}

// LoadOrderLines loads the lines of one customer order from a CSV file
func (l *Loader) LoadOrderLines(filename string) ([]entities.OrderLine, error) {
	records, err := readRecords(filename, []string{"product_code", "quantity", "unit_price"})
	if err != nil {
		return nil, fmt.Errorf("order lines: %w", err)
	}
	var lines []entities.OrderLine
	for i, record := range records {
		qty, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("order lines row %d: bad quantity %q: %w", i+2, record[1], err)
		}
		price, err := decimal.NewFromString(record[2])
		if err != nil {
			return nil, fmt.Errorf("order lines row %d: bad unit price %q: %w", i+2, record[2], err)
		}
		line, err := entities.NewOrderLine(entities.ProductCode(record[0]), qty, price)
		if err != nil {
			return nil, fmt.Errorf("order lines row %d: %w", i+2, err)
		}
		lines = append(lines, *line)
	}
	return lines, nil
}

// LoadAliases loads alias groups from a CSV file mapping codes to group ids
func (l *Loader) LoadAliases(filename string, store *memory.Store) error {
	records, err := readRecords(filename, []string{"product_code", "group_id"})
	if err != nil {
		return fmt.Errorf("aliases: %w", err)
	}
	groups := make(map[string][]entities.ProductCode)
	for _, record := range records {
		groups[record[1]] = append(groups[record[1]], entities.ProductCode(record[0]))
	}
	for _, codes := range groups {
		store.AddAliasGroup(codes...)
	}
	return nil
}

func readRecords(filename string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("%s: missing header row", filename)
	}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("%s: header mismatch. Expected: %v, Got: %v", filename, expectedHeader, records[0])
	}
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s row %d: expected %d columns, got %d", filename, i+2, len(expectedHeader), len(record))
		}
	}
	return records[1:], nil
}

func validateHeader(header, expected []string) bool {
	if len(header) != len(expected) {
		return false
	}
	for i, col := range expected {
		if strings.TrimSpace(strings.ToLower(header[i])) != col {
			return false
		}
	}
	return true
}

func scenarioPath(dir, name string) string {
	return filepath.Join(dir, name)
}
