package entities

import "time"

// ProductCode represents a unique product identifier
type ProductCode string

// Quantity represents a product quantity in the item's stock unit.
// Food products are frequently sold in fractional units (kg, liters),
// so quantities are floating point rather than discrete counts.
type Quantity = float64

// DateOnly truncates a timestamp to its calendar day in UTC.
// All day-bucketed aggregation in the engine keys on DateOnly values.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from one calendar day to
// another. Both arguments are normalized with DateOnly first.
func DaysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)).Hours() / 24)
}
