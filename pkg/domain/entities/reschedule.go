package entities

// RescheduleKind represents the type of reschedule option
type RescheduleKind int

const (
	// Advance an already-scheduled production run to an earlier date
	Advance RescheduleKind = iota
	// Swap a slot with another product on the same line that has slack
	Swap
	// AddCapacity schedules an extra production run
	AddCapacity
)

// String method for RescheduleKind enum
func (k RescheduleKind) String() string {
	switch k {
	case Advance:
		return "Advance"
	case Swap:
		return "Swap"
	case AddCapacity:
		return "AddCapacity"
	default:
		return "Unknown"
	}
}

// RescheduleOption is one advisory proposal for resolving a projected
// stockout by changing the production schedule. Options are suggestions
// only; feasibility and execution belong to the scheduling system.
type RescheduleOption struct {
	Kind RescheduleKind

	// Advance: the existing production event that could be moved earlier
	Event *SupplyEvent

	// Swap: the product occupying a slot on the same line, and how much
	// projected slack it has over the horizon
	SwapProduct ProductCode
	SwapSlack   Quantity

	// AddCapacity: the suggested extra quantity to produce
	SuggestedQty Quantity
}
