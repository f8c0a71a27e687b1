package entities

import "time"

// DailyProjection is one simulated day of a product's forward balance.
// Outflow is debited before inflow is credited: AfterOutflow reflects the
// balance with the day's demand removed but before the day's production
// arrives, so a same-day arrival never masks an intraday shortfall in the
// intermediate field. Only ClosingBalance reflects the arrival.
type DailyProjection struct {
	DayIndex       int
	Date           time.Time
	OpeningBalance Quantity
	Inflow         Quantity
	Outflow        Quantity
	AfterOutflow   Quantity
	ClosingBalance Quantity
}

// ProjectionResult is the complete output of a forward balance projection.
// The Days sequence always holds exactly HorizonDays+1 entries (day 0 through
// day HorizonDays) and is recomputed fresh on every call.
type ProjectionResult struct {
	ProductCode    ProductCode
	CurrentBalance Quantity
	HorizonDays    int
	Days           []DailyProjection

	// MinBalanceWeek is the minimum closing balance over days 0..7
	// inclusive (or the whole horizon when it is shorter than 8 days).
	MinBalanceWeek Quantity
	// MinBalanceHorizon is the minimum closing balance over the full horizon.
	MinBalanceHorizon Quantity
	// FirstShortfall is the date of the first day whose closing balance is
	// negative, or nil when no day in the horizon goes negative.
	FirstShortfall *time.Time
}

// HasShortfall reports whether any day in the horizon closes negative
func (r *ProjectionResult) HasShortfall() bool {
	return r.FirstShortfall != nil
}

// ImmediateDeficit reports whether the product is already short on day 0
func (r *ProjectionResult) ImmediateDeficit() bool {
	return len(r.Days) > 0 && r.Days[0].ClosingBalance < 0
}

// DaysToShortfall returns the number of days from today until the first
// shortfall. The second return is false when the horizon has no shortfall.
func (r *ProjectionResult) DaysToShortfall(today time.Time) (int, bool) {
	if r.FirstShortfall == nil {
		return 0, false
	}
	return DaysBetween(today, *r.FirstShortfall), true
}

// FirstSufficientDate returns the date of the first day whose closing
// balance covers the given quantity, or nil when no day in the horizon does.
// Sufficiency is relative to the quantity needed, not to zero.
func (r *ProjectionResult) FirstSufficientDate(needed Quantity) *time.Time {
	for i := range r.Days {
		if r.Days[i].ClosingBalance >= needed {
			d := r.Days[i].Date
			return &d
		}
	}
	return nil
}
