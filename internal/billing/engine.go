package billing

import "time"

// Money represents a monetary value stored in minor units.
type Money = int64

const (
	// longStayCap is the flat charge applied once a stay exceeds the cap
	// threshold. It is a fixed amount, not derived from the hourly rate.
	longStayCap Money = 100_00

	// longStayThresholdMinutes is the stay length beyond which the flat cap
	// applies instead of hourly billing.
	longStayThresholdMinutes int64 = 4 * 60
)

// Item describes a purchased line used for items-cost calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Summary aggregates the computed components of a session bill.
type Summary struct {
	TimeCost        Money
	ItemsCost       Money
	Subtotal        Money
	FinalAmount     Money
	DurationMinutes int64
}

// DurationMinutes returns the whole minutes elapsed between entry and now,
// clamped to zero when now precedes entry.
func DurationMinutes(entry, now time.Time) int64 {
	d := now.Sub(entry)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Minute)
}

// TimeCost computes the time-based charge for a stay. Billing rounds up to the
// next full hour; stays longer than the threshold are charged the flat cap
// regardless of the hourly rate.
func TimeCost(entry, now time.Time, hourlyRate Money) Money {
	minutes := DurationMinutes(entry, now)
	if minutes <= 0 {
		return 0
	}
	if minutes > longStayThresholdMinutes {
		return longStayCap
	}
	hoursCharged := (minutes + 59) / 60
	return Money(hoursCharged) * hourlyRate
}

// ItemsCost sums price times quantity over all lines. An empty list costs
// nothing. Quantity and price validity is enforced at ledger mutation time,
// not here.
func ItemsCost(items []Item) Money {
	var total Money
	for _, it := range items {
		total += Money(it.Qty) * it.UnitPrice
	}
	return total
}

// Bill computes the full bill for a session at the provided instant. The
// discount is subtracted as-is: callers reject negative discounts before this
// point, and an oversized discount deliberately drives the final amount
// negative rather than being clamped.
func Bill(entry, now time.Time, hourlyRate Money, items []Item, discount Money) Summary {
	timeCost := TimeCost(entry, now, hourlyRate)
	itemsCost := ItemsCost(items)
	subtotal := timeCost + itemsCost
	return Summary{
		TimeCost:        timeCost,
		ItemsCost:       itemsCost,
		Subtotal:        subtotal,
		FinalAmount:     subtotal - discount,
		DurationMinutes: DurationMinutes(entry, now),
	}
}
