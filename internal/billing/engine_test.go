package billing

import (
	"testing"
	"time"
)

var base = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func TestTimeCostZeroOrNegativeDuration(t *testing.T) {
	if got := TimeCost(base, base, 25_00); got != 0 {
		t.Fatalf("expected 0 for zero duration, got %d", got)
	}
	if got := TimeCost(base, base.Add(-time.Hour), 25_00); got != 0 {
		t.Fatalf("expected 0 when now precedes entry, got %d", got)
	}
}

func TestTimeCostRoundsUpToNextHour(t *testing.T) {
	cases := []struct {
		minutes int
		rate    Money
		want    Money
	}{
		{1, 25_00, 25_00},
		{59, 25_00, 25_00},
		{60, 25_00, 25_00},
		{61, 25_00, 50_00},
		{119, 25_00, 50_00},
		{121, 25_00, 75_00},
		{240, 25_00, 100_00},
	}
	for _, tc := range cases {
		got := TimeCost(base, base.Add(time.Duration(tc.minutes)*time.Minute), tc.rate)
		if got != tc.want {
			t.Fatalf("minutes=%d rate=%d: expected %d, got %d", tc.minutes, tc.rate, tc.want, got)
		}
	}
}

func TestTimeCostLongStayFlatCap(t *testing.T) {
	// Past four hours the charge is flat and independent of the hourly rate.
	got := TimeCost(base, base.Add(300*time.Minute), 25_00)
	if got != 100_00 {
		t.Fatalf("expected flat cap 10000, got %d", got)
	}
	got = TimeCost(base, base.Add(300*time.Minute), 500_00)
	if got != 100_00 {
		t.Fatalf("expected flat cap regardless of rate, got %d", got)
	}
	if got := TimeCost(base, base.Add(241*time.Minute), 25_00); got != 100_00 {
		t.Fatalf("expected cap just past threshold, got %d", got)
	}
}

func TestItemsCost(t *testing.T) {
	if got := ItemsCost(nil); got != 0 {
		t.Fatalf("expected 0 for empty list, got %d", got)
	}
	items := []Item{
		{Qty: 2, UnitPrice: 30_00},
		{Qty: 1, UnitPrice: 25_00},
	}
	if got := ItemsCost(items); got != 85_00 {
		t.Fatalf("expected 8500, got %d", got)
	}
}

func TestBillDiscountIsNotClamped(t *testing.T) {
	// An oversized discount drives the final amount negative on purpose;
	// rejection of bad discounts happens at the API boundary.
	sum := Bill(base, base.Add(30*time.Minute), 25_00, nil, 40_00)
	if sum.Subtotal != 25_00 {
		t.Fatalf("expected subtotal 2500, got %d", sum.Subtotal)
	}
	if sum.FinalAmount != -15_00 {
		t.Fatalf("expected final amount -1500, got %d", sum.FinalAmount)
	}
}

func TestBillEndToEnd(t *testing.T) {
	items := []Item{
		{Qty: 2, UnitPrice: 30_00},
		{Qty: 1, UnitPrice: 25_00},
	}
	sum := Bill(base, base.Add(70*time.Minute), 25_00, items, 10_00)
	if sum.TimeCost != 50_00 {
		t.Fatalf("expected time cost 5000, got %d", sum.TimeCost)
	}
	if sum.ItemsCost != 85_00 {
		t.Fatalf("expected items cost 8500, got %d", sum.ItemsCost)
	}
	if sum.Subtotal != 135_00 {
		t.Fatalf("expected subtotal 13500, got %d", sum.Subtotal)
	}
	if sum.FinalAmount != 125_00 {
		t.Fatalf("expected final amount 12500, got %d", sum.FinalAmount)
	}
	if sum.DurationMinutes != 70 {
		t.Fatalf("expected 70 minutes, got %d", sum.DurationMinutes)
	}
}
