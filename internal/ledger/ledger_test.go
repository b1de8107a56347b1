package ledger

import (
	"errors"
	"testing"
)

func TestAddLineMergesByItemID(t *testing.T) {
	lines, err := AddLine(nil, "coffee", "Coffee", 30_00, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines, err = AddLine(lines, "coffee", "Coffee", 30_00, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected one merged line, got %d", len(lines))
	}
	if lines[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", lines[0].Quantity)
	}
}

func TestAddLineFreezesNameAndPrice(t *testing.T) {
	lines, _ := AddLine(nil, "coffee", "Coffee", 30_00, 1)
	// A repeated add with different catalog data must not re-sync the snapshot.
	lines, err := AddLine(lines, "coffee", "Coffee (large)", 45_00, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lines[0].Name != "Coffee" || lines[0].Price != 30_00 {
		t.Fatalf("expected frozen snapshot, got %+v", lines[0])
	}
}

func TestAddLineRejectsNonPositiveQuantity(t *testing.T) {
	for _, qty := range []int{0, -1, -10} {
		if _, err := AddLine(nil, "coffee", "Coffee", 30_00, qty); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("qty=%d: expected ErrInvalidQuantity, got %v", qty, err)
		}
	}
}

func TestAddLineDoesNotMutateInput(t *testing.T) {
	original := []Line{{ItemID: "tea", Name: "Tea", Price: 25_00, Quantity: 1}}
	out, err := AddLine(original, "tea", "Tea", 25_00, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if original[0].Quantity != 1 {
		t.Fatalf("input list was mutated: %+v", original[0])
	}
	if out[0].Quantity != 4 {
		t.Fatalf("expected merged quantity 4, got %d", out[0].Quantity)
	}
}

func TestAddLineAppendsPreservingOrder(t *testing.T) {
	lines, _ := AddLine(nil, "coffee", "Coffee", 30_00, 1)
	lines, _ = AddLine(lines, "tea", "Tea", 25_00, 1)
	lines, _ = AddLine(lines, "snack", "Snack", 40_00, 2)
	ids := []string{"coffee", "tea", "snack"}
	for i, id := range ids {
		if lines[i].ItemID != id {
			t.Fatalf("expected %s at position %d, got %s", id, i, lines[i].ItemID)
		}
	}
}

func TestApplyEditsDropsZeroQuantityLines(t *testing.T) {
	original := []Line{
		{ItemID: "coffee", Name: "Coffee", Price: 30_00, Quantity: 2},
		{ItemID: "tea", Name: "Tea", Price: 25_00, Quantity: 1},
	}
	edited := []Line{
		{ItemID: "coffee", Name: "Coffee", Price: 30_00, Quantity: 0},
		{ItemID: "tea", Name: "Tea", Price: 25_00, Quantity: 1},
	}
	out, err := ApplyEdits(original, edited)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].ItemID != "tea" {
		t.Fatalf("expected only tea to remain, got %+v", out)
	}
}

func TestApplyEditsAllZeroYieldsEmpty(t *testing.T) {
	original := []Line{{ItemID: "coffee", Name: "Coffee", Price: 30_00, Quantity: 2}}
	edited := []Line{{ItemID: "coffee", Name: "Coffee", Price: 30_00, Quantity: 0}}
	out, err := ApplyEdits(original, edited)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty result, got %+v", out)
	}
}

func TestApplyEditsNegativeQuantityTreatedAsRemoval(t *testing.T) {
	original := []Line{{ItemID: "coffee", Name: "Coffee", Price: 30_00, Quantity: 2}}
	edited := []Line{{ItemID: "coffee", Name: "Coffee", Price: 30_00, Quantity: -3}}
	out, err := ApplyEdits(original, edited)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty result, got %+v", out)
	}
}

func TestApplyEditsIdenticalListIsNoOp(t *testing.T) {
	original := []Line{
		{ItemID: "coffee", Name: "Coffee", Price: 30_00, Quantity: 2},
		{ItemID: "tea", Name: "Tea", Price: 25_00, Quantity: 1},
	}
	out, err := ApplyEdits(original, original)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !Equal(out, original) {
		t.Fatalf("expected result deep-equal to original, got %+v", out)
	}
}

func TestApplyEditsRejectsUnknownItemID(t *testing.T) {
	original := []Line{{ItemID: "coffee", Name: "Coffee", Price: 30_00, Quantity: 2}}
	edited := []Line{{ItemID: "cake", Name: "Cake", Price: 55_00, Quantity: 1}}
	if _, err := ApplyEdits(original, edited); !errors.Is(err, ErrUnknownLineItem) {
		t.Fatalf("expected ErrUnknownLineItem, got %v", err)
	}
}

func TestEqualIsOrderSensitive(t *testing.T) {
	a := []Line{
		{ItemID: "coffee", Name: "Coffee", Price: 30_00, Quantity: 1},
		{ItemID: "tea", Name: "Tea", Price: 25_00, Quantity: 1},
	}
	b := []Line{a[1], a[0]}
	if Equal(a, b) {
		t.Fatal("expected order-sensitive comparison to report inequality")
	}
	if !Equal(a, a) {
		t.Fatal("expected identical lists to be equal")
	}
	if Equal(a, a[:1]) {
		t.Fatal("expected different lengths to be unequal")
	}
}
