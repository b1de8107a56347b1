// Package ledger maintains the line entries attached to a session: merging a
// newly added item into the existing list and reconciling a bulk-edited list
// back to canonical form. All functions are pure; inputs are never mutated.
package ledger

import "errors"

var (
	// ErrInvalidQuantity is returned when an add specifies a quantity below one.
	ErrInvalidQuantity = errors.New("ledger: quantity must be at least 1")
	// ErrUnknownLineItem is returned when an edit introduces an item id that was
	// not present in the original list. New items go through AddLine.
	ErrUnknownLineItem = errors.New("ledger: unknown line item")
)

// Line is a denormalized snapshot of a catalog item attached to a session.
// Name and price are frozen at add time; later catalog edits do not change
// historical session totals.
type Line struct {
	ItemID   string `json:"itemId"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

// AddLine merges an item into the line list. When a line with the same item id
// exists its quantity is increased and its name/price left untouched; otherwise
// a new line is appended. The returned slice is always a fresh copy.
func AddLine(lines []Line, itemID, name string, price int64, qty int) ([]Line, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}
	out := make([]Line, len(lines))
	copy(out, lines)
	for i := range out {
		if out[i].ItemID == itemID {
			out[i].Quantity += qty
			return out, nil
		}
	}
	out = append(out, Line{ItemID: itemID, Name: name, Price: price, Quantity: qty})
	return out, nil
}

// ApplyEdits reconciles a bulk-edited list against the original. Quantities
// below zero are treated as zero, and zero-quantity lines are dropped from the
// result. Every edited item id must already exist in the original list.
func ApplyEdits(original, edited []Line) ([]Line, error) {
	known := make(map[string]struct{}, len(original))
	for _, line := range original {
		known[line.ItemID] = struct{}{}
	}
	out := make([]Line, 0, len(edited))
	for _, line := range edited {
		if _, ok := known[line.ItemID]; !ok {
			return nil, ErrUnknownLineItem
		}
		if line.Quantity <= 0 {
			continue
		}
		out = append(out, line)
	}
	return out, nil
}

// Equal reports whether two line lists are deeply equal, order and value
// sensitive. Used to detect no-op saves.
func Equal(a, b []Line) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TotalQuantity sums the quantities across all lines.
func TotalQuantity(lines []Line) int {
	var total int
	for _, line := range lines {
		total += line.Quantity
	}
	return total
}
