package models

import (
	"github.com/shopspring/decimal"
)

// SelectionLine is one tier the buyer has picked tickets from. Lines with a
// zero quantity are semantically absent: they are excluded from totals and
// from the serialized payload.
type SelectionLine struct {
	TierLabel string          `json:"label"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Selection accumulates per-tier quantities for one checkout session. The
// line order follows the resolved tier order and is stable across mutations.
type Selection struct {
	lines []SelectionLine
}

// NewSelection builds an empty selection over the given tiers.
func NewSelection(tiers []TicketTier) *Selection {
	lines := make([]SelectionLine, len(tiers))
	for i, tier := range tiers {
		lines[i] = SelectionLine{
			TierLabel: tier.Label,
			UnitPrice: tier.UnitPrice,
		}
	}
	return &Selection{lines: lines}
}

// SelectionFromLines rebuilds a selection from previously serialized lines.
func SelectionFromLines(lines []SelectionLine) *Selection {
	copied := make([]SelectionLine, len(lines))
	copy(copied, lines)
	return &Selection{lines: copied}
}

// Increment adds one ticket for the tier at the given index. Out-of-range
// indexes are ignored.
func (s *Selection) Increment(tierIndex int) {
	if tierIndex < 0 || tierIndex >= len(s.lines) {
		return
	}
	s.lines[tierIndex].Quantity++
}

// Decrement removes one ticket for the tier at the given index. A quantity
// already at zero stays at zero; this is a no-op, not an error.
func (s *Selection) Decrement(tierIndex int) {
	if tierIndex < 0 || tierIndex >= len(s.lines) {
		return
	}
	if s.lines[tierIndex].Quantity > 0 {
		s.lines[tierIndex].Quantity--
	}
}

// Total computes the grand total across all lines. It is recomputed on
// every call rather than cached, so rapid increment/decrement sequences can
// never surface a stale amount.
func (s *Selection) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.lines {
		if line.Quantity == 0 {
			continue
		}
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// TotalQuantity returns the aggregate number of tickets picked.
func (s *Selection) TotalQuantity() int {
	n := 0
	for _, line := range s.lines {
		n += line.Quantity
	}
	return n
}

// Serialize returns the non-zero lines in order, ready for transport to the
// checkout backend. An empty result means the caller must fall back to a
// single-quantity parameter rather than submit an empty selection.
func (s *Selection) Serialize() []SelectionLine {
	var out []SelectionLine
	for _, line := range s.lines {
		if line.Quantity > 0 {
			out = append(out, line)
		}
	}
	return out
}

// Lines returns all lines, including zero-quantity ones, for display.
func (s *Selection) Lines() []SelectionLine {
	copied := make([]SelectionLine, len(s.lines))
	copy(copied, s.lines)
	return copied
}
