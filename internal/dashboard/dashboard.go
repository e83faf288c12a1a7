// Package dashboard derives the read-only views of a list: filtered items,
// per-filter counts, price totals and privacy-masked price strings. Nothing
// here is stored; every value is recomputed from the current items.
package dashboard

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/Kerhoff/GiftSync/internal/models"
)

// Filter narrows the items shown for a list.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterRequired  Filter = "required"
	FilterOptional  Filter = "optional"
	FilterHighValue Filter = "high-value"
)

// Filters lists every filter in display order.
var Filters = []Filter{FilterAll, FilterRequired, FilterOptional, FilterHighValue}

// ParseFilter accepts a filter name; "high" and "highvalue" are aliases of
// high-value.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "required":
		return FilterRequired, nil
	case "optional":
		return FilterOptional, nil
	case "high-value", "high", "highvalue":
		return FilterHighValue, nil
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// Match reports whether item passes f.
func (f Filter) Match(item *models.GiftItem) bool {
	switch f {
	case FilterRequired:
		return item.Status == models.ItemStatusRequired
	case FilterOptional:
		return item.Status == models.ItemStatusOptional
	case FilterHighValue:
		return item.HasValueTag(models.ValueTagHigh)
	default:
		return true
	}
}

// Apply returns the items that pass f, in their original order.
func Apply(items []models.GiftItem, f Filter) []models.GiftItem {
	out := make([]models.GiftItem, 0, len(items))
	for i := range items {
		if f.Match(&items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}

// Counts returns the number of items passing each filter.
func Counts(items []models.GiftItem) map[Filter]int {
	counts := make(map[Filter]int, len(Filters))
	for _, f := range Filters {
		counts[f] = 0
	}
	for i := range items {
		for _, f := range Filters {
			if f.Match(&items[i]) {
				counts[f]++
			}
		}
	}
	return counts
}

// Totals summarises the prices of a set of items.
type Totals struct {
	Count         int     `json:"count"`
	Completed     int     `json:"completed"`
	Low           float64 `json:"low"`
	High          float64 `json:"high"`
	RemainingLow  float64 `json:"remaining_low"`
	RemainingHigh float64 `json:"remaining_high"`
}

// Sum computes totals over items. Missing prices count as zero.
func Sum(items []models.GiftItem) Totals {
	var t Totals
	for _, it := range items {
		t.Count++
		low, high := deref(it.PriceLow), deref(it.PriceHigh)
		t.Low += low
		t.High += high
		if it.IsCompleted {
			t.Completed++
			continue
		}
		t.RemainingLow += low
		t.RemainingHigh += high
	}
	return t
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// Mask replaces any price while blur is on.
const Mask = "••••"

// Privacy is the per-session blur toggle. The zero value is unblurred.
type Privacy struct {
	blurred atomic.Bool
}

// Toggle flips the blur and returns the new state.
func (p *Privacy) Toggle() bool {
	for {
		cur := p.blurred.Load()
		if p.blurred.CompareAndSwap(cur, !cur) {
			return !cur
		}
	}
}

// Set forces the blur state.
func (p *Privacy) Set(v bool) { p.blurred.Store(v) }

// Blurred reports the current state.
func (p *Privacy) Blurred() bool { return p.blurred.Load() }

// FormatPrice renders a single amount, or the mask when blurred.
func (p *Privacy) FormatPrice(v *float64) string {
	if p.Blurred() {
		return Mask
	}
	if v == nil {
		return "N/A"
	}
	return money(*v)
}

// FormatRange renders an item's price range. Both ends are required;
// otherwise the range reads "N/A".
func (p *Privacy) FormatRange(low, high *float64) string {
	if p.Blurred() {
		return Mask
	}
	if low == nil || high == nil {
		return "N/A"
	}
	return money(*low) + "-" + money(*high)
}

// FormatTotals renders the purchased counter and the summed range.
func (p *Privacy) FormatTotals(t Totals) string {
	price := Mask
	if !p.Blurred() {
		price = fmt.Sprintf("$%.0f - $%.0f", t.Low, t.High)
	}
	return fmt.Sprintf("%d/%d purchased · %s", t.Completed, t.Count, price)
}

// money drops the fraction for whole amounts.
func money(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("$%.0f", v)
	}
	return fmt.Sprintf("$%.2f", v)
}
