// Package units picks the best fitting unit for a measured value and renders
// it as a locale configurable string.
package units

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidConfig is returned for unusable unit tables or format options.
var ErrInvalidConfig = errors.New("invalid config")

// Table maps a unit name to its size expressed in the base unit
// (meters for distance, square meters for area).
type Table map[string]float64

// Default and imperial tables.
var (
	MetricDistance = Table{"meter": 1, "kilometer": 1000}
	MetricArea     = Table{"squareMeter": 1, "hectare": 1e4, "squareKilometer": 1e6}

	ImperialDistance = Table{"foot": 0.3048, "mile": 1609.344}
	ImperialArea     = Table{"squareFoot": 0.09290304, "acre": 4046.8564224, "squareMile": 2589988.110336}
)

// Validate checks that the table has at least one unit and that every
// size is a finite positive number.
func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: unit table is empty", ErrInvalidConfig)
	}
	for _, name := range t.Names() {
		size := t[name]
		if !(size > 0) || math.IsInf(size, 0) {
			return fmt.Errorf("%w: unit %q has size %v, must be > 0", ErrInvalidConfig, name, size)
		}
	}
	return nil
}

// Names returns the unit names in lexicographic order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Select returns the largest unit whose size does not exceed value, so the
// quotient is at least 1. When value is smaller than every unit the
// smallest unit is returned. Units of equal size are resolved by name, the
// lexicographically smallest one wins.
//
// The table must be valid; an empty table yields ("", 1).
func (t Table) Select(value float64) (name string, size float64) {
	var smallest, best string
	var smallestSize, bestSize float64

	// sorted iteration + strict comparisons keep the first name on ties
	for _, unit := range t.Names() {
		s := t[unit]
		if smallest == "" || s < smallestSize {
			smallest, smallestSize = unit, s
		}
		if s <= value && s > bestSize {
			best, bestSize = unit, s
		}
	}

	if best == "" {
		best, bestSize = smallest, smallestSize
	}
	if bestSize == 0 {
		bestSize = 1
	}
	return best, bestSize
}
