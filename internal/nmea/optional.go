// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package nmea

import "math"

// NoValue is the sentinel that marks a measurement as unavailable in the
// float-only calling convention (see MDAFromSentinels).
const NoValue = -math.MaxFloat64

// Optional is a measurement that may be missing.
type Optional struct {
	Value float64
	Valid bool
}

// Some wraps an available measurement.
func Some(v float64) Optional {
	return Optional{Value: v, Valid: true}
}

// None is a missing measurement.
var None = Optional{}

// FromSentinel maps NoValue to None and anything else to Some(v).
func FromSentinel(v float64) Optional {
	if v == NoValue {
		return None
	}
	return Some(v)
}

// fields returns the formatted group, or n empty fields when o is missing so
// that positional layout is kept.
func (o Optional) fields(n int, render func(float64) []string) []string {
	if !o.Valid {
		return make([]string, n)
	}
	return render(o.Value)
}
