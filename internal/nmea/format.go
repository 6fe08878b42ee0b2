// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package nmea

import (
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"
	"github.com/shopspring/decimal"
)

// Unit conversions applied by the generators. Formatters never convert.
const (
	KnotsToKMH = 1.852
	KnotsToMS  = 1.852 * 0.27777777
	// HPAToInHg is the divisor taking hectopascals (millibars) to inches of
	// mercury.
	HPAToInHg = 33.8639
	// HPAPerBar is the divisor taking hectopascals to bars.
	HPAPerBar = 1000
)

// fieldFormat renders a number with at least intDigits integer digits (zero
// padded) and exactly fracDigits fractional digits.
//
// Rounding is half away from zero on the shortest decimal form of the float,
// so 23.45 renders as 23.5 even though the nearest float64 is a hair below.
type fieldFormat struct {
	intDigits  int
	fracDigits int
}

var (
	latDegrees  = fieldFormat{2, 0} // 00
	lonDegrees  = fieldFormat{3, 0} // 000
	minutes     = fieldFormat{2, 3} // 00.000
	overGround  = fieldFormat{3, 1} // 000.0
	temperature = fieldFormat{1, 1} // #0.0
	pressure4   = fieldFormat{1, 4} // ##0.0000
	pressure3   = fieldFormat{1, 3} // ##0.000
	pascal      = fieldFormat{1, 0} // ##0
	percent     = fieldFormat{1, 0} // ##0
	direction   = fieldFormat{1, 0} // ##0
	speed       = fieldFormat{1, 1} // #0.0
)

// format panics on NaN or infinity; callers must only pass finite values.
func (f fieldFormat) format(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(int32(f.fracDigits))

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart := s
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart = s[:dot]
	}
	if pad := f.intDigits - len(intPart); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}

	if neg {
		return "-" + s
	}
	return s
}

// plain renders v in its shortest round-trip decimal form, keeping at least
// one fractional digit ("12.0", "65.25").
func plain(v float64) string {
	d := decimal.NewFromFloat(v)
	if d.Exponent() >= 0 {
		return d.StringFixed(1)
	}
	return d.String()
}

var (
	timeOfDay = mustStrftime("%H%M%S")
	dayMonth  = mustStrftime("%d%m%y")
)

func mustStrftime(pattern string) *strftime.Strftime {
	f, err := strftime.New(pattern)
	if err != nil {
		panic(err)
	}
	return f
}

// hhmmss and ddmmyy use the calendar fields of t as they are; no zone
// conversion happens here.
func hhmmss(t time.Time) string {
	return timeOfDay.FormatString(t)
}

func ddmmyy(t time.Time) string {
	return dayMonth.FormatString(t)
}

func hemisphere(v float64, pos, neg string) string {
	if v < 0 {
		return neg
	}
	return pos
}
