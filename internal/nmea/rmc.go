// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package nmea

import (
	"math"
	"time"
)

// RMC returns a recommended minimum navigation sentence:
//
//	$--RMC,hhmmss,A,ddmm.mmm,N,dddmm.mmm,W,sss.s,ccc.c,ddmmyy,vvv.v,E*hh
//
// lat is positive north, lon positive east and variation positive east.
// Speed over ground is in knots, course over ground in degrees. The status
// field is always A; no void variant is produced. ts is printed with its own
// calendar fields, so callers wanting UTC pass a UTC time.
func RMC(talker string, ts time.Time, lat, lon, sog, cog, variation float64) string {
	return newSentence(talker, "RMC",
		hhmmss(ts),
		"A",
		angle(lat, latDegrees), hemisphere(lat, "N", "S"),
		angle(lon, lonDegrees), hemisphere(lon, "E", "W"),
		overGround.format(sog),
		overGround.format(cog),
		ddmmyy(ts),
		overGround.format(math.Abs(variation)), hemisphere(variation, "E", "W"),
	).String()
}

// angle renders |v| as whole degrees followed by decimal minutes.
func angle(v float64, deg fieldFormat) string {
	d, m := degMin(v)
	return deg.format(float64(d)) + minutes.format(m)
}

// degMin splits |v| into whole degrees and minutes of arc. The minutes are
// computed as 0.6 * (fraction * 100) rather than fraction * 60; the two differ
// in the last bit for some inputs and existing consumers expect the former.
func degMin(v float64) (int, float64) {
	a := math.Abs(v)
	d := int(a)
	return d, 0.6 * ((a - float64(d)) * 100)
}
