// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package nmea

import "math"

// WindReference selects the reference frame letter of an MWV sentence.
type WindReference int

const (
	// ApparentWind is wind relative to the moving vessel (R).
	ApparentWind WindReference = iota
	// TrueWind is the theoretical wind, corrected for vessel motion (T).
	TrueWind
)

func (r WindReference) letter() string {
	switch r {
	case TrueWind:
		return "T"
	default:
		return "R"
	}
}

func (r WindReference) String() string {
	switch r {
	case TrueWind:
		return "true"
	default:
		return "apparent"
	}
}

// MWV returns a wind speed and angle sentence. angle is in degrees relative
// to the bow; negative angles are brought into range by adding 360 once.
// speed is in knots.
func MWV(talker string, speed, angle float64, ref WindReference) string {
	if angle < 0 {
		angle += 360
	}
	return newSentence(talker, "MWV",
		overGround.format(angle), ref.letter(),
		overGround.format(speed), "N",
		"A",
	).String()
}

// MWVApparent is MWV with the apparent (relative) reference.
func MWVApparent(talker string, speed, angle float64) string {
	return MWV(talker, speed, angle, ApparentWind)
}

// VWT returns a true wind sentence. angle is signed relative to the bow,
// positive to starboard (R) and negative or zero to port (L). The speed is
// given in knots and emitted in knots, m/s and km/h.
func VWT(talker string, knots, angle float64) string {
	side := "L"
	if angle > 0 {
		side = "R"
	}
	return newSentence(talker, "VWT",
		speed.format(math.Abs(angle)), side,
		speed.format(knots), "N",
		speed.format(knots*KnotsToMS), "M",
		speed.format(knots*KnotsToKMH), "K",
	).String()
}

// MWD returns a wind direction and speed sentence. The magnetic direction is
// trueDir - variation, wrapped by a single add or subtract of 360; a
// variation of 360 degrees or more can therefore leave it out of range.
func MWD(talker string, trueDir, knots, variation float64) string {
	mag := trueDir - variation
	if mag < 0 {
		mag += 360
	}
	if mag > 360 {
		mag -= 360
	}
	return newSentence(talker, "MWD",
		overGround.format(trueDir), "T",
		overGround.format(mag), "M",
		speed.format(knots), "N",
		speed.format(knots*KnotsToMS), "M",
	).String()
}
