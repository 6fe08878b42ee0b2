// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package nmea

// VHW returns a water speed and heading sentence. Only the magnetic heading
// (degrees) and the speed through water (knots) are known; the true heading
// and km/h fields are left empty.
func VHW(talker string, knots, heading float64) string {
	return newSentence(talker, "VHW",
		"", "",
		lonDegrees.format(heading), "M",
		minutes.format(knots), "N",
		"", "",
	).String()
}

// HDM returns a magnetic heading sentence.
func HDM(talker string, heading float64) string {
	return newSentence(talker, "HDM", lonDegrees.format(heading), "M").String()
}

// VDR returns a set and drift sentence: the current flows towards dirTrue
// (dirMag magnetic) at knots.
func VDR(talker string, knots, dirTrue, dirMag float64) string {
	return newSentence(talker, "VDR",
		speed.format(dirTrue), "T",
		speed.format(dirMag), "M",
		speed.format(knots), "N",
	).String()
}
