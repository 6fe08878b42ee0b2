// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package nmea

// MMB returns a barometer sentence for a pressure in hPa (= mb), emitted in
// inches of mercury and bars.
func MMB(talker string, hPa float64) string {
	return newSentence(talker, "MMB",
		pressure4.format(hPa/HPAToInHg), "I",
		pressure4.format(hPa/HPAPerBar), "B",
	).String()
}

// MTA returns an air temperature sentence, in degrees Celsius.
func MTA(talker string, celsius float64) string {
	return newSentence(talker, "MTA", temperature.format(celsius), "C").String()
}

// Meteo is the input of the MDA composite. Any quantity may be missing.
type Meteo struct {
	PressureHPa    Optional
	AirTemp        Optional // °C
	WaterTemp      Optional // °C
	RelHumidity    Optional // %
	AbsHumidity    Optional // %
	DewPoint       Optional // °C
	WindDirTrue    Optional // degrees
	WindDirMag     Optional // degrees
	WindSpeedKnots Optional
}

// mdaFields is the fixed number of data fields in an MDA sentence.
const mdaFields = 20

// MDA returns a meteorological composite sentence:
//
//	$--MDA,x.x,I,x.x,B,x.x,C,x.x,C,x.x,x.x,x.x,C,x.x,T,x.x,M,x.x,N,x.x,M*hh
//
// Missing quantities leave their whole group empty; the sentence always
// carries 20 data fields.
func MDA(talker string, m Meteo) string {
	data := make([]string, 0, mdaFields)

	data = append(data, m.PressureHPa.fields(4, func(v float64) []string {
		return []string{pressure3.format(v / HPAToInHg), "I", pressure3.format(v / HPAPerBar), "B"}
	})...)
	data = append(data, m.AirTemp.fields(2, func(v float64) []string {
		return []string{temperature.format(v), "C"}
	})...)
	data = append(data, m.WaterTemp.fields(2, func(v float64) []string {
		return []string{temperature.format(v), "C"}
	})...)
	data = append(data, m.RelHumidity.fields(1, func(v float64) []string {
		return []string{percent.format(v)}
	})...)
	data = append(data, m.AbsHumidity.fields(1, func(v float64) []string {
		return []string{percent.format(v)}
	})...)
	data = append(data, m.DewPoint.fields(2, func(v float64) []string {
		return []string{direction.format(v), "C"}
	})...)
	data = append(data, m.WindDirTrue.fields(2, func(v float64) []string {
		return []string{temperature.format(v), "T"}
	})...)
	data = append(data, m.WindDirMag.fields(2, func(v float64) []string {
		return []string{temperature.format(v), "M"}
	})...)
	data = append(data, m.WindSpeedKnots.fields(4, func(v float64) []string {
		return []string{speed.format(v), "N", speed.format(v * 1.852 / 3.6), "M"}
	})...)

	return newSentence(talker, "MDA", data...).String()
}

// MDAFromSentinels is MDA for callers using the NoValue convention.
func MDAFromSentinels(talker string, pressureHPa, airTemp, waterTemp, relHumidity, absHumidity, dewPoint, windDirTrue, windDirMag, windSpeedKnots float64) string {
	return MDA(talker, Meteo{
		PressureHPa:    FromSentinel(pressureHPa),
		AirTemp:        FromSentinel(airTemp),
		WaterTemp:      FromSentinel(waterTemp),
		RelHumidity:    FromSentinel(relHumidity),
		AbsHumidity:    FromSentinel(absHumidity),
		DewPoint:       FromSentinel(dewPoint),
		WindDirTrue:    FromSentinel(windDirTrue),
		WindDirMag:     FromSentinel(windDirMag),
		WindSpeedKnots: FromSentinel(windSpeedKnots),
	})
}
