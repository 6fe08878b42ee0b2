// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package instrument

import (
	"context"
	"math"
	"time"

	"gitlab.com/postmarketOS/nmea_share/internal/nmea"
	"gitlab.com/postmarketOS/nmea_share/internal/sim"
)

// Instrument produces NMEA sentences on sendCh until ctx is done.
type Instrument interface {
	Start(ctx context.Context, sendCh chan<- []byte) error
}

// Encode renders the sentences of type id for state st. It returns nothing
// when st lacks the quantities id needs. MWV yields the apparent and the true
// wind sentence when both are known.
func Encode(talker, id string, ts time.Time, st sim.State) []string {
	switch id {
	case "RMC":
		return []string{nmea.RMC(talker, ts, st.LatDeg, st.LonDeg, st.SOGKt, st.COGDeg, st.VariationDeg)}
	case "MWV":
		var out []string
		if st.AWSKt.Valid && st.AWADeg.Valid {
			out = append(out, nmea.MWV(talker, st.AWSKt.Value, st.AWADeg.Value, nmea.ApparentWind))
		}
		if st.TWSKt.Valid && st.TWADeg.Valid {
			out = append(out, nmea.MWV(talker, st.TWSKt.Value, st.TWADeg.Value, nmea.TrueWind))
		}
		return out
	case "VWT":
		if st.TWSKt.Valid && st.TWADeg.Valid {
			return []string{nmea.VWT(talker, st.TWSKt.Value, st.TWADeg.Value)}
		}
	case "MWD":
		if st.TWDDeg.Valid && st.TWSKt.Valid {
			return []string{nmea.MWD(talker, st.TWDDeg.Value, st.TWSKt.Value, st.VariationDeg)}
		}
	case "MMB":
		if st.PressureHPa.Valid {
			return []string{nmea.MMB(talker, st.PressureHPa.Value)}
		}
	case "MTA":
		if st.AirTempC.Valid {
			return []string{nmea.MTA(talker, st.AirTempC.Value)}
		}
	case "MDA":
		m := meteo(st)
		if m != (nmea.Meteo{}) {
			return []string{nmea.MDA(talker, m)}
		}
	case "XDR":
		if len(st.Transducers) > 0 {
			return []string{nmea.XDR(talker, st.Transducers[0], st.Transducers[1:]...)}
		}
	case "VHW":
		if st.STWKt.Valid && st.HeadingDeg.Valid {
			return []string{nmea.VHW(talker, st.STWKt.Value, st.HeadingDeg.Value)}
		}
	case "HDM":
		if st.HeadingDeg.Valid {
			return []string{nmea.HDM(talker, st.HeadingDeg.Value)}
		}
	case "VDR":
		if st.CurrentSetDeg.Valid && st.CurrentDriftKt.Valid {
			set := st.CurrentSetDeg.Value
			return []string{nmea.VDR(talker, st.CurrentDriftKt.Value, set, magnetic(set, st.VariationDeg))}
		}
	}
	return nil
}

func meteo(st sim.State) nmea.Meteo {
	m := nmea.Meteo{
		PressureHPa:    st.PressureHPa,
		AirTemp:        st.AirTempC,
		WaterTemp:      st.WaterTempC,
		RelHumidity:    st.RelHumidity,
		AbsHumidity:    st.AbsHumidity,
		DewPoint:       st.DewPointC,
		WindDirTrue:    st.TWDDeg,
		WindSpeedKnots: st.TWSKt,
	}
	if st.TWDDeg.Valid {
		m.WindDirMag = nmea.Some(magnetic(st.TWDDeg.Value, st.VariationDeg))
	}
	return m
}

// magnetic converts a true bearing to magnetic, in [0, 360).
func magnetic(trueDeg, variation float64) float64 {
	m := math.Mod(trueDeg-variation, 360)
	if m < 0 {
		m += 360
	}
	return m
}
