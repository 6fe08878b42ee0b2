// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package nmea

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerators(t *testing.T) {
	ts := time.Date(2024, time.March, 7, 14, 30, 15, 0, time.UTC)
	y2k := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

	tables := []struct {
		name     string
		out      string
		expected string
	}{
		{"RMC", RMC("II", ts, 38.25, -122.5, 6.7, 210, 3), "$IIRMC,143015,A,3815.000,N,12230.000,W,006.7,210.0,070324,003.0,E*7F"},
		{"RMC south east west variation", RMC("GP", y2k, -33.8568, 151.2153, 0, 359.95, -12.4), "$GPRMC,000000,A,3351.408,S,15112.918,E,000.0,360.0,010100,012.4,W*75"},
		{"MWV apparent", MWVApparent("II", 23.45, 110), "$IIMWV,110.0,R,023.5,N,A*39"},
		{"MWV true negative angle", MWV("II", 5, -30, TrueWind), "$IIMWV,330.0,T,005.0,N,A*3E"},
		{"VWT starboard", VWT("II", 16, 96), "$IIVWT,96.0,R,16.0,N,8.2,M,29.6,K*70"},
		{"VWT port", VWT("II", 12.5, -45), "$IIVWT,45.0,L,12.5,N,6.4,M,23.2,K*67"},
		{"MWD", MWD("II", 289, 20.9, 15.0), "$IIMWD,289.0,T,274.0,M,20.9,N,10.8,M*44"},
		{"MWD wrap below zero", MWD("II", 10, 5, 20), "$IIMWD,010.0,T,350.0,M,5.0,N,2.6,M*42"},
		{"MWD wrap above 360", MWD("II", 350, 5, -20), "$IIMWD,350.0,T,010.0,M,5.0,N,2.6,M*42"},
		{"MMB", MMB("II", 1013.6), "$IIMMB,29.9316,I,1.0136,B*7A"},
		{"MTA", MTA("II", 20.5), "$IIMTA,20.5,C*02"},
		{"VDR", VDR("II", 1.2, 45, 30.5), "$IIVDR,45.0,T,30.5,M,1.2,N*3D"},
		{"VHW", VHW("II", 8.5, 110), "$IIVHW,,,110,M,08.500,N,,*69"},
		{"HDM", HDM("II", 110), "$IIHDM,110,M*3C"},
		{"HDM padded", HDM("II", 5), "$IIHDM,005,M*39"},
		{"XDR single", XDR("II", Transducer{PressureBar, 1.0136, "BMP180"}), "$IIXDR,P,1.0136,B,0*77"},
		{"XDR pair", XDR("II", Transducer{PressureBar, 1.0136, "BMP180"}, Transducer{Temperature, 15.5, "BMP180"}), "$IIXDR,P,1.0136,B,0,C,15.5,C,1*59"},
		{"XDR mixed", XDR("II", Transducer{PressurePascal, 101360, "BMP180"}, Transducer{Humidity, 65.25, "HTU21D"}, Transducer{Voltage, 12, "HOUSE"}), "$IIXDR,P,101360,P,0,H,65.25,P,1,U,12.0,V,2*54"},
		{"MDA complete", MDAFromSentinels("II", 1013.25, 25, 12, 75, 50, 9, 270, 255, 12), "$IIMDA,29.921,I,1.013,B,25.0,C,12.0,C,75,50,9,C,270.0,T,255.0,M,12.0,N,6.2,M*22"},
		{"MDA partial", MDAFromSentinels("WI", 1009, 31.7, NoValue, NoValue, NoValue, NoValue, 82.3, 72.3, 7.4), "$WIMDA,29.796,I,1.009,B,31.7,C,,,,,,,82.3,T,72.3,M,7.4,N,3.8,M*23"},
		{"MDA empty", MDA("WI", Meteo{}), "$WIMDA,,,,,,,,,,,,,,,,,,,,*56"},
	}

	for _, table := range tables {
		assert.Equal(t, table.expected, table.out, table.name)
	}
}

func TestMDAMagneticIndependentOfTrue(t *testing.T) {
	out := MDA("WI", Meteo{WindDirMag: Some(72.3)})
	assert.Contains(t, out, ",,72.3,M,")

	out = MDA("WI", Meteo{WindDirTrue: Some(82.3)})
	assert.Contains(t, out, ",82.3,T,,,")
}

func TestMDAFieldCount(t *testing.T) {
	full := MDAFromSentinels("II", 1013.25, 25, 12, 75, 50, 9, 270, 255, 12)
	sparse := MDAFromSentinels("II", NoValue, 25, NoValue, 75, NoValue, 9, NoValue, 255, NoValue)
	assert.Equal(t, strings.Count(full, ","), strings.Count(sparse, ","))
	assert.Equal(t, mdaFields, strings.Count(full, ","))
}

func TestFromSentinel(t *testing.T) {
	assert.Equal(t, None, FromSentinel(NoValue))
	assert.Equal(t, Some(-1), FromSentinel(-1))
	// the sentinel is not the smallest magnitude
	assert.Equal(t, Some(0), FromSentinel(0))
}

func TestTransducerCatalog(t *testing.T) {
	expected := map[TransducerType][2]string{
		Temperature:         {"C", "C"},
		AngularDisplacement: {"A", "D"},
		LinearDisplacement:  {"D", "M"},
		Frequency:           {"F", "H"},
		Force:               {"N", "N"},
		PressureBar:         {"P", "B"},
		PressurePascal:      {"P", "P"},
		FlowRate:            {"R", "l"},
		Tachometer:          {"T", "R"},
		Humidity:            {"H", "P"},
		Volume:              {"V", "M"},
		Generic:             {"G", ""},
		Current:             {"I", "A"},
		Voltage:             {"U", "V"},
		SwitchOrValve:       {"S", ""},
		Salinity:            {"L", "S"},
	}

	assert.Len(t, TransducerTypes, len(expected))
	for _, tt := range TransducerTypes {
		for i := 0; i < 2; i++ {
			typ, unit := tt.Letters()
			assert.Equal(t, expected[tt], [2]string{typ, unit}, tt.String())
		}

		parsed, err := ParseTransducerType(tt.String())
		assert.NoError(t, err)
		assert.Equal(t, tt, parsed)
	}

	_, err := ParseTransducerType("torque")
	assert.Error(t, err)
	assert.Panics(t, func() { TransducerType(99).Letters() })
}
