// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package sim

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/postmarketOS/nmea_share/internal/nmea"
)

const passage = `
version: 1
# duration derived from last keyframe
keyframes:
  - t: 0s
    lat_deg: 0
    lon_deg: 0
    sog_kt: 4
    cog_deg: 350
    variation_deg: 2
    heading_deg: 350
    awa_deg: 170
    pressure_hpa: 1010
    air_temp_c: 20
    transducers:
      - {type: voltage, name: HOUSE, value: 12.0}
      - {type: temperature, name: ENGINE, value: 60}
  - t: 10s
    lat_deg: 0
    lon_deg: 10
    sog_kt: 8
    cog_deg: 10
    variation_deg: 4
    heading_deg: 10
    awa_deg: -170
    pressure_hpa: 1020
    transducers:
      - {type: voltage, name: HOUSE, value: 13.0}
      - {type: temperature, name: EXHAUST, value: 300}
`

func TestScenarioParseAndInterpolate(t *testing.T) {
	script, err := ParseScript([]byte(passage))
	require.NoError(t, err)
	scn, err := New(script)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, scn.Duration())

	st := scn.StateAt(5*time.Second, false)

	// along the equator the great circle is the equator itself
	assert.InDelta(t, 0, st.LatDeg, 1e-9)
	assert.InDelta(t, 5, st.LonDeg, 1e-9)
	assert.InDelta(t, 6, st.SOGKt, 1e-9)
	assert.InDelta(t, 3, st.VariationDeg, 1e-9)
	// 350 -> 10 takes the short way through north
	assert.InDelta(t, 0, st.COGDeg, 1e-9)
	assert.True(t, st.HeadingDeg.Valid)
	assert.InDelta(t, 0, st.HeadingDeg.Value, 1e-9)
	// 170 -> -170 passes astern, not through the bow
	assert.True(t, st.AWADeg.Valid)
	assert.InDelta(t, 180, st.AWADeg.Value, 1e-9)
	assert.InDelta(t, 1015, st.PressureHPa.Value, 1e-9)

	// missing in the next keyframe: hold, missing in this one: absent
	assert.Equal(t, nmea.Some(20), st.AirTempC)
	assert.Equal(t, nmea.None, st.WaterTempC)
	assert.Equal(t, nmea.None, st.TWSKt)

	require.Len(t, st.Transducers, 2)
	assert.Equal(t, nmea.Voltage, st.Transducers[0].Type)
	assert.InDelta(t, 12.5, st.Transducers[0].Value, 1e-9)
	// different sensor names are not blended
	assert.Equal(t, nmea.Temperature, st.Transducers[1].Type)
	assert.Equal(t, "ENGINE", st.Transducers[1].Name)
	assert.InDelta(t, 60, st.Transducers[1].Value, 1e-9)
}

func TestScenarioGreatCircle(t *testing.T) {
	lat, lon := greatCircle(60, -10, 60, 10, 0.5)
	// the great circle between two points on a parallel bulges poleward
	assert.Greater(t, lat, 60.0)
	assert.InDelta(t, 0, lon, 1e-9)

	lat, lon = greatCircle(38.25, -122.5, 0, 0, 0)
	assert.Equal(t, 38.25, lat)
	assert.Equal(t, -122.5, lon)
}

func TestScenarioLoopAndClamp(t *testing.T) {
	script, err := ParseScript([]byte(`
version: 1
duration: 10s
keyframes:
  - t: 0s
    sog_kt: 0
  - t: 10s
    sog_kt: 10
`))
	require.NoError(t, err)
	scn, err := New(script)
	require.NoError(t, err)

	// Clamp (no loop): 11s -> end state.
	assert.InDelta(t, 10, scn.StateAt(11*time.Second, false).SOGKt, 1e-9)
	// Loop: 11s -> 1s.
	assert.InDelta(t, 1, scn.StateAt(11*time.Second, true).SOGKt, 1e-9)
	// Negative elapsed clamps to the start.
	assert.InDelta(t, 0, scn.StateAt(-time.Second, true).SOGKt, 1e-9)
}

func TestScenarioSingleKeyframe(t *testing.T) {
	scn, err := New(Script{Keyframes: []Keyframe{{LatDeg: 38.25, LonDeg: -122.5, SOGKt: 6.7}}})
	require.NoError(t, err)
	assert.Zero(t, scn.Duration())

	st := scn.StateAt(time.Hour, true)
	assert.Equal(t, 38.25, st.LatDeg)
	assert.Equal(t, -122.5, st.LonDeg)
	assert.Equal(t, 6.7, st.SOGKt)
}

func TestScenarioInvalid(t *testing.T) {
	tables := []struct {
		name string
		in   Script
	}{
		{"empty", Script{}},
		{"version", Script{Version: 2, Keyframes: []Keyframe{{}}}},
		{"unsorted", Script{Keyframes: []Keyframe{{T: time.Second}, {T: 0}}}},
		{"negative t", Script{Keyframes: []Keyframe{{T: -time.Second}}}},
		{"latitude", Script{Keyframes: []Keyframe{{LatDeg: 91}}}},
		{"longitude", Script{Keyframes: []Keyframe{{LonDeg: -181}}}},
		{"transducer", Script{Keyframes: []Keyframe{{Transducers: []TransducerKeyframe{{Type: "torque"}}}}}},
	}

	for _, table := range tables {
		_, err := New(table.in)
		assert.Error(t, err, table.name)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "passage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(passage), 0644))

	scn, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, scn.Duration())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestShippedScenario(t *testing.T) {
	scn, err := Load(filepath.Join("..", "..", "scenarios", "bay-passage.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, scn.Duration())

	for _, at := range []time.Duration{0, 6 * time.Minute, 13 * time.Minute, 29 * time.Minute} {
		st := scn.StateAt(at, true)
		assert.True(t, st.HeadingDeg.Valid, at)
		assert.True(t, st.PressureHPa.Valid, at)
		assert.False(t, st.AbsHumidity.Valid, at)
		assert.Len(t, st.Transducers, 3, at)
		assert.InDelta(t, 37.81, st.LatDeg, 0.02, at)
		assert.InDelta(t, -122.45, st.LonDeg, 0.05, at)
	}
}

func TestScenarioRejectsUnrenderableValues(t *testing.T) {
	tables := []struct {
		name  string
		field string
	}{
		{"infinite speed", "sog_kt: .inf"},
		{"negative infinity", "variation_deg: -.inf"},
		{"nan latitude", "lat_deg: .nan"},
		{"nan optional", "air_temp_c: .nan"},
		{"huge heading", "heading_deg: 1e300"},
		{"huge pressure", "pressure_hpa: -1e12"},
	}

	for _, table := range tables {
		script, err := ParseScript([]byte("version: 1\nkeyframes:\n  - t: 0s\n    " + table.field + "\n"))
		require.NoError(t, err, table.name)
		_, err = New(script)
		assert.Error(t, err, table.name)
	}

	script, err := ParseScript([]byte(`
keyframes:
  - t: 0s
    transducers:
      - {type: voltage, name: HOUSE, value: .inf}
`))
	require.NoError(t, err)
	_, err = New(script)
	assert.ErrorContains(t, err, "transducers[0].value")
}

func TestNormDeg(t *testing.T) {
	tables := []struct {
		in       float64
		expected float64
	}{
		{0, 0},
		{360, 0},
		{-10, 350},
		{725, 5},
		{-725, 355},
		{-1e-20, 0},
	}
	for _, table := range tables {
		assert.InDelta(t, table.expected, normDeg(table.in), 1e-9, table.in)
	}

	// large magnitudes wrap in constant time
	for _, in := range []float64{1e300, -1e300, 1e9} {
		v := normDeg(in)
		assert.GreaterOrEqual(t, v, 0.0, in)
		assert.Less(t, v, 360.0, in)
	}
}

func TestScenarioLargeAngles(t *testing.T) {
	scn, err := New(Script{Keyframes: []Keyframe{
		{T: 0, HeadingDeg: ptr(7200 + 350)},
		{T: 10 * time.Second, HeadingDeg: ptr(-7200 + 10)},
	}})
	require.NoError(t, err)

	st := scn.StateAt(5*time.Second, false)
	require.True(t, st.HeadingDeg.Valid)
	assert.InDelta(t, 0, st.HeadingDeg.Value, 1e-6)
}

func ptr(v float64) *float64 {
	return &v
}
