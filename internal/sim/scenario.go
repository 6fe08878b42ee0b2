// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package sim

import (
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/golang/geo/s2"
	"gopkg.in/yaml.v3"

	"gitlab.com/postmarketOS/nmea_share/internal/nmea"
)

// Script is a keyframed description of what the onboard instruments read
// over time.
//
// Time is expressed as Go duration strings (e.g. "0s", "250ms", "10s"). If
// Duration is zero, it is derived from the latest keyframe time. Keyframes
// must use non-decreasing t values.
//
// YAML schema (v1):
//
//	version: 1
//	duration: 60s
//	keyframes:
//	  - t: 0s
//	    lat_deg: 38.25
//	    lon_deg: -122.5
//	    sog_kt: 6.7
//	    cog_deg: 210
//	    variation_deg: 13.5
//	    heading_deg: 205      # optional from here on
//	    stw_kt: 6.2
//	    aws_kt: 14
//	    awa_deg: -40          # relative, negative to port
//	    tws_kt: 11
//	    twa_deg: -55
//	    twd_deg: 160
//	    pressure_hpa: 1013.2
//	    air_temp_c: 18.5
//	    water_temp_c: 14
//	    rel_humidity: 70
//	    abs_humidity: 12
//	    dew_point_c: 13
//	    current_set_deg: 90
//	    current_drift_kt: 0.8
//	    transducers:
//	      - {type: voltage, name: HOUSE, value: 12.6}
//
// Optional quantities left out of a keyframe are reported as unavailable
// for the segment starting at that keyframe.
type Script struct {
	Version   int           `yaml:"version"`
	Duration  time.Duration `yaml:"duration"`
	Keyframes []Keyframe    `yaml:"keyframes"`
}

// Keyframe is a time-stamped instrument state.
type Keyframe struct {
	T            time.Duration `yaml:"t"`
	LatDeg       float64       `yaml:"lat_deg"`
	LonDeg       float64       `yaml:"lon_deg"`
	SOGKt        float64       `yaml:"sog_kt"`
	COGDeg       float64       `yaml:"cog_deg"`
	VariationDeg float64       `yaml:"variation_deg"`

	HeadingDeg     *float64 `yaml:"heading_deg"`
	STWKt          *float64 `yaml:"stw_kt"`
	AWSKt          *float64 `yaml:"aws_kt"`
	AWADeg         *float64 `yaml:"awa_deg"`
	TWSKt          *float64 `yaml:"tws_kt"`
	TWADeg         *float64 `yaml:"twa_deg"`
	TWDDeg         *float64 `yaml:"twd_deg"`
	PressureHPa    *float64 `yaml:"pressure_hpa"`
	AirTempC       *float64 `yaml:"air_temp_c"`
	WaterTempC     *float64 `yaml:"water_temp_c"`
	RelHumidity    *float64 `yaml:"rel_humidity"`
	AbsHumidity    *float64 `yaml:"abs_humidity"`
	DewPointC      *float64 `yaml:"dew_point_c"`
	CurrentSetDeg  *float64 `yaml:"current_set_deg"`
	CurrentDriftKt *float64 `yaml:"current_drift_kt"`

	Transducers []TransducerKeyframe `yaml:"transducers"`
}

// TransducerKeyframe is one XDR reading. Type is a nmea.TransducerType name
// such as "pressure_bar" or "voltage".
type TransducerKeyframe struct {
	Type  string  `yaml:"type"`
	Name  string  `yaml:"name"`
	Value float64 `yaml:"value"`
}

// Scenario is the validated, runtime representation.
type Scenario struct {
	script   Script
	duration time.Duration
	// transducer types resolved per keyframe
	types [][]nmea.TransducerType
}

// State is what the instruments read at one instant.
type State struct {
	LatDeg       float64
	LonDeg       float64
	SOGKt        float64
	COGDeg       float64
	VariationDeg float64

	HeadingDeg     nmea.Optional
	STWKt          nmea.Optional
	AWSKt          nmea.Optional
	AWADeg         nmea.Optional
	TWSKt          nmea.Optional
	TWADeg         nmea.Optional
	TWDDeg         nmea.Optional
	PressureHPa    nmea.Optional
	AirTempC       nmea.Optional
	WaterTempC     nmea.Optional
	RelHumidity    nmea.Optional
	AbsHumidity    nmea.Optional
	DewPointC      nmea.Optional
	CurrentSetDeg  nmea.Optional
	CurrentDriftKt nmea.Optional

	Transducers []nmea.Transducer
}

// LoadScript reads and unmarshals a YAML scenario script from path.
func LoadScript(path string) (Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("sim.LoadScript(): %w", err)
	}
	return ParseScript(b)
}

// ParseScript parses a YAML scenario script.
func ParseScript(b []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Script{}, fmt.Errorf("sim.ParseScript(): %w", err)
	}
	return s, nil
}

// Load reads, parses and validates the scenario at path.
func Load(path string) (*Scenario, error) {
	script, err := LoadScript(path)
	if err != nil {
		return nil, err
	}
	return New(script)
}

// New validates script and returns a runtime Scenario.
func New(script Script) (*Scenario, error) {
	if script.Version == 0 {
		script.Version = 1
	}
	if script.Version != 1 {
		return nil, fmt.Errorf("unsupported scenario version %d", script.Version)
	}
	if len(script.Keyframes) == 0 {
		return nil, fmt.Errorf("keyframes is required")
	}

	types := make([][]nmea.TransducerType, len(script.Keyframes))
	for i, kf := range script.Keyframes {
		if kf.T < 0 {
			return nil, fmt.Errorf("keyframes[%d].t must be >= 0", i)
		}
		if i > 0 && kf.T < script.Keyframes[i-1].T {
			return nil, fmt.Errorf("keyframes must be sorted by t (index %d)", i)
		}
		if kf.LatDeg < -90 || kf.LatDeg > 90 {
			return nil, fmt.Errorf("keyframes[%d].lat_deg out of range: %v", i, kf.LatDeg)
		}
		if kf.LonDeg < -180 || kf.LonDeg > 180 {
			return nil, fmt.Errorf("keyframes[%d].lon_deg out of range: %v", i, kf.LonDeg)
		}
		if err := kf.checkFinite(); err != nil {
			return nil, fmt.Errorf("keyframes[%d].%w", i, err)
		}
		for j, td := range kf.Transducers {
			tt, err := nmea.ParseTransducerType(td.Type)
			if err != nil {
				return nil, fmt.Errorf("keyframes[%d].transducers[%d]: %w", i, j, err)
			}
			if !finite(td.Value) {
				return nil, fmt.Errorf("keyframes[%d].transducers[%d].value out of range: %v", i, j, td.Value)
			}
			types[i] = append(types[i], tt)
		}
	}

	dur := script.Duration
	if dur <= 0 {
		dur = script.Keyframes[len(script.Keyframes)-1].T
	}

	return &Scenario{script: script, duration: dur, types: types}, nil
}

// maxMagnitude bounds every scenario value so interpolation cannot
// overflow and every value has a finite NMEA rendering.
const maxMagnitude = 1e9

func finite(v float64) bool {
	return !math.IsNaN(v) && math.Abs(v) <= maxMagnitude
}

// checkFinite rejects NaN, infinities and absurdly large values, which
// the encoder cannot render.
func (kf Keyframe) checkFinite() error {
	values := []struct {
		name string
		v    *float64
	}{
		{"lat_deg", &kf.LatDeg},
		{"lon_deg", &kf.LonDeg},
		{"sog_kt", &kf.SOGKt},
		{"cog_deg", &kf.COGDeg},
		{"variation_deg", &kf.VariationDeg},
		{"heading_deg", kf.HeadingDeg},
		{"stw_kt", kf.STWKt},
		{"aws_kt", kf.AWSKt},
		{"awa_deg", kf.AWADeg},
		{"tws_kt", kf.TWSKt},
		{"twa_deg", kf.TWADeg},
		{"twd_deg", kf.TWDDeg},
		{"pressure_hpa", kf.PressureHPa},
		{"air_temp_c", kf.AirTempC},
		{"water_temp_c", kf.WaterTempC},
		{"rel_humidity", kf.RelHumidity},
		{"abs_humidity", kf.AbsHumidity},
		{"dew_point_c", kf.DewPointC},
		{"current_set_deg", kf.CurrentSetDeg},
		{"current_drift_kt", kf.CurrentDriftKt},
	}
	for _, f := range values {
		if f.v != nil && !finite(*f.v) {
			return fmt.Errorf("%s out of range: %v", f.name, *f.v)
		}
	}
	return nil
}

// Duration returns the effective scenario duration. It is zero for a
// scenario made of a single keyframe at t=0, which then reads as constant.
func (s *Scenario) Duration() time.Duration {
	if s == nil {
		return 0
	}
	return s.duration
}

// StateAt computes the instrument state at elapsed.
//
// If loop is true, elapsed wraps around Duration(). Otherwise elapsed is
// clamped to [0, Duration()].
func (s *Scenario) StateAt(elapsed time.Duration, loop bool) State {
	if s == nil {
		return State{}
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if s.duration > 0 {
		if loop {
			elapsed = elapsed % s.duration
		} else if elapsed > s.duration {
			elapsed = s.duration
		}
	}

	i0, i1, alpha := s.segment(elapsed)
	k0, k1 := s.script.Keyframes[i0], s.script.Keyframes[i1]

	lat, lon := greatCircle(k0.LatDeg, k0.LonDeg, k1.LatDeg, k1.LonDeg, alpha)
	return State{
		LatDeg:       lat,
		LonDeg:       lon,
		SOGKt:        lerp(k0.SOGKt, k1.SOGKt, alpha),
		COGDeg:       lerpAngleDeg(k0.COGDeg, k1.COGDeg, alpha),
		VariationDeg: lerp(k0.VariationDeg, k1.VariationDeg, alpha),

		HeadingDeg:     lerpOpt(k0.HeadingDeg, k1.HeadingDeg, alpha, lerpAngleDeg),
		STWKt:          lerpOpt(k0.STWKt, k1.STWKt, alpha, lerp),
		AWSKt:          lerpOpt(k0.AWSKt, k1.AWSKt, alpha, lerp),
		AWADeg:         lerpOpt(k0.AWADeg, k1.AWADeg, alpha, lerpRelativeDeg),
		TWSKt:          lerpOpt(k0.TWSKt, k1.TWSKt, alpha, lerp),
		TWADeg:         lerpOpt(k0.TWADeg, k1.TWADeg, alpha, lerpRelativeDeg),
		TWDDeg:         lerpOpt(k0.TWDDeg, k1.TWDDeg, alpha, lerpAngleDeg),
		PressureHPa:    lerpOpt(k0.PressureHPa, k1.PressureHPa, alpha, lerp),
		AirTempC:       lerpOpt(k0.AirTempC, k1.AirTempC, alpha, lerp),
		WaterTempC:     lerpOpt(k0.WaterTempC, k1.WaterTempC, alpha, lerp),
		RelHumidity:    lerpOpt(k0.RelHumidity, k1.RelHumidity, alpha, lerp),
		AbsHumidity:    lerpOpt(k0.AbsHumidity, k1.AbsHumidity, alpha, lerp),
		DewPointC:      lerpOpt(k0.DewPointC, k1.DewPointC, alpha, lerp),
		CurrentSetDeg:  lerpOpt(k0.CurrentSetDeg, k1.CurrentSetDeg, alpha, lerpAngleDeg),
		CurrentDriftKt: lerpOpt(k0.CurrentDriftKt, k1.CurrentDriftKt, alpha, lerp),

		Transducers: s.transducers(i0, i1, alpha),
	}
}

// transducers interpolates readings of keyframe i0 towards i1. Readings are
// paired by position and only interpolated when both sides agree on type
// and name.
func (s *Scenario) transducers(i0, i1 int, alpha float64) []nmea.Transducer {
	from := s.script.Keyframes[i0].Transducers
	to := s.script.Keyframes[i1].Transducers
	if len(from) == 0 {
		return nil
	}

	out := make([]nmea.Transducer, len(from))
	for i, td := range from {
		v := td.Value
		if i < len(to) && to[i].Type == td.Type && to[i].Name == td.Name {
			v = lerp(td.Value, to[i].Value, alpha)
		}
		out[i] = nmea.Transducer{Type: s.types[i0][i], Value: v, Name: td.Name}
	}
	return out
}

func (s *Scenario) segment(t time.Duration) (int, int, float64) {
	kfs := s.script.Keyframes
	if len(kfs) == 1 {
		return 0, 0, 0
	}
	idx := sort.Search(len(kfs), func(i int) bool { return kfs[i].T > t })
	if idx <= 0 {
		return 0, 0, 0
	}
	if idx >= len(kfs) {
		last := len(kfs) - 1
		return last, last, 0
	}
	dt := kfs[idx].T - kfs[idx-1].T
	if dt <= 0 {
		return idx, idx, 0
	}
	alpha := float64(t-kfs[idx-1].T) / float64(dt)
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return idx - 1, idx, alpha
}

// greatCircle interpolates along the shortest great circle path between two
// positions.
func greatCircle(lat0, lon0, lat1, lon1, t float64) (float64, float64) {
	if t == 0 {
		return lat0, lon0
	}
	a := s2.PointFromLatLng(s2.LatLngFromDegrees(lat0, lon0))
	b := s2.PointFromLatLng(s2.LatLngFromDegrees(lat1, lon1))
	ll := s2.LatLngFromPoint(s2.Interpolate(t, a, b))
	return ll.Lat.Degrees(), ll.Lng.Degrees()
}

func lerpOpt(a, b *float64, t float64, f func(a, b, t float64) float64) nmea.Optional {
	switch {
	case a == nil:
		return nmea.None
	case b == nil:
		return nmea.Some(*a)
	default:
		return nmea.Some(f(*a, *b, t))
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// normDeg wraps x into [0, 360).
func normDeg(x float64) float64 {
	x = math.Mod(x, 360)
	if x < 0 {
		x += 360
	}
	// a tiny negative x rounds up to exactly 360
	if x >= 360 {
		x = 0
	}
	return x
}

// lerpAngleDeg interpolates headings along the shortest arc, in [0, 360).
func lerpAngleDeg(a0, a1, t float64) float64 {
	a0 = normDeg(a0)
	a1 = normDeg(a1)
	delta := a1 - a0
	if delta > 180 {
		delta -= 360
	} else if delta < -180 {
		delta += 360
	}
	return normDeg(a0 + delta*t)
}

// lerpRelativeDeg is lerpAngleDeg for bearings relative to the bow, in
// (-180, 180].
func lerpRelativeDeg(a0, a1, t float64) float64 {
	v := lerpAngleDeg(a0, a1, t)
	if v > 180 {
		v -= 360
	}
	return v
}
