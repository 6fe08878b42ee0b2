// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package nmea

import (
	"fmt"
	"strconv"
)

// TransducerType is one of the transducer kinds an XDR sentence can carry.
type TransducerType int

const (
	Temperature         TransducerType = iota // C, degrees Celsius
	AngularDisplacement                       // A, degrees; negative is anti-clockwise
	LinearDisplacement                        // D, meters; negative is compression
	Frequency                                 // F, Hertz
	Force                                     // N, Newton; negative is compression
	PressureBar                               // P, bars; negative is vacuum
	PressurePascal                            // P, pascals; negative is vacuum
	FlowRate                                  // R, liters/second
	Tachometer                                // T, RPM
	Humidity                                  // H, percent
	Volume                                    // V, cubic meters
	Generic                                   // G, no unit
	Current                                   // I, amperes
	Voltage                                   // U, volts
	SwitchOrValve                             // S, no unit; 1 is on/closed, 0 off/open
	Salinity                                  // L, parts per thousand
)

// TransducerTypes lists every TransducerType in declaration order.
var TransducerTypes = []TransducerType{
	Temperature, AngularDisplacement, LinearDisplacement, Frequency, Force,
	PressureBar, PressurePascal, FlowRate, Tachometer, Humidity, Volume,
	Generic, Current, Voltage, SwitchOrValve, Salinity,
}

// Letters returns the type and unit fields for t.
func (t TransducerType) Letters() (typ, unit string) {
	switch t {
	case Temperature:
		return "C", "C"
	case AngularDisplacement:
		return "A", "D"
	case LinearDisplacement:
		return "D", "M"
	case Frequency:
		return "F", "H"
	case Force:
		return "N", "N"
	case PressureBar:
		return "P", "B"
	case PressurePascal:
		return "P", "P"
	case FlowRate:
		return "R", "l"
	case Tachometer:
		return "T", "R"
	case Humidity:
		return "H", "P"
	case Volume:
		return "V", "M"
	case Generic:
		return "G", ""
	case Current:
		return "I", "A"
	case Voltage:
		return "U", "V"
	case SwitchOrValve:
		return "S", ""
	case Salinity:
		return "L", "S"
	}
	panic(fmt.Sprintf("nmea: unknown transducer type %d", int(t)))
}

func (t TransducerType) String() string {
	switch t {
	case Temperature:
		return "temperature"
	case AngularDisplacement:
		return "angular_displacement"
	case LinearDisplacement:
		return "linear_displacement"
	case Frequency:
		return "frequency"
	case Force:
		return "force"
	case PressureBar:
		return "pressure_bar"
	case PressurePascal:
		return "pressure_pascal"
	case FlowRate:
		return "flow_rate"
	case Tachometer:
		return "tachometer"
	case Humidity:
		return "humidity"
	case Volume:
		return "volume"
	case Generic:
		return "generic"
	case Current:
		return "current"
	case Voltage:
		return "voltage"
	case SwitchOrValve:
		return "switch_or_valve"
	case Salinity:
		return "salinity"
	}
	return "TransducerType(" + strconv.Itoa(int(t)) + ")"
}

// ParseTransducerType is the inverse of TransducerType.String.
func ParseTransducerType(s string) (TransducerType, error) {
	for _, t := range TransducerTypes {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("nmea.ParseTransducerType(): unknown transducer type %q", s)
}

func (t TransducerType) value(v float64) string {
	switch t {
	case PressureBar:
		return pressure4.format(v)
	case PressurePascal:
		return pascal.format(v)
	case Temperature:
		return temperature.format(v)
	default:
		return plain(v)
	}
}

// Transducer is one XDR measurement. Name identifies the physical sensor
// for the caller; it is not part of the wire form, where transducers are
// identified by their position in the sentence.
type Transducer struct {
	Type  TransducerType
	Value float64
	Name  string
}

// XDR returns a transducer measurement sentence carrying one 4-field group
// (type, value, unit, index) per reading, in order.
func XDR(talker string, first Transducer, next ...Transducer) string {
	readings := append([]Transducer{first}, next...)

	data := make([]string, 0, 4*len(readings))
	for i, r := range readings {
		typ, unit := r.Type.Letters()
		data = append(data, typ, r.Type.value(r.Value), unit, strconv.Itoa(i))
	}

	return newSentence(talker, "XDR", data...).String()
}
