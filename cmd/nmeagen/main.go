// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	gonmea "github.com/adrianmo/go-nmea"
	"github.com/spf13/pflag"

	"gitlab.com/postmarketOS/nmea_share/internal/nmea"
)

var errUsage = errors.New("invalid usage")

// absent marks a missing MDA quantity on the command line.
const absent = "-"

func main() {
	err := run(os.Args[1:], os.Stdout, time.Now)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func usage(flags *pflag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "usage: nmeagen [OPTION...] COMMAND [ARG...]")
	fmt.Fprintln(w, "Options:")
	fmt.Fprint(w, flags.FlagUsages())
	fmt.Fprintln(w, "Commands:")
	for _, c := range [][2]string{
		{"rmc LAT LON SOG COG VAR [TIME]", "Position and course. TIME is RFC 3339, default now."},
		{"mwv SPEED ANGLE [R|T]", "Wind angle and speed, apparent (R) by default."},
		{"vwt KNOTS ANGLE", "True wind relative to the bow, negative ANGLE is port."},
		{"mwd DIR KNOTS VAR", "True wind direction and speed."},
		{"mmb HPA", "Barometric pressure."},
		{"mta CELSIUS", "Air temperature."},
		{"mda P AIR WATER RH AH DEW TDIR MDIR KNOTS", "Meteorological composite, \"-\" for absent values."},
		{"xdr TYPE:VALUE[:NAME]...", "Transducer readings, e.g. pressure_bar:1.0136:BMP180."},
		{"vhw KNOTS HEADING", "Water speed and heading."},
		{"hdm HEADING", "Magnetic heading."},
		{"vdr KNOTS TRUE MAG", "Current set and drift."},
		{"demo", "Print a sample of every sentence with its checksum verdict."},
	} {
		fmt.Fprintf(w, "  %-42s\t%s\n", c[0], c[1])
	}
}

func run(args []string, w io.Writer, now func() time.Time) error {
	flags := pflag.NewFlagSet("nmeagen", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	// negative numbers after the command are arguments, not flags
	flags.SetInterspersed(false)
	talker := flags.StringP("talker", "t", "II", "Two character talker ID.")
	help := flags.BoolP("help", "h", false, "Print help and quit.")

	if err := flags.Parse(args); err != nil {
		usage(flags, w)
		return fmt.Errorf("%w: %s", errUsage, err)
	}

	if *help {
		usage(flags, w)
		return nil
	}

	if !validTalker(*talker) {
		return fmt.Errorf("invalid talker %q: must be two ASCII characters", *talker)
	}

	cmd, rest := flags.Arg(0), flags.Args()
	if len(rest) > 0 {
		rest = rest[1:]
	}

	if cmd == "demo" {
		demo(w, now().UTC())
		return nil
	}

	s, err := generate(*talker, strings.ToLower(cmd), rest, now)
	if err != nil {
		if errors.Is(err, errUsage) {
			usage(flags, w)
		}
		return err
	}
	fmt.Fprintln(w, s)
	return nil
}

func validTalker(t string) bool {
	if len(t) != 2 {
		return false
	}
	for i := 0; i < len(t); i++ {
		if t[i] <= ' ' || t[i] > '~' || t[i] == ',' || t[i] == '*' || t[i] == '$' {
			return false
		}
	}
	return true
}

func generate(talker, cmd string, args []string, now func() time.Time) (string, error) {
	switch cmd {
	case "rmc":
		if len(args) != 5 && len(args) != 6 {
			return "", argCount(cmd, "5 or 6", args)
		}
		v, err := floats(args[:5])
		if err != nil {
			return "", err
		}
		ts := now().UTC()
		if len(args) == 6 {
			if ts, err = time.Parse(time.RFC3339, args[5]); err != nil {
				return "", fmt.Errorf("invalid argument %q: %w", args[5], err)
			}
		}
		return nmea.RMC(talker, ts, v[0], v[1], v[2], v[3], v[4]), nil
	case "mwv":
		if len(args) != 2 && len(args) != 3 {
			return "", argCount(cmd, "2 or 3", args)
		}
		v, err := floats(args[:2])
		if err != nil {
			return "", err
		}
		ref := nmea.ApparentWind
		if len(args) == 3 {
			switch strings.ToUpper(args[2]) {
			case "R":
			case "T":
				ref = nmea.TrueWind
			default:
				return "", fmt.Errorf("invalid reference %q: must be R or T", args[2])
			}
		}
		return nmea.MWV(talker, v[0], v[1], ref), nil
	case "vwt":
		v, err := exactly(cmd, args, 2)
		if err != nil {
			return "", err
		}
		return nmea.VWT(talker, v[0], v[1]), nil
	case "mwd":
		v, err := exactly(cmd, args, 3)
		if err != nil {
			return "", err
		}
		return nmea.MWD(talker, v[0], v[1], v[2]), nil
	case "mmb":
		v, err := exactly(cmd, args, 1)
		if err != nil {
			return "", err
		}
		return nmea.MMB(talker, v[0]), nil
	case "mta":
		v, err := exactly(cmd, args, 1)
		if err != nil {
			return "", err
		}
		return nmea.MTA(talker, v[0]), nil
	case "mda":
		if len(args) != 9 {
			return "", argCount(cmd, "9", args)
		}
		o := make([]nmea.Optional, len(args))
		for i, a := range args {
			if a == absent {
				continue
			}
			f, err := parseFloat(a)
			if err != nil {
				return "", err
			}
			o[i] = nmea.Some(f)
		}
		return nmea.MDA(talker, nmea.Meteo{
			PressureHPa:    o[0],
			AirTemp:        o[1],
			WaterTemp:      o[2],
			RelHumidity:    o[3],
			AbsHumidity:    o[4],
			DewPoint:       o[5],
			WindDirTrue:    o[6],
			WindDirMag:     o[7],
			WindSpeedKnots: o[8],
		}), nil
	case "xdr":
		if len(args) == 0 {
			return "", argCount(cmd, "at least 1", args)
		}
		readings := make([]nmea.Transducer, 0, len(args))
		for _, a := range args {
			r, err := transducer(a)
			if err != nil {
				return "", err
			}
			readings = append(readings, r)
		}
		return nmea.XDR(talker, readings[0], readings[1:]...), nil
	case "vhw":
		v, err := exactly(cmd, args, 2)
		if err != nil {
			return "", err
		}
		return nmea.VHW(talker, v[0], v[1]), nil
	case "hdm":
		v, err := exactly(cmd, args, 1)
		if err != nil {
			return "", err
		}
		return nmea.HDM(talker, v[0]), nil
	case "vdr":
		v, err := exactly(cmd, args, 3)
		if err != nil {
			return "", err
		}
		return nmea.VDR(talker, v[0], v[1], v[2]), nil
	case "":
		return "", fmt.Errorf("%w: no command", errUsage)
	default:
		return "", fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func transducer(arg string) (nmea.Transducer, error) {
	parts := strings.SplitN(arg, ":", 3)
	if len(parts) < 2 {
		return nmea.Transducer{}, fmt.Errorf("invalid transducer %q: want TYPE:VALUE[:NAME]", arg)
	}
	typ, err := nmea.ParseTransducerType(parts[0])
	if err != nil {
		return nmea.Transducer{}, err
	}
	v, err := parseFloat(parts[1])
	if err != nil {
		return nmea.Transducer{}, err
	}
	t := nmea.Transducer{Type: typ, Value: v}
	if len(parts) == 3 {
		t.Name = parts[2]
	}
	return t, nil
}

func exactly(cmd string, args []string, n int) ([]float64, error) {
	if len(args) != n {
		return nil, argCount(cmd, strconv.Itoa(n), args)
	}
	return floats(args)
}

func floats(args []string) ([]float64, error) {
	v := make([]float64, len(args))
	for i, a := range args {
		f, err := parseFloat(a)
		if err != nil {
			return nil, err
		}
		v[i] = f
	}
	return v, nil
}

// parseFloat rejects NaN and infinities, which have no NMEA rendering.
func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid argument %q: %w", s, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid argument %q: not a finite number", s)
	}
	return f, nil
}

func argCount(cmd, want string, args []string) error {
	return fmt.Errorf("%w: %s takes %s arguments, got %d", errUsage, cmd, want, len(args))
}

func demo(w io.Writer, ts time.Time) {
	check := func(label, s string) {
		fmt.Fprintf(w, "%s: %s\n", label, s)
		if validChecksum(s) {
			fmt.Fprintln(w, "Valid!")
		} else {
			fmt.Fprintln(w, "Invalid...")
		}
	}

	check("Generated RMC", nmea.RMC("II", ts, 38.25, -122.5, 6.7, 210, 3))
	check("Generated MWV", nmea.MWVApparent("II", 23.45, 110))
	check("Generated VHW", nmea.VHW("II", 8.5, 110))
	check("Generated MMB", nmea.MMB("II", 1013.6))
	check("Generated MTA", nmea.MTA("II", 20.5))
	pressure := nmea.Transducer{Type: nmea.PressureBar, Value: 1.0136, Name: "BMP180"}
	check("Generated XDR", nmea.XDR("II", pressure))
	check("Generated XDR", nmea.XDR("II", pressure, nmea.Transducer{Type: nmea.Temperature, Value: 15.5, Name: "BMP180"}))
	check("Generated MDA", nmea.MDAFromSentinels("II", 1013.25, 25, 12, 75, 50, 9, 270, 255, 12))
	check("Generated MDA", nmea.MDAFromSentinels("WI", 1009, 31.7, nmea.NoValue, nmea.NoValue, nmea.NoValue, nmea.NoValue, 82.3, 72.3, 7.4))
	check("Copied MDA   ", "$WIMDA,29.796,I,1.009,B,31.7,C,,,,,,,82.3,T,72.3,M,7.4,N,3.8,M*23")
	check("Generated VWT", nmea.VWT("II", 16, 96))
	check("Generated MWD", nmea.MWD("II", 289, 20.9, 15))
}

// validChecksum verifies s with an independent NMEA implementation.
func validChecksum(s string) bool {
	star := strings.LastIndexByte(s, '*')
	if !strings.HasPrefix(s, "$") || star < 0 {
		return false
	}
	return strings.EqualFold(s[star+1:], gonmea.Checksum(s[1:star]))
}
