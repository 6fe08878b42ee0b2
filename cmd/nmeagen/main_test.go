// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixed = func() time.Time {
	return time.Date(2024, time.March, 7, 14, 30, 15, 0, time.UTC)
}

func TestRun(t *testing.T) {
	tables := []struct {
		args     string
		expected string
	}{
		{"rmc 38.25 -122.5 6.7 210 3", "$IIRMC,143015,A,3815.000,N,12230.000,W,006.7,210.0,070324,003.0,E*7F"},
		{"rmc 38.25 -122.5 6.7 210 3 2024-03-07T14:30:15Z", "$IIRMC,143015,A,3815.000,N,12230.000,W,006.7,210.0,070324,003.0,E*7F"},
		{"mwv 23.45 110", "$IIMWV,110.0,R,023.5,N,A*39"},
		{"mwv 5 330 T", "$IIMWV,330.0,T,005.0,N,A*3E"},
		{"vwt 16 96", "$IIVWT,96.0,R,16.0,N,8.2,M,29.6,K*70"},
		{"vwt 12.5 -45", "$IIVWT,45.0,L,12.5,N,6.4,M,23.2,K*67"},
		{"mwd 289 20.9 15", "$IIMWD,289.0,T,274.0,M,20.9,N,10.8,M*44"},
		{"mmb 1013.6", "$IIMMB,29.9316,I,1.0136,B*7A"},
		{"MTA 20.5", "$IIMTA,20.5,C*02"},
		{"mda 1013.25 25 12 75 50 9 270 255 12", "$IIMDA,29.921,I,1.013,B,25.0,C,12.0,C,75,50,9,C,270.0,T,255.0,M,12.0,N,6.2,M*22"},
		{"-t WI mda 1009 31.7 - - - - 82.3 72.3 7.4", "$WIMDA,29.796,I,1.009,B,31.7,C,,,,,,,82.3,T,72.3,M,7.4,N,3.8,M*23"},
		{"-t WI mda - - - - - - - - -", "$WIMDA,,,,,,,,,,,,,,,,,,,,*56"},
		{"xdr pressure_bar:1.0136:BMP180 temperature:15.5:BMP180", "$IIXDR,P,1.0136,B,0,C,15.5,C,1*59"},
		{"xdr pressure_pascal:101360 humidity:65.25 voltage:12", "$IIXDR,P,101360,P,0,H,65.25,P,1,U,12.0,V,2*54"},
		{"vhw 8.5 110", "$IIVHW,,,110,M,08.500,N,,*69"},
		{"hdm 110", "$IIHDM,110,M*3C"},
		{"--talker II hdm 5", "$IIHDM,005,M*39"},
		{"vdr 1.2 45 30.5", "$IIVDR,45.0,T,30.5,M,1.2,N*3D"},
	}

	for _, table := range tables {
		var out bytes.Buffer
		err := run(strings.Fields(table.args), &out, fixed)
		require.NoError(t, err, table.args)
		assert.Equal(t, table.expected+"\n", out.String(), table.args)
	}
}

func TestRunErrors(t *testing.T) {
	tables := []struct {
		args  string
		usage bool
	}{
		{"", true},
		{"gga 1 2", true},
		{"mta", true},
		{"mda 1 2 3", true},
		{"xdr", true},
		{"--bogus mta 1", true},
		{"mta abc", false},
		{"mta NaN", false},
		{"mwv 1 2 Q", false},
		{"xdr torque:1", false},
		{"xdr voltage", false},
		{"rmc 1 2 3 4 5 yesterday", false},
		{"-t X mta 1", false},
		{"-t I, mta 1", false},
	}

	for _, table := range tables {
		var out bytes.Buffer
		err := run(strings.Fields(table.args), &out, fixed)
		require.Error(t, err, table.args)
		assert.Equal(t, table.usage, errors.Is(err, errUsage), table.args)
	}
}

func TestHelp(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-h"}, &out, fixed))
	assert.Contains(t, out.String(), "usage: nmeagen")
	assert.Contains(t, out.String(), "demo")
}

func TestDemo(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"demo"}, &out, fixed))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 24)
	assert.Equal(t, "Generated RMC: $IIRMC,143015,A,3815.000,N,12230.000,W,006.7,210.0,070324,003.0,E*7F", lines[0])
	assert.Equal(t, "Copied MDA   : $WIMDA,29.796,I,1.009,B,31.7,C,,,,,,,82.3,T,72.3,M,7.4,N,3.8,M*23", lines[18])
	for i := 1; i < len(lines); i += 2 {
		assert.Equal(t, "Valid!", lines[i], lines[i-1])
	}
}

func TestValidChecksum(t *testing.T) {
	assert.True(t, validChecksum("$IIHDM,110,M*3C"))
	assert.True(t, validChecksum("$IIHDM,110,M*3c"))
	assert.False(t, validChecksum("$IIHDM,111,M*3C"))
	assert.False(t, validChecksum("IIHDM,110,M*3C"))
	assert.False(t, validChecksum("$IIHDM,110,M"))
}
