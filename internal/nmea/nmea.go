// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

// Package nmea encodes measurements into NMEA 0183 sentences.
//
// Every generator in this package is a pure function: it takes a talker ID
// and physical values and returns a complete sentence, including the leading
// '$' and the trailing checksum, without CR/LF.
package nmea

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNonASCII is returned when a sentence body contains a byte outside the
// 7-bit ASCII range.
var ErrNonASCII = errors.New("nmea: non-ASCII byte in sentence body")

// SentenceIDs lists the sentence identifiers this package generates.
var SentenceIDs = []string{"RMC", "MWV", "VWT", "MWD", "MMB", "MTA", "MDA", "XDR", "VHW", "HDM", "VDR"}

// Sentence is an unencoded NMEA sentence. Type is the address field (talker
// ID followed by the sentence identifier, e.g. "IIMWV") and Data holds the
// positional fields. Empty strings are emitted as null fields.
type Sentence struct {
	Type string
	Data []string
}

// Checksum XORs every byte of body, which must be everything between '$'
// and '*'.
func Checksum(body string) (uint8, error) {
	var sum uint8
	for i := 0; i < len(body); i++ {
		if body[i] > 0x7F {
			return 0, fmt.Errorf("nmea.Checksum(): offset %d: %w", i, ErrNonASCII)
		}
		sum ^= body[i]
	}

	return sum, nil
}

func (s Sentence) body() string {
	var b strings.Builder
	b.WriteString(s.Type)
	for _, d := range s.Data {
		b.WriteByte(',')
		b.WriteString(d)
	}

	if len(s.Data) == 0 {
		// always make sure the type is followed by a comma if there is no data
		b.WriteByte(',')
	}
	return b.String()
}

// Encode renders the sentence as "$<body>*<hh>".
func (s Sentence) Encode() (string, error) {
	body := s.body()
	sum, err := Checksum(body)
	if err != nil {
		return "", fmt.Errorf("nmea.Sentence.Encode(): %q: %w", s.Type, err)
	}

	return fmt.Sprintf("$%s*%02X", body, sum), nil
}

// String is Encode for sentences whose body is known to be ASCII. It panics
// otherwise: a non-ASCII talker ID is a caller bug, not something to paper
// over.
func (s Sentence) String() string {
	str, err := s.Encode()
	if err != nil {
		panic(err)
	}
	return str
}

func newSentence(talker, id string, data ...string) Sentence {
	return Sentence{Type: talker + id, Data: data}
}
