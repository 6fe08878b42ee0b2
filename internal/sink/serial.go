// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package sink

import (
	"fmt"

	"go.bug.st/serial"
)

// OpenSerial opens device 8N1 at baud for writing sentences.
func OpenSerial(device string, baud int) (Sink, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("sink.OpenSerial(): %s: %w", device, err)
	}
	return port, nil
}
