// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !linux

package sink

import "errors"

type Pty struct{}

func OpenPty(link string) (*Pty, error) {
	return nil, errors.New("sink.OpenPty(): pseudo terminals are only supported on linux")
}

func (p *Pty) Name() string                { return "" }
func (p *Pty) Write(b []byte) (int, error) { return 0, errors.ErrUnsupported }
func (p *Pty) Close() error                { return nil }
