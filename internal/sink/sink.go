// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sink holds the outputs, besides the socket server, that the
// daemon attaches to the broadcast pool. Every sink receives complete CRLF
// terminated sentences through Write.
package sink

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"gitlab.com/postmarketOS/nmea_share/internal/pool"
)

type Sink interface {
	io.WriteCloser
}

// Run attaches s to p under name until ctx is done or a write fails, then
// closes s. Write failures are logged, not returned: a broken sink must
// not take the daemon down.
func Run(ctx context.Context, p *pool.Pool, name string, s Sink, logger *log.Logger) {
	// a sink can block in Write, e.g. a pty nobody reads; closing it
	// releases the writer
	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer func() {
		if stop() {
			s.Close()
		}
	}()

	if err := p.Attach(ctx, name, s); err != nil && ctx.Err() == nil {
		logger.Error("sink stopped", "sink", name, "err", err)
		return
	}
	logger.Debug("sink closed", "sink", name)
}
