// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package pool

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// DefaultBuffer is the number of sentences a client may lag behind before
// it starts missing sentences.
const DefaultBuffer = 64

type Client struct {
	Name string
	Send chan []byte
}

func NewClient(name string, buffer int) *Client {
	return &Client{Name: name, Send: make(chan []byte, buffer)}
}

// Pool fans every sentence received on Broadcast out to all registered
// clients, terminated by CRLF. A client whose buffer is full misses the
// sentence instead of holding up the others.
type Pool struct {
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan []byte

	clients map[*Client]bool
	logger  *log.Logger

	count   atomic.Int64
	sent    atomic.Uint64
	bytes   atomic.Uint64
	dropped atomic.Uint64
}

// Stats are counters since the pool started.
type Stats struct {
	Sentences uint64 // sentences broadcast
	Bytes     uint64 // bytes handed to clients
	Dropped   uint64 // sentences missed by lagging clients
}

func New(logger *log.Logger) *Pool {
	return &Pool{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan []byte),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

// Start runs the pool until ctx is done. Send channels of clients still
// registered at that point are closed.
func (p *Pool) Start(ctx context.Context) {
	defer func() {
		for c := range p.clients {
			p.remove(c)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-p.Register:
			p.clients[c] = true
			p.count.Add(1)
			p.logger.Info("client connected", "client", c.Name, "clients", len(p.clients))
		case c := <-p.Unregister:
			if p.clients[c] {
				p.remove(c)
				p.logger.Info("client disconnected", "client", c.Name, "clients", len(p.clients))
			}
		case msg := <-p.Broadcast:
			p.broadcast(msg)
		}
	}
}

func (p *Pool) remove(c *Client) {
	delete(p.clients, c)
	close(c.Send)
	p.count.Add(-1)
}

func (p *Pool) broadcast(msg []byte) {
	line := make([]byte, 0, len(msg)+2)
	line = append(line, msg...)
	line = append(line, '\r', '\n')

	p.sent.Add(1)
	for c := range p.clients {
		select {
		case c.Send <- line:
			p.bytes.Add(uint64(len(line)))
		default:
			p.dropped.Add(1)
			p.logger.Debug("client lagging, sentence dropped", "client", c.Name)
		}
	}
}

// Len is the number of registered clients.
func (p *Pool) Len() int {
	return int(p.count.Load())
}

func (p *Pool) Stats() Stats {
	return Stats{
		Sentences: p.sent.Load(),
		Bytes:     p.bytes.Load(),
		Dropped:   p.dropped.Load(),
	}
}

// Attach registers a client named name and copies everything broadcast to
// w until ctx is done, the pool stops or a write fails. The write error, if
// any, is returned.
func (p *Pool) Attach(ctx context.Context, name string, w io.Writer) error {
	c := NewClient(name, DefaultBuffer)

	select {
	case p.Register <- c:
	case <-ctx.Done():
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			p.detach(c)
			return nil
		case msg, ok := <-c.Send:
			if !ok {
				// pool stopped
				return nil
			}
			if _, err := w.Write(msg); err != nil {
				p.detach(c)
				return fmt.Errorf("pool.Attach(): %s: %w", name, err)
			}
		}
	}
}

// detach unregisters c and drains its channel so the pool never blocks on
// it.
func (p *Pool) detach(c *Client) {
	for {
		select {
		case p.Unregister <- c:
			return
		case _, ok := <-c.Send:
			if !ok {
				return
			}
		}
	}
}
