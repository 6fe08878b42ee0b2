// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/user"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"

	"gitlab.com/postmarketOS/nmea_share/internal/pool"
)

type Server struct {
	socket    string
	sockGroup string
	connPool  *pool.Pool
	logger    *log.Logger

	mu   sync.Mutex
	sock net.Listener
}

// Create a new Server. Every connected client receives whatever is
// broadcast on connPool. If sockGroup is empty the socket keeps the group
// of the running process.
func New(socket string, sockGroup string, connPool *pool.Pool, logger *log.Logger) *Server {
	return &Server{
		socket:    socket,
		sockGroup: sockGroup,
		connPool:  connPool,
		logger:    logger,
	}
}

// Start listens on the socket and serves clients until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if err := os.RemoveAll(s.socket); err != nil {
		return fmt.Errorf("server.Start(): %w", err)
	}

	sock, err := net.Listen("unix", s.socket)
	if err != nil {
		return fmt.Errorf("server.Start(): %w", err)
	}
	defer sock.Close()

	if err := os.Chmod(s.socket, 0660); err != nil {
		return fmt.Errorf("server.Start(): %w", err)
	}

	if s.sockGroup != "" {
		if err := chgrp(s.socket, s.sockGroup); err != nil {
			return fmt.Errorf("server.Start(): %w", err)
		}
	}

	s.mu.Lock()
	s.sock = sock
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { sock.Close() })
	defer stop()

	s.logger.Info("accepting connections", "socket", s.socket)
	return s.connectionHandler(ctx, sock)
}

// Addr is the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sock == nil {
		return nil
	}
	return s.sock.Addr()
}

// Close stops accepting connections; Start then returns nil.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sock == nil {
		return nil
	}
	return s.sock.Close()
}

func chgrp(path string, name string) error {
	group, err := user.LookupGroup(name)
	if err != nil {
		return err
	}

	gid, err := strconv.ParseInt(group.Gid, 10, 32)
	if err != nil {
		return err
	}

	return os.Chown(path, -1, int(gid))
}

func (s *Server) connectionHandler(ctx context.Context, sock net.Listener) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for n := 1; ; n++ {
		conn, err := sock.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("server.connectionHandler(): %w", err)
		}

		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			s.clientConnection(ctx, name, conn)
		}(fmt.Sprintf("socket#%d", n))
	}
}

// Routine run for each client connection
func (s *Server) clientConnection(ctx context.Context, name string, conn net.Conn) {
	defer conn.Close()

	// closing the connection unblocks a write stuck on a stalled reader
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := s.connPool.Attach(ctx, name, conn); err != nil {
		s.logger.Debug("client write failed", "client", name, "err", err)
	}
}
