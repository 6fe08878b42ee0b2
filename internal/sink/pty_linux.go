// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build linux

package sink

import (
	"fmt"
	"os"
	"sync"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// Pty is a pseudo terminal that programs expecting a serial NMEA device can
// open. The slave side is kept open so writes don't fail while no reader
// is attached.
type Pty struct {
	ptmx *os.File
	tty  *os.File
	link string

	closeOnce sync.Once
	closeErr  error
}

// OpenPty allocates a pseudo terminal. If link is not empty a symlink to
// the tty is created there, replacing whatever was at that path.
func OpenPty(link string) (*Pty, error) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("sink.OpenPty(): %w", err)
	}

	p := &Pty{ptmx: ptmx, tty: tty}

	if err := makeRaw(int(tty.Fd())); err != nil {
		p.Close()
		return nil, fmt.Errorf("sink.OpenPty(): %w", err)
	}

	if link != "" {
		if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
			p.Close()
			return nil, fmt.Errorf("sink.OpenPty(): %w", err)
		}
		if err := os.Symlink(tty.Name(), link); err != nil {
			p.Close()
			return nil, fmt.Errorf("sink.OpenPty(): %w", err)
		}
		p.link = link
	}

	return p, nil
}

// makeRaw turns off line processing so sentences reach readers unchanged.
func makeRaw(fd int) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}

	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB
	t.Cflag |= unix.CS8
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0

	return unix.IoctlSetTermios(fd, unix.TCSETS, t)
}

// Name is the tty path readers open.
func (p *Pty) Name() string {
	return p.tty.Name()
}

func (p *Pty) Write(b []byte) (int, error) {
	return p.ptmx.Write(b)
}

func (p *Pty) Close() error {
	p.closeOnce.Do(func() {
		if p.link != "" {
			os.Remove(p.link)
		}
		if err := p.ptmx.Close(); err != nil {
			p.closeErr = err
		}
		if err := p.tty.Close(); err != nil && p.closeErr == nil {
			p.closeErr = err
		}
	})
	return p.closeErr
}
