// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package instrument

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"gitlab.com/postmarketOS/nmea_share/internal/sim"
)

// Simulator plays a scenario and emits the configured sentences every
// interval.
type Simulator struct {
	talker    string
	sentences []string
	interval  time.Duration
	loop      bool
	logger    *log.Logger

	// now is replaced in tests
	now func() time.Time

	mu       sync.Mutex
	scenario *sim.Scenario
	started  time.Time
}

func NewSimulator(scenario *sim.Scenario, talker string, sentences []string, interval time.Duration, loop bool, logger *log.Logger) *Simulator {
	return &Simulator{
		talker:    talker,
		sentences: sentences,
		interval:  interval,
		loop:      loop,
		logger:    logger,
		now:       time.Now,
		scenario:  scenario,
	}
}

// SetScenario swaps the scenario being played and restarts it from t=0.
func (s *Simulator) SetScenario(scenario *sim.Scenario) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scenario = scenario
	s.started = s.now()
}

func (s *Simulator) state(now time.Time) sim.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started.IsZero() {
		s.started = now
	}
	return s.scenario.StateAt(now.Sub(s.started), s.loop)
}

func (s *Simulator) Start(ctx context.Context, sendCh chan<- []byte) error {
	s.logger.Info("starting simulator", "talker", s.talker, "interval", s.interval, "sentences", s.sentences)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if !s.emit(ctx, sendCh) {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// emit sends one burst; it reports false once ctx is done.
func (s *Simulator) emit(ctx context.Context, sendCh chan<- []byte) bool {
	now := s.now()
	st := s.state(now)
	ts := now.UTC()

	for _, id := range s.sentences {
		out := Encode(s.talker, id, ts, st)
		if len(out) == 0 {
			s.logger.Debug("no data for sentence", "sentence", id)
			continue
		}
		for _, line := range out {
			select {
			case sendCh <- []byte(line):
			case <-ctx.Done():
				return false
			}
		}
	}
	return true
}
