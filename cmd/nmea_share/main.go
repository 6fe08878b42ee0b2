// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"gitlab.com/postmarketOS/nmea_share/internal/config"
	"gitlab.com/postmarketOS/nmea_share/internal/instrument"
	"gitlab.com/postmarketOS/nmea_share/internal/pool"
	"gitlab.com/postmarketOS/nmea_share/internal/server"
	"gitlab.com/postmarketOS/nmea_share/internal/sim"
	"gitlab.com/postmarketOS/nmea_share/internal/sink"
	"gitlab.com/postmarketOS/nmea_share/internal/storage"
)

func main() {
	confFile := pflag.StringP("config", "c", "/etc/nmea_share.conf", "Configuration file to use.")
	help := pflag.BoolP("help", "h", false, "Print help and quit.")

	pflag.Usage = func() {
		fmt.Println("usage: nmea_share [OPTION...]")
		fmt.Println("Plays an instrument scenario and shares the resulting NMEA 0183 sentences.")
		fmt.Println("Send SIGUSR1 to reload the scenario file.")
		fmt.Println("Options:")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if *help {
		pflag.Usage()
		return
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "nmea_share",
	})

	conf, err := config.Parse(*confFile)
	if err != nil {
		logger.Fatal("unable to load configuration", "err", err)
	}

	// validated by config.Parse
	level, _ := log.ParseLevel(conf.LogLevel)
	logger.SetLevel(level)

	if err := run(conf, logger); err != nil {
		logger.Fatal("stopped", "err", err)
	}
}

func run(conf *config.Config, logger *log.Logger) error {
	scenario, err := sim.Load(conf.Scenario)
	if err != nil {
		return fmt.Errorf("run(): %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	// connection broadcast pool
	connPool := pool.New(logger.With("component", "pool"))
	wg.Add(1)
	go func() {
		defer wg.Done()
		connPool.Start(ctx)
	}()

	sinks, err := openSinks(conf, logger)
	if err != nil {
		stop()
		return fmt.Errorf("run(): %w", err)
	}
	sinkLogger := logger.With("component", "sink")
	for name, s := range sinks {
		wg.Add(1)
		go func(name string, s sink.Sink) {
			defer wg.Done()
			sink.Run(ctx, connPool, name, s, sinkLogger)
		}(name, s)
	}

	srv := server.New(conf.Socket, conf.OwnerGroup, connPool, logger.With("component", "server"))
	errChan := make(chan error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	simulator := instrument.NewSimulator(scenario, conf.Talker, conf.Sentences, conf.Interval(), !conf.Once, logger.With("component", "simulator"))
	var driver instrument.Instrument = simulator
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := driver.Start(ctx, connPool.Broadcast); err != nil {
			errChan <- err
		}
	}()

	// register SIGUSR1 for reloading the scenario on-demand
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGUSR1)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-ctx.Done():
			stop()
			summary(connPool.Stats(), logger)
			return nil
		case err := <-errChan:
			stop()
			return fmt.Errorf("run(): %w", err)
		case <-sigChan:
			logger.Info("received SIGUSR1, reloading scenario", "path", conf.Scenario)
			next, err := sim.Load(conf.Scenario)
			if err != nil {
				// not fatal, keep playing the current scenario
				logger.Error("unable to reload scenario", "err", err)
				continue
			}
			simulator.SetScenario(next)
		}
	}
}

// openSinks opens every output enabled in conf. On error the sinks opened
// so far are closed.
func openSinks(conf *config.Config, logger *log.Logger) (sinks map[string]sink.Sink, err error) {
	sinks = make(map[string]sink.Sink)
	defer func() {
		if err != nil {
			for _, s := range sinks {
				s.Close()
			}
			sinks = nil
		}
	}()

	if conf.Serial.Device != "" {
		s, err := sink.OpenSerial(conf.Serial.Device, conf.Serial.BaudRate)
		if err != nil {
			return sinks, err
		}
		logger.Info("writing to serial port", "device", conf.Serial.Device, "baud", conf.Serial.BaudRate)
		sinks["serial"] = s
	}

	if conf.Pty.Enabled {
		p, err := sink.OpenPty(conf.Pty.Link)
		if err != nil {
			return sinks, err
		}
		logger.Info("writing to pseudo terminal", "tty", p.Name(), "link", conf.Pty.Link)
		sinks["pty"] = p
	}

	if conf.MQTT.Broker != "" {
		m, err := sink.DialMQTT(conf.MQTT.Broker, conf.MQTT.ClientID, conf.MQTT.Topic)
		if err != nil {
			return sinks, err
		}
		logger.Info("publishing to MQTT", "broker", conf.MQTT.Broker, "topic", conf.MQTT.Topic)
		sinks["mqtt"] = m
	}

	if conf.LogDB.Path != "" {
		l, err := storage.Open(conf.LogDB.Path)
		if err != nil {
			return sinks, err
		}
		logger.Info("logging sentences", "db", conf.LogDB.Path)
		sinks["log_db"] = l
	}

	return sinks, nil
}

func summary(stats pool.Stats, logger *log.Logger) {
	logger.Info("shutting down",
		"sentences", humanize.Comma(int64(stats.Sentences)),
		"sent", humanize.Bytes(stats.Bytes),
		"dropped", humanize.Comma(int64(stats.Dropped)))
}
