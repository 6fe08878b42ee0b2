// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package sink

import (
	"bytes"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	mqttConnectTimeout = 10 * time.Second
	mqttPublishTimeout = 5 * time.Second
	mqttQuiesceMs      = 250
)

// MQTT publishes each sentence, without CRLF, to one topic at QoS 0.
type MQTT struct {
	client mqtt.Client
	topic  string
}

// DialMQTT connects to broker, e.g. "tcp://localhost:1883".
func DialMQTT(broker, clientID, topic string) (*MQTT, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttConnectTimeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("sink.DialMQTT(): %s: connect timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("sink.DialMQTT(): %s: %w", broker, err)
	}

	return NewMQTT(client, topic), nil
}

// NewMQTT wraps an already connected client.
func NewMQTT(client mqtt.Client, topic string) *MQTT {
	return &MQTT{client: client, topic: topic}
}

func (m *MQTT) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(p, []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		if len(line) == 0 {
			continue
		}

		token := m.client.Publish(m.topic, 0, false, string(line))
		if !token.WaitTimeout(mqttPublishTimeout) {
			return 0, fmt.Errorf("sink.MQTT.Write(): %s: publish timed out", m.topic)
		}
		if err := token.Error(); err != nil {
			return 0, fmt.Errorf("sink.MQTT.Write(): %s: %w", m.topic, err)
		}
	}
	return len(p), nil
}

func (m *MQTT) Close() error {
	m.client.Disconnect(mqttQuiesceMs)
	return nil
}
