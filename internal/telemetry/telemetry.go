// Copyright (c) 2026 Heat-Mapping Robot Project
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


// Package telemetry mirrors control-loop state onto MQTT for the console
// and display processes. The mirror is best-effort: publish errors are
// logged and dropped so the control loop never stalls on the broker.
package telemetry

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/env"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/link"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/nav"
)

// Topics names the MQTT topics the mirror publishes on.
type Topics struct {
	Frame    string
	Decision string
	Env      string
}

// Publisher pushes frames, decisions and environment samples to a broker.
type Publisher struct {
	client mqtt.Client
	topics Topics
}

// Connect dials the broker and blocks until the session is up.
func Connect(broker, clientID string, topics Topics) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect: %w", token.Error())
	}
	return &Publisher{client: client, topics: topics}, nil
}

func (p *Publisher) PublishFrame(f link.Frame) {
	p.publish(p.topics.Frame, f)
}

func (p *Publisher) PublishDecision(d nav.Decision) {
	p.publish(p.topics.Decision, d)
}

func (p *Publisher) PublishEnv(s env.Sample) {
	p.publish(p.topics.Env, s)
}

// publish marshals and ships one retained message at QoS 0. Retained so a
// console attaching mid-run immediately sees the latest state.
func (p *Publisher) publish(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("json marshal error (%s): %v", topic, err)
		return
	}
	if token := p.client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Printf("MQTT publish error (%s): %v", topic, token.Error())
	}
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
