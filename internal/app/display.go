// Copyright (c) 2026 Heat-Mapping Robot Project
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package app

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/config"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/env"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/link"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/nav"
)

// displayData holds the latest telemetry for the status screen.
type displayData struct {
	mu sync.RWMutex

	decision     nav.Decision
	haveDecision bool

	sample     env.Sample
	haveSample bool

	frame     link.Frame
	haveFrame bool
}

// RunDisplay drives the chassis-mounted OLED: it mirrors the robot's MQTT
// telemetry onto a small status screen so the robot can be watched without
// a laptop attached.
func RunDisplay(ctx context.Context, cfg *config.Config) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	// The SSD1306 driver talks to the panel at the fixed 0x3C address.
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Println("status display initialized")

	if err := showSplash(dev); err != nil {
		log.Printf("splash draw error: %v", err)
	}

	data := &displayData{}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)

	err = subscribe(client, cfg.TopicDecision, func(_ mqtt.Client, msg mqtt.Message) {
		var d nav.Decision
		if err := json.Unmarshal(msg.Payload(), &d); err != nil {
			log.Printf("decision unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.decision = d
		data.haveDecision = true
		data.mu.Unlock()
	})
	if err != nil {
		return err
	}

	err = subscribe(client, cfg.TopicEnv, func(_ mqtt.Client, msg mqtt.Message) {
		var s env.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("climate unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.sample = s
		data.haveSample = true
		data.mu.Unlock()
	})
	if err != nil {
		return err
	}

	err = subscribe(client, cfg.TopicFrame, func(_ mqtt.Client, msg mqtt.Message) {
		var f link.Frame
		if err := json.Unmarshal(msg.Payload(), &f); err != nil {
			log.Printf("frame unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.frame = f
		data.haveFrame = true
		data.mu.Unlock()
	})
	if err != nil {
		return err
	}

	ticker := time.NewTicker(ms(cfg.DisplayUpdateIntervalMs))
	defer ticker.Stop()

	log.Println("display update loop running")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// Read data without copying the mutex
			data.mu.RLock()
			snapshot := displayData{
				decision:     data.decision,
				haveDecision: data.haveDecision,
				sample:       data.sample,
				haveSample:   data.haveSample,
				frame:        data.frame,
				haveFrame:    data.haveFrame,
			}
			data.mu.RUnlock()

			if err := drawStatus(dev, &snapshot); err != nil {
				log.Printf("display draw error: %v", err)
			}
		}
	}
}

func drawStatus(dev *ssd1306.Dev, data *displayData) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	if !data.haveDecision && !data.haveFrame && !data.haveSample {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Heat Scout"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
		return dev.Draw(dev.Bounds(), img, image.Point{})
	}

	// Row 1: drive action, row 2: decision detail. Telemetry-only runs
	// publish no decisions, so those rows fall back to stream stats.
	drawer.Dot = fixed.P(0, 13)
	if data.haveDecision {
		drawer.DrawBytes([]byte(fmt.Sprintf("%-10s %+4.0f", data.decision.Action, data.decision.TurnDeg)))
	} else {
		drawer.DrawBytes([]byte("streaming"))
	}

	drawer.Dot = fixed.P(0, 26)
	if data.haveDecision {
		drawer.DrawBytes([]byte(fmt.Sprintf("%-8s stk %d", data.decision.Reason, data.decision.Stuck)))
	} else {
		drawer.DrawBytes([]byte(fmt.Sprintf("%2d readings", len(data.frame.Readings))))
	}

	drawer.Dot = fixed.P(0, 39)
	if data.haveSample {
		drawer.DrawBytes([]byte(fmt.Sprintf("%5.1fC %5.1f%%", data.sample.AirTempC, data.sample.HumidityPct)))
	} else {
		drawer.DrawBytes([]byte("env n/a"))
	}

	drawer.Dot = fixed.P(0, 52)
	up := (time.Duration(data.frame.TimestampMs) * time.Millisecond).Truncate(time.Second)
	drawer.DrawBytes([]byte(fmt.Sprintf("up %s", up)))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func showSplash(dev *ssd1306.Dev) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("Heat Scout"))

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawBytes([]byte("waiting for"))

	drawer.Dot = fixed.P(25, 56)
	drawer.DrawBytes([]byte("telemetry"))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}
