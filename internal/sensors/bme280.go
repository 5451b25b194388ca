// Copyright (c) 2026 Heat-Mapping Robot Project
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package sensors

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"

	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/env"
)

// Climate is a BME280 temperature/humidity sensor on the I2C bus, read on
// demand through env.Monitor.
type Climate struct {
	bus i2c.BusCloser
	dev *bmxx80.Dev
}

// NewClimate opens the I2C bus (empty name selects the platform default)
// and probes the BME280 at addr.
func NewClimate(busName string, addr uint16) (*Climate, error) {
	if err := initHost(); err != nil {
		return nil, err
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("i2c open: %w", err)
	}
	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("bme280 init: %w", err)
	}
	return &Climate{bus: bus, dev: dev}, nil
}

// Sense takes one temperature/humidity reading.
func (c *Climate) Sense() (env.Sample, error) {
	var e physic.Env
	if err := c.dev.Sense(&e); err != nil {
		return env.Sample{}, fmt.Errorf("bme280 sense: %w", err)
	}
	return env.Sample{
		AirTempC:    e.Temperature.Celsius(),
		HumidityPct: float64(e.Humidity) / float64(physic.PercentRH),
		SampledAt:   time.Now(),
	}, nil
}

func (c *Climate) Close() error {
	if err := c.dev.Halt(); err != nil {
		c.bus.Close()
		return err
	}
	return c.bus.Close()
}
