// Copyright (c) 2026 Heat-Mapping Robot Project
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Operating modes.
const (
	ModeStandalone = "standalone" // decisions made on the robot
	ModeBackend    = "backend"    // decisions made by a planner over the link
	ModeTelemetry  = "telemetry"  // stream readings only, never move
)

// Sweep servo backends.
const (
	ServoGPIO    = "gpio"    // hobby servo on a PWM pin
	ServoFeetech = "feetech" // STS bus servo on a USB adapter
)

// Backend link transports.
const (
	TransportSerial = "serial"
	TransportTCP    = "tcp"
)

// Config holds all application configuration values.
type Config struct {
	// Operating mode
	Mode          string
	MotorsEnabled bool
	ServoBackend  string

	// Backend link
	LinkTransport     string
	SerialPort        string
	SerialBaud        uint
	TCPAddr           string
	DownlinkTimeoutMs int

	// Sonar
	SonarTrigPin       string
	SonarEchoPin       string
	SonarEchoTimeoutMs int
	SonarSamples       int

	// Sweep servo: PWM backend
	ServoPin        string
	ServoPulseMinUs int
	ServoPulseMaxUs int
	ServoSettleMs   int

	// Sweep servo: Feetech backend
	FeetechPort     string
	FeetechBaud     int
	FeetechID       int
	FeetechCountMin int
	FeetechCountMax int

	// Drive motors (H-bridge direction pins)
	MotorLeftFwdPin  string
	MotorLeftRevPin  string
	MotorRightFwdPin string
	MotorRightRevPin string

	// Sweep geometry
	SweepMinDeg  float64
	SweepMaxDeg  float64
	SweepStepDeg float64

	// Environment sensor
	EnvIntervalMs int
	I2CBus        string
	BME280Addr    uint16

	// MQTT
	MQTTBroker          string
	MQTTClientIDScout   string
	MQTTClientIDConsole string
	MQTTClientIDDisplay string

	// Topics
	TopicFrame    string
	TopicDecision string
	TopicEnv      string

	// Blackbox recorder (empty path disables it)
	BlackboxPath string

	// Timing
	StabilizeEvery  int
	StabilizeHoldMs int
	MoveMs          int
	TurnSmallMs     int
	TurnMediumMs    int
	TurnLargeMs     int

	// Display
	DisplayUpdateIntervalMs int
}

// Default returns the configuration the robot boots with when no config
// file overrides it. Pin assignments match the reference wiring diagram.
func Default() *Config {
	return &Config{
		Mode:          ModeStandalone,
		MotorsEnabled: true,
		ServoBackend:  ServoGPIO,

		LinkTransport:     TransportSerial,
		SerialPort:        "/dev/ttyAMA0",
		SerialBaud:        115200,
		TCPAddr:           "127.0.0.1:7310",
		DownlinkTimeoutMs: 150,

		SonarTrigPin:       "GPIO23",
		SonarEchoPin:       "GPIO24",
		SonarEchoTimeoutMs: 30,
		SonarSamples:       5,

		ServoPin:        "GPIO18",
		ServoPulseMinUs: 544,
		ServoPulseMaxUs: 2400,
		ServoSettleMs:   40,

		FeetechPort:     "/dev/ttyACM0",
		FeetechBaud:     1000000,
		FeetechID:       1,
		FeetechCountMin: 1024,
		FeetechCountMax: 3072,

		MotorLeftFwdPin:  "GPIO5",
		MotorLeftRevPin:  "GPIO6",
		MotorRightFwdPin: "GPIO13",
		MotorRightRevPin: "GPIO19",

		SweepMinDeg:  -90,
		SweepMaxDeg:  90,
		SweepStepDeg: 10,

		EnvIntervalMs: 2000,
		I2CBus:        "",
		BME280Addr:    0x76,

		MQTTBroker:          "tcp://localhost:1883",
		MQTTClientIDScout:   "scout-robot",
		MQTTClientIDConsole: "scout-console",
		MQTTClientIDDisplay: "scout-display",

		TopicFrame:    "scout/frame",
		TopicDecision: "scout/decision",
		TopicEnv:      "scout/env",

		BlackboxPath: "",

		StabilizeEvery:  5,
		StabilizeHoldMs: 300,
		MoveMs:          350,
		TurnSmallMs:     250,
		TurnMediumMs:    450,
		TurnLargeMs:     800,

		DisplayUpdateIntervalMs: 500,
	}
}

// Load reads the configuration file and returns a Config struct. Values not
// present in the file keep their defaults.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault loads configPath if it exists and falls back to the built-in
// defaults when it does not. Any other error, a malformed file included, is
// still reported.
func LoadOrDefault(configPath string) (*Config, error) {
	cfg, err := Load(configPath)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		if err := cfg.validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return nil, err
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Operating mode
	case "MODE":
		switch value {
		case ModeStandalone, ModeBackend, ModeTelemetry:
			c.Mode = value
		default:
			return fmt.Errorf("MODE must be one of %q, %q, %q, got %q",
				ModeStandalone, ModeBackend, ModeTelemetry, value)
		}
	case "MOTORS_ENABLED":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid MOTORS_ENABLED %q: %w", value, err)
		}
		c.MotorsEnabled = enabled
	case "SERVO_BACKEND":
		if value != ServoGPIO && value != ServoFeetech {
			return fmt.Errorf("SERVO_BACKEND must be %q or %q, got %q", ServoGPIO, ServoFeetech, value)
		}
		c.ServoBackend = value

	// Backend link
	case "LINK_TRANSPORT":
		if value != TransportSerial && value != TransportTCP {
			return fmt.Errorf("LINK_TRANSPORT must be %q or %q, got %q", TransportSerial, TransportTCP, value)
		}
		c.LinkTransport = value
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD":
		baud, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD %q: %w", value, err)
		}
		c.SerialBaud = uint(baud)
	case "TCP_ADDR":
		c.TCPAddr = value
	case "DOWNLINK_TIMEOUT_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DOWNLINK_TIMEOUT_MS %q: %w", value, err)
		}
		if ms <= 0 {
			return fmt.Errorf("DOWNLINK_TIMEOUT_MS must be positive, got %d", ms)
		}
		c.DownlinkTimeoutMs = ms

	// Sonar
	case "SONAR_TRIG_PIN":
		c.SonarTrigPin = value
	case "SONAR_ECHO_PIN":
		c.SonarEchoPin = value
	case "SONAR_ECHO_TIMEOUT_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SONAR_ECHO_TIMEOUT_MS %q: %w", value, err)
		}
		if ms <= 0 {
			return fmt.Errorf("SONAR_ECHO_TIMEOUT_MS must be positive, got %d", ms)
		}
		c.SonarEchoTimeoutMs = ms
	case "SONAR_SAMPLES":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SONAR_SAMPLES %q: %w", value, err)
		}
		if n < 1 {
			return fmt.Errorf("SONAR_SAMPLES must be at least 1, got %d", n)
		}
		c.SonarSamples = n

	// Sweep servo: PWM backend
	case "SERVO_PIN":
		c.ServoPin = value
	case "SERVO_PULSE_MIN_US":
		us, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERVO_PULSE_MIN_US %q: %w", value, err)
		}
		c.ServoPulseMinUs = us
	case "SERVO_PULSE_MAX_US":
		us, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERVO_PULSE_MAX_US %q: %w", value, err)
		}
		c.ServoPulseMaxUs = us
	case "SERVO_SETTLE_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERVO_SETTLE_MS %q: %w", value, err)
		}
		c.ServoSettleMs = ms

	// Sweep servo: Feetech backend
	case "FEETECH_PORT":
		c.FeetechPort = value
	case "FEETECH_BAUD":
		baud, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid FEETECH_BAUD %q: %w", value, err)
		}
		c.FeetechBaud = baud
	case "FEETECH_ID":
		id, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid FEETECH_ID %q: %w", value, err)
		}
		if id < 1 || id > 253 {
			return fmt.Errorf("FEETECH_ID must be 1-253, got %d", id)
		}
		c.FeetechID = id
	case "FEETECH_COUNT_MIN":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid FEETECH_COUNT_MIN %q: %w", value, err)
		}
		if n < 0 || n > 4095 {
			return fmt.Errorf("FEETECH_COUNT_MIN must be 0-4095, got %d", n)
		}
		c.FeetechCountMin = n
	case "FEETECH_COUNT_MAX":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid FEETECH_COUNT_MAX %q: %w", value, err)
		}
		if n < 0 || n > 4095 {
			return fmt.Errorf("FEETECH_COUNT_MAX must be 0-4095, got %d", n)
		}
		c.FeetechCountMax = n

	// Drive motors
	case "MOTOR_LEFT_FWD_PIN":
		c.MotorLeftFwdPin = value
	case "MOTOR_LEFT_REV_PIN":
		c.MotorLeftRevPin = value
	case "MOTOR_RIGHT_FWD_PIN":
		c.MotorRightFwdPin = value
	case "MOTOR_RIGHT_REV_PIN":
		c.MotorRightRevPin = value

	// Sweep geometry
	case "SWEEP_MIN_DEG":
		deg, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SWEEP_MIN_DEG %q: %w", value, err)
		}
		c.SweepMinDeg = deg
	case "SWEEP_MAX_DEG":
		deg, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SWEEP_MAX_DEG %q: %w", value, err)
		}
		c.SweepMaxDeg = deg
	case "SWEEP_STEP_DEG":
		deg, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SWEEP_STEP_DEG %q: %w", value, err)
		}
		if deg <= 0 {
			return fmt.Errorf("SWEEP_STEP_DEG must be positive, got %v", deg)
		}
		c.SweepStepDeg = deg

	// Environment sensor
	case "ENV_INTERVAL_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ENV_INTERVAL_MS %q: %w", value, err)
		}
		c.EnvIntervalMs = ms
	case "I2C_BUS":
		c.I2CBus = value
	case "BME280_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid BME280_ADDR %q: %w", value, err)
		}
		c.BME280Addr = uint16(addr)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_SCOUT":
		c.MQTTClientIDScout = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_FRAME":
		c.TopicFrame = value
	case "TOPIC_DECISION":
		c.TopicDecision = value
	case "TOPIC_ENV":
		c.TopicEnv = value

	// Blackbox
	case "BLACKBOX_PATH":
		c.BlackboxPath = value

	// Timing
	case "STABILIZE_EVERY":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid STABILIZE_EVERY %q: %w", value, err)
		}
		if n < 0 {
			return fmt.Errorf("STABILIZE_EVERY must be 0 (off) or positive, got %d", n)
		}
		c.StabilizeEvery = n
	case "STABILIZE_HOLD_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid STABILIZE_HOLD_MS %q: %w", value, err)
		}
		c.StabilizeHoldMs = ms
	case "MOVE_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MOVE_MS %q: %w", value, err)
		}
		c.MoveMs = ms
	case "TURN_SMALL_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid TURN_SMALL_MS %q: %w", value, err)
		}
		c.TurnSmallMs = ms
	case "TURN_MEDIUM_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid TURN_MEDIUM_MS %q: %w", value, err)
		}
		c.TurnMediumMs = ms
	case "TURN_LARGE_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid TURN_LARGE_MS %q: %w", value, err)
		}
		c.TurnLargeMs = ms

	// Display
	case "DISPLAY_UPDATE_INTERVAL_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL_MS %q: %w", value, err)
		}
		c.DisplayUpdateIntervalMs = ms

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks cross-field constraints for the selected mode.
func (c *Config) validate() error {
	if c.Mode == ModeBackend || c.Mode == ModeTelemetry {
		switch c.LinkTransport {
		case TransportSerial:
			if c.SerialPort == "" {
				return fmt.Errorf("SERIAL_PORT is required in %s mode", c.Mode)
			}
			if c.SerialBaud == 0 {
				return fmt.Errorf("SERIAL_BAUD is required in %s mode", c.Mode)
			}
		case TransportTCP:
			if c.TCPAddr == "" {
				return fmt.Errorf("TCP_ADDR is required in %s mode", c.Mode)
			}
		}
	}
	if c.ServoBackend == ServoFeetech && c.FeetechPort == "" {
		return fmt.Errorf("FEETECH_PORT is required when SERVO_BACKEND=feetech")
	}
	if c.ServoPulseMinUs >= c.ServoPulseMaxUs {
		return fmt.Errorf("SERVO_PULSE_MIN_US must be below SERVO_PULSE_MAX_US")
	}
	if c.FeetechCountMin >= c.FeetechCountMax {
		return fmt.Errorf("FEETECH_COUNT_MIN must be below FEETECH_COUNT_MAX")
	}
	if c.SweepMinDeg >= c.SweepMaxDeg {
		return fmt.Errorf("SWEEP_MIN_DEG must be below SWEEP_MAX_DEG")
	}
	if c.SonarSamples < 1 {
		return fmt.Errorf("SONAR_SAMPLES must be at least 1")
	}
	return nil
}
