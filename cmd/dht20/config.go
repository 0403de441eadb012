package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/dht20/environment"
)

const (
	adapterPeriph  = "periph"
	adapterGobot   = "gobot"
	adapterMCP2221 = "mcp2221"
	adapterSim     = "sim"
)

// Config selects the transport and the sensor address. It can be loaded from
// a YAML file; command line flags take precedence over the file.
type Config struct {
	Adapter string `yaml:"adapter"`
	Address uint8  `yaml:"address"`
	// Device is the periph bus name, e.g. /dev/i2c-1 or "1".
	Device string `yaml:"device"`
	// SpeedKHz sets the periph bus clock; 0 keeps the kernel default.
	SpeedKHz int `yaml:"speed_khz"`
	// Bus is the gobot bus number; negative selects the board default.
	Bus          int           `yaml:"bus"`
	ResponseWait time.Duration `yaml:"response_wait"`
	Sim          SimConfig     `yaml:"sim"`
}

type SimConfig struct {
	Temperature  float32 `yaml:"temperature"`
	Humidity     float32 `yaml:"humidity"`
	Uncalibrated bool    `yaml:"uncalibrated"`
}

func defaultConfig() Config {
	return Config{
		Adapter:      adapterPeriph,
		Address:      environment.DefaultAddress,
		Device:       "/dev/i2c-1",
		Bus:          -1,
		ResponseWait: 50 * time.Millisecond,
		Sim: SimConfig{
			Temperature: 21.5,
			Humidity:    45,
		},
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("could not open config file: %w", err)
	}
	defer func() { _ = f.Close() }()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("could not decode config file %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (cfg Config) validate() error {
	switch cfg.Adapter {
	case adapterPeriph, adapterGobot, adapterMCP2221, adapterSim:
	default:
		return fmt.Errorf("unknown adapter %q", cfg.Adapter)
	}
	if cfg.Address > 0x7F {
		return fmt.Errorf("address %#x is not a 7-bit address", cfg.Address)
	}
	return nil
}

// configFromContext loads the file named by --config and applies the flags
// that were set explicitly.
func configFromContext(c *cli.Context) (Config, error) {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("adapter") {
		cfg.Adapter = c.String("adapter")
	}
	if c.IsSet("address") {
		addr, err := parseAddress(c.String("address"))
		if err != nil {
			return cfg, err
		}
		cfg.Address = addr
	}
	if c.IsSet("device") {
		cfg.Device = c.String("device")
	}
	if c.IsSet("speed") {
		cfg.SpeedKHz = c.Int("speed")
	}
	if c.IsSet("bus") {
		cfg.Bus = c.Int("bus")
	}
	return cfg, cfg.validate()
}

func parseAddress(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return uint8(v), nil
}
