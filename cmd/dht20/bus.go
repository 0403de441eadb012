package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/dht20"
	"github.com/mklimuk/dht20/adapter"
	"github.com/mklimuk/dht20/cmd/dht20/console"
	"github.com/mklimuk/dht20/environment"
	"github.com/mklimuk/dht20/i2c"
)

// openBus returns the transport selected by cfg and a function releasing it.
func openBus(ctx context.Context, cfg Config) (dht20.I2CBus, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Adapter {
	case adapterPeriph:
		bus, err := i2c.NewGenericBus(cfg.Device, i2c.WithSpeed(physic.Frequency(cfg.SpeedKHz)*physic.KiloHertz))
		if err != nil {
			return nil, noop, err
		}
		return bus, bus.Close, nil
	case adapterGobot:
		npi := nanopi.NewNeoAdaptor()
		if err := npi.I2cBusAdaptor.Connect(); err != nil {
			return nil, noop, fmt.Errorf("adaptor connect error: %w", err)
		}
		var opts []i2c.GobotBusOpt
		if cfg.Bus >= 0 {
			opts = append(opts, i2c.WithBusNumber(cfg.Bus))
		}
		bus := i2c.NewGobotBus(npi, opts...)
		return bus, func() error {
			return errors.Join(bus.Close(), npi.I2cBusAdaptor.Finalize())
		}, nil
	case adapterMCP2221:
		a := adapter.NewMCP2221(adapter.WithResponseWait(cfg.ResponseWait))
		if err := a.Init(); err != nil {
			return nil, noop, err
		}
		return a, func() error { return a.Release(ctx) }, nil
	case adapterSim:
		sim := environment.NewSimulated(
			func(ctx context.Context) (float32, error) { return cfg.Sim.Temperature, nil },
			func(ctx context.Context) (float32, error) { return cfg.Sim.Humidity, nil },
		)
		if cfg.Sim.Uncalibrated {
			sim.SetStatus(0x00)
		}
		return sim, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown adapter %q", cfg.Adapter)
}

// withSensor opens the configured bus, hands a driver to fn and closes the bus.
func withSensor(ctx context.Context, cfg Config, fn func(*environment.DHT20) error) error {
	bus, closeBus, err := openBus(ctx, cfg)
	if err != nil {
		return console.Exit(1, "could not open %s bus: %s", cfg.Adapter, err)
	}
	defer func() {
		if err := closeBus(); err != nil {
			slog.Warn("could not close bus", "adapter", cfg.Adapter, "error", err)
		}
	}()
	sensor := environment.NewDHT20(bus, cfg.Address, dht20.SleepDelay{}, environment.WithLogger(slog.Default()))
	return fn(sensor)
}
