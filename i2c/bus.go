package i2c

import (
	"context"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/mklimuk/dht20"
)

var _ dht20.I2CBus = &GenericBus{}

// GenericBus adapts a periph.io bus (a Linux i2c-dev node, an FTDI bridge,
// anything registered in i2creg) to dht20.I2CBus.
type GenericBus struct {
	bus i2c.BusCloser
}

// NewGenericBus initializes the periph host drivers and opens the named bus.
// An empty name opens the first bus found.
func NewGenericBus(dev string, opts ...GenericBusOpt) (*GenericBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("periph driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	b, err := NewBus(bus, opts...)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}
	return b, nil
}

type GenericBusOpts struct {
	Speed physic.Frequency
}

type GenericBusOpt func(*GenericBusOpts)

// WithSpeed sets the bus clock. Zero keeps the driver default.
func WithSpeed(speed physic.Frequency) GenericBusOpt {
	return func(o *GenericBusOpts) {
		o.Speed = speed
	}
}

// NewBus wraps an already opened periph bus.
func NewBus(bus i2c.BusCloser, opts ...GenericBusOpt) (*GenericBus, error) {
	var config GenericBusOpts
	for _, opt := range opts {
		opt(&config)
	}
	if config.Speed > 0 {
		if err := bus.SetSpeed(config.Speed); err != nil {
			return nil, fmt.Errorf("could not set i2c bus speed to %s: %w", config.Speed, err)
		}
	}
	return &GenericBus{bus: bus}, nil
}

func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}
