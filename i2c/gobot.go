package i2c

import (
	"context"
	"errors"
	"fmt"
	"sync"

	gobot "gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/dht20"
)

var _ dht20.I2CBus = &GobotBus{}

// GobotBus adapts a gobot I2C connector (board adaptors such as
// nanopi.NewNeoAdaptor) to dht20.I2CBus. Gobot hands out one connection
// per device address; they are opened on first use and kept until Close.
type GobotBus struct {
	mx        sync.Mutex
	connector gobot.Connector
	busNr     int
	conns     map[byte]gobot.Connection
}

type GobotBusOpt func(*GobotBus)

// WithBusNumber selects the bus; the connector's default bus is used otherwise.
func WithBusNumber(nr int) GobotBusOpt {
	return func(b *GobotBus) {
		b.busNr = nr
	}
}

func NewGobotBus(connector gobot.Connector, opts ...GobotBusOpt) *GobotBus {
	b := &GobotBus{
		connector: connector,
		busNr:     connector.DefaultI2cBus(),
		conns:     make(map[byte]gobot.Connection),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *GobotBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	n, err := conn.Read(buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %d device %x: %w", b.busNr, address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short read from i2c bus %d device %x: %d of %d bytes", b.busNr, address, n, len(buffer))
	}
	return nil
}

func (b *GobotBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	n, err := conn.Write(buffer)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %d device %x: %w", b.busNr, address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short write to i2c bus %d device %x: %d of %d bytes", b.busNr, address, n, len(buffer))
	}
	return nil
}

func (b *GobotBus) Release(ctx context.Context) error {
	return nil
}

// Close closes every connection opened so far.
func (b *GobotBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var errs []error
	for addr, conn := range b.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("could not close connection to %x: %w", addr, err))
		}
		delete(b.conns, addr)
	}
	return errors.Join(errs...)
}

func (b *GobotBus) connection(address byte) (gobot.Connection, error) {
	if conn, ok := b.conns[address]; ok {
		return conn, nil
	}
	conn, err := b.connector.GetI2cConnection(int(address), b.busNr)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus %d device %x: %w", b.busNr, address, err)
	}
	b.conns[address] = conn
	return conn, nil
}
