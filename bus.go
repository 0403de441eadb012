package dht20

import (
	"context"
	"fmt"
	"time"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is the transport every driver in this module is written against.
// Adapters in the i2c and adapter packages implement it for concrete buses.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// Delayer blocks the caller for the requested number of milliseconds.
type Delayer interface {
	DelayMs(ms uint16)
}

// DelayFunc adapts a plain function to the Delayer interface.
type DelayFunc func(ms uint16)

func (f DelayFunc) DelayMs(ms uint16) {
	f(ms)
}

// SleepDelay is a Delayer backed by time.Sleep.
type SleepDelay struct{}

func (SleepDelay) DelayMs(ms uint16) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}
