package environment

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/mklimuk/dht20"
)

// TemperatureBehaviorFunc defines the function signature for temperature behavior.
// It returns the temperature in Celsius or an error.
type TemperatureBehaviorFunc func(ctx context.Context) (float32, error)

// HumidityBehaviorFunc defines the function signature for humidity behavior.
// It returns the relative humidity in %RH or an error.
type HumidityBehaviorFunc func(ctx context.Context) (float32, error)

var ErrNoDevice = fmt.Errorf("no device acknowledged the address")

var _ dht20.I2CBus = &Simulated{}

// Simulated is an in-memory DHT20 that sits behind the bus interface, so the
// driver and the CLI can run without hardware. It answers status reads,
// becomes calibrated after the calibration writes and produces a data frame
// from the behavior functions on every trigger command.
//
// Example usage:
//
//	sim := NewSimulated(
//		func(ctx context.Context) (float32, error) { return 22.5, nil },
//		func(ctx context.Context) (float32, error) { return 45.0, nil },
//	)
//	s := NewDHT20(sim, DefaultAddress, dht20.SleepDelay{})
type Simulated struct {
	mx           sync.Mutex
	address      byte
	status       byte
	tempBehavior TemperatureBehaviorFunc
	humBehavior  HumidityBehaviorFunc
	calibration  int
	frame        [8]byte
	writes       [][]byte
}

// NewSimulated creates a calibrated simulated sensor at DefaultAddress.
func NewSimulated(tempBehavior TemperatureBehaviorFunc, humBehavior HumidityBehaviorFunc) *Simulated {
	return &Simulated{
		address:      DefaultAddress,
		status:       statusCalibrated,
		tempBehavior: tempBehavior,
		humBehavior:  humBehavior,
	}
}

// SetStatus overrides the status byte, e.g. to simulate a sensor after power-up.
func (m *Simulated) SetStatus(status byte) {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.status = status
}

// Writes returns copies of all write payloads received so far.
func (m *Simulated) Writes() [][]byte {
	m.mx.Lock()
	defer m.mx.Unlock()
	res := make([][]byte, len(m.writes))
	for i, w := range m.writes {
		res[i] = bytes.Clone(w)
	}
	return res
}

func (m *Simulated) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if address != m.address {
		return fmt.Errorf("read from %#x: %w", address, ErrNoDevice)
	}
	if len(buffer) == 1 {
		buffer[0] = m.status
		return nil
	}
	copy(buffer, m.frame[:])
	return nil
}

func (m *Simulated) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if address != m.address {
		return fmt.Errorf("write to %#x: %w", address, ErrNoDevice)
	}
	m.writes = append(m.writes, bytes.Clone(buffer))
	switch {
	case bytes.Equal(buffer, cmdTrigger):
		return m.measure(ctx)
	case m.calibration < len(calibrationSequence) && bytes.Equal(buffer, calibrationSequence[m.calibration][:]):
		m.calibration++
		if m.calibration == len(calibrationSequence) {
			m.status |= statusCalibrated
			m.calibration = 0
		}
	default:
		m.calibration = 0
	}
	return nil
}

func (m *Simulated) Release(ctx context.Context) error {
	return nil
}

func (m *Simulated) measure(ctx context.Context) error {
	temp, err := m.tempBehavior(ctx)
	if err != nil {
		return err
	}
	hum, err := m.humBehavior(ctx)
	if err != nil {
		return err
	}
	m.frame = Encode(Reading{Temperature: temp, Humidity: hum})
	m.frame[0] = m.status
	return nil
}
