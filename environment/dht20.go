package environment

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/mklimuk/dht20"
)

// DefaultAddress is the fixed 7-bit bus address of the DHT20/AHT2x family.
const DefaultAddress = 0x38

const (
	// statusCalibrated covers the calibration enable bit and its companion;
	// both must be set before a measurement is triggered.
	statusCalibrated = 0x18
	statusBusy       = 0x80
)

// Calibration register writes, sent in this order when the sensor reports
// it is not calibrated.
var calibrationSequence = [3][3]byte{
	{0x1B, 0x00, 0x00},
	{0x1C, 0x00, 0x00},
	{0x1E, 0x00, 0x00},
}

var cmdTrigger = []byte{0xAC, 0x33, 0x00}

// maximum conversion time from the datasheet
const conversionDelayMs = 80

const (
	humidityScale    float32 = 9.5367431640625e-5 // 100 / 2^20
	temperatureScale float32 = 1.9073486328125e-4 // 200 / 2^20
	temperatureShift float32 = 50
)

// ErrReadTooFast reports a measurement requested before the sensor's minimum
// interval elapsed. Read does not track the interval itself; callers that
// poll the sensor enforce it.
var ErrReadTooFast = fmt.Errorf("dht20: reading requested too fast")

// Reading is a single completed measurement.
type Reading struct {
	Temperature float32 `yaml:"temperature"` // °C
	Humidity    float32 `yaml:"humidity"`    // %RH
}

// Status is the raw status byte reported by the sensor.
type Status byte

// Calibrated reports whether both calibration bits are set.
func (s Status) Calibrated() bool {
	return s&statusCalibrated == statusCalibrated
}

// Busy reports whether a conversion is still in progress.
func (s Status) Busy() bool {
	return s&statusBusy != 0
}

// DHT20Opt configures optional DHT20 settings.
type DHT20Opt func(*DHT20)

// WithLogger sets the logger used for calibration notices.
func WithLogger(logger *slog.Logger) DHT20Opt {
	return func(s *DHT20) {
		s.logger = logger
	}
}

// DHT20 represents an Aosong DHT20 (AHT20 core) humidity/temperature sensor.
// Typical usage:
//
//	s := NewDHT20(bus, DefaultAddress, dht20.SleepDelay{})
//	r, err := s.Read(ctx)
//
// A DHT20 owns its transport and delay provider and must not be used from
// several goroutines at once. Transport errors are returned exactly as the
// bus reported them.
type DHT20 struct {
	transport dht20.I2CBus
	address   byte
	delay     dht20.Delayer
	logger    *slog.Logger
}

// NewDHT20 creates a driver for the sensor at address on transport. delay
// provides the wait between triggering a measurement and reading it back.
func NewDHT20(transport dht20.I2CBus, address byte, delay dht20.Delayer, opts ...DHT20Opt) *DHT20 {
	s := &DHT20{
		transport: transport,
		address:   address,
		delay:     delay,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Address returns the 7-bit bus address the driver talks to.
func (s *DHT20) Address() byte {
	return s.address
}

// Read makes sure the sensor is calibrated, triggers a one-shot conversion,
// waits for it to finish and returns the converted values.
func (s *DHT20) Read(ctx context.Context) (Reading, error) {
	if err := s.reset(ctx); err != nil {
		return Reading{}, err
	}
	if err := s.writeCommand(ctx, cmdTrigger); err != nil {
		return Reading{}, err
	}
	// no busy polling, the wait covers the worst-case conversion time
	s.delay.DelayMs(conversionDelayMs)
	frame, err := s.readData(ctx)
	if err != nil {
		return Reading{}, err
	}
	return Decode(frame), nil
}

// Status reads the sensor status byte.
func (s *DHT20) Status(ctx context.Context) (Status, error) {
	st, err := s.readStatus(ctx)
	return Status(st), err
}

// Reset sends the calibration sequence if the sensor reports it is not
// calibrated. It is called by Read before every measurement.
func (s *DHT20) Reset(ctx context.Context) error {
	return s.reset(ctx)
}

func (s *DHT20) reset(ctx context.Context) error {
	st, err := s.readStatus(ctx)
	if err != nil {
		return err
	}
	if Status(st).Calibrated() {
		return nil
	}
	s.logger.Info("resetting", "sensor", "dht20", "address", fmt.Sprintf("%#x", s.address), "status", fmt.Sprintf("%#02x", st))
	for _, cmd := range calibrationSequence {
		if err := s.writeCommand(ctx, cmd[:]); err != nil {
			return err
		}
	}
	return nil
}

func (s *DHT20) readStatus(ctx context.Context) (byte, error) {
	var buf [1]byte
	if err := s.transport.ReadFromAddr(ctx, s.address, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (s *DHT20) readData(ctx context.Context) ([8]byte, error) {
	var buf [8]byte
	if err := s.transport.ReadFromAddr(ctx, s.address, buf[:]); err != nil {
		return buf, err
	}
	return buf, nil
}

func (s *DHT20) writeCommand(ctx context.Context, data []byte) error {
	return s.transport.WriteToAddr(ctx, s.address, data)
}

// Decode converts a data frame into a Reading. Byte 0 is the status byte and
// is ignored; bytes 1-5 carry the 20-bit humidity and temperature codes.
func Decode(frame [8]byte) Reading {
	return Reading{
		Temperature: convertDHT20Temperature(rawTemperature(frame)),
		Humidity:    convertDHT20Humidity(rawHumidity(frame)),
	}
}

func rawHumidity(frame [8]byte) uint32 {
	raw := uint32(frame[1])<<8 | uint32(frame[2])
	return raw<<4 | uint32(frame[3]>>4)
}

func rawTemperature(frame [8]byte) uint32 {
	return uint32(frame[3]&0x0F)<<16 | uint32(frame[4])<<8 | uint32(frame[5])
}

func convertDHT20Humidity(raw uint32) float32 {
	return float32(raw) * humidityScale
}

// The explicit float32 conversion keeps the product rounded on its own so the
// compiler cannot fuse it with the subtraction.
func convertDHT20Temperature(raw uint32) float32 {
	return float32(float32(raw)*temperatureScale) - temperatureShift
}

// Encode is the inverse of Decode: it packs the reading into a data frame
// with a ready status byte. Values outside the sensor range are clamped.
func Encode(r Reading) [8]byte {
	h := toCode(float64(r.Humidity) / 100)
	t := toCode((float64(r.Temperature) + 50) / 200)
	var frame [8]byte
	frame[0] = statusCalibrated
	frame[1] = byte(h >> 12)
	frame[2] = byte(h >> 4)
	frame[3] = byte(h<<4) | byte(t>>16&0x0F)
	frame[4] = byte(t >> 8)
	frame[5] = byte(t)
	return frame
}

func toCode(fraction float64) uint32 {
	const full = 1 << 20
	code := fraction*full + 0.5
	switch {
	case math.IsNaN(code), code < 0:
		return 0
	case code >= full:
		return full - 1
	}
	return uint32(code)
}
