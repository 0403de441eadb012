package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/dht20"
	"github.com/mklimuk/dht20/environment"
	"github.com/mklimuk/dht20/snsctx"
)

// fakeBridge emulates the MCP2221 report exchange in front of an I2C device
// implemented by target.
type fakeBridge struct {
	target   dht20.I2CBus
	busy     bool
	requests [][]byte
	opened   int
	closed   int
	last     []byte
	pending  []byte
}

func (f *fakeBridge) open() (hidDevice, error) {
	f.opened++
	return f, nil
}

func (f *fakeBridge) Write(b []byte) (int, error) {
	f.last = append([]byte(nil), b...)
	f.requests = append(f.requests, f.last)
	return len(b), nil
}

func (f *fakeBridge) Read(b []byte) (int, error) {
	clear(b)
	b[0] = f.last[0]
	if f.busy {
		b[1] = responseBusy
		return len(b), nil
	}
	ctx := context.Background()
	switch f.last[0] {
	case cmdI2CWriteData:
		size := int(f.last[1]) | int(f.last[2])<<8
		if err := f.target.WriteToAddr(ctx, f.last[3]>>1, f.last[4:4+size]); err != nil {
			b[1] = responseBusy
		}
	case cmdI2CReadData:
		size := int(f.last[1]) | int(f.last[2])<<8
		f.pending = make([]byte, size)
		if err := f.target.ReadFromAddr(ctx, f.last[3]>>1, f.pending); err != nil {
			b[1] = responseBusy
		}
	case cmdI2CGetData:
		b[3] = byte(len(f.pending))
		copy(b[4:], f.pending)
	case cmdStatusSetParameters:
		b[13] = 3
		b[14] = 0x76
		b[15] = 0x20
		b[16] = 0x70
		b[25] = 1
	}
	return len(b), nil
}

func (f *fakeBridge) Close() error {
	f.closed++
	return nil
}

func newTestAdapter(bridge *fakeBridge) *MCP2221 {
	d := NewMCP2221(WithResponseWait(0))
	d.open = bridge.open
	return d
}

func TestMCP2221_DHT20Read(t *testing.T) {
	sim := environment.NewSimulated(
		func(ctx context.Context) (float32, error) { return 24.5, nil },
		func(ctx context.Context) (float32, error) { return 38.0, nil },
	)
	sim.SetStatus(0x00)
	bridge := &fakeBridge{target: sim}
	a := newTestAdapter(bridge)
	sensor := environment.NewDHT20(a, environment.DefaultAddress, dht20.DelayFunc(func(uint16) {}))

	r, err := sensor.Read(snsctx.SetVerbose(context.Background(), true))
	require.NoError(t, err)
	assert.InDelta(t, 24.5, r.Temperature, 0.001)
	assert.InDelta(t, 38.0, r.Humidity, 0.001)

	// status read (2 reports), 3 calibration writes, trigger, data read (2 reports)
	assert.Len(t, bridge.requests, 8)
	assert.Equal(t, bridge.opened, bridge.closed)

	trigger := bridge.requests[5]
	assert.Equal(t, cmdI2CWriteData, trigger[0])
	assert.Equal(t, []byte{0x03, 0x00}, trigger[1:3])
	assert.Equal(t, byte(environment.DefaultAddress<<1), trigger[3])
	assert.Equal(t, []byte{0xAC, 0x33, 0x00}, trigger[4:7])

	read := bridge.requests[6]
	assert.Equal(t, cmdI2CReadData, read[0])
	assert.Equal(t, []byte{0x08, 0x00}, read[1:3])
	assert.Equal(t, byte(environment.DefaultAddress<<1+1), read[3])
}

func TestMCP2221_Busy(t *testing.T) {
	bridge := &fakeBridge{busy: true}
	a := newTestAdapter(bridge)
	ctx := context.Background()

	err := a.WriteToAddr(ctx, 0x38, []byte{0xAC, 0x33, 0x00})
	assert.ErrorIs(t, err, dht20.ErrBusBusy)

	err = a.ReadFromAddr(ctx, 0x38, make([]byte, 1))
	assert.ErrorIs(t, err, dht20.ErrBusBusy)
}

func TestMCP2221_OpenError(t *testing.T) {
	a := NewMCP2221(WithResponseWait(0))
	a.open = func() (hidDevice, error) { return nil, ErrDeviceNotFound }

	err := a.WriteToAddr(context.Background(), 0x38, []byte{0x00})
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestMCP2221_MismatchedResponse(t *testing.T) {
	bridge := &fakeBridge{target: environment.NewSimulated(nil, nil)}
	a := newTestAdapter(bridge)
	a.open = func() (hidDevice, error) {
		return &echoMismatch{fakeBridge: bridge}, nil
	}
	err := a.WriteToAddr(context.Background(), 0x38, []byte{0x00})
	assert.ErrorIs(t, err, ErrCommandFailed)
}

type echoMismatch struct {
	*fakeBridge
}

func (e *echoMismatch) Read(b []byte) (int, error) {
	clear(b)
	b[0] = 0xFF
	return len(b), nil
}

func TestMCP2221_Status(t *testing.T) {
	bridge := &fakeBridge{}
	a := newTestAdapter(bridge)

	status, err := a.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &MCP2221Status{
		I2CDataBufferCounter: 3,
		I2CSpeedDivider:      0x76,
		I2CTimeout:           0x20,
		CurrentAddress:       "7000",
		ReadPending:          1,
	}, status)

	_, err = a.ReleaseBus(context.Background())
	require.NoError(t, err)
	release := bridge.requests[1]
	assert.Equal(t, cmdStatusSetParameters, release[0])
	assert.Equal(t, statusCancelTransfer, release[2])
}

func TestMCP2221_BufferToStatus(t *testing.T) {
	buf := make([]byte, reportSize)
	buf[9], buf[10] = 0x08, 0x00
	buf[11], buf[12] = 0x03, 0x01
	status := bufferToStatus(buf)
	assert.Equal(t, uint16(8), status.LastWriteRequestedSize)
	assert.Equal(t, uint16(0x0103), status.LastWriteSentSize)
	assert.Equal(t, "0000", status.CurrentAddress)
}

func TestMCP2221_TargetNack(t *testing.T) {
	bridge := &fakeBridge{target: errTarget{}}
	a := newTestAdapter(bridge)
	err := a.ReadFromAddr(context.Background(), 0x38, make([]byte, 8))
	assert.ErrorIs(t, err, dht20.ErrBusBusy)
	// no data request after the engine refused the read
	assert.Len(t, bridge.requests, 1)
}

type errTarget struct{}

func (errTarget) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	return errors.New("nack")
}

func (errTarget) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	return errors.New("nack")
}

func (errTarget) Release(ctx context.Context) error {
	return nil
}
