package i2c

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gobot "gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/dht20"
	"github.com/mklimuk/dht20/environment"
)

// fakeConnection serves reads from a queue and records writes. Methods other
// than Read, Write and Close are not used by GobotBus.
type fakeConnection struct {
	gobot.Connection
	reads  [][]byte
	writes [][]byte
	short  bool
	closed bool
}

func (c *fakeConnection) Read(b []byte) (int, error) {
	if len(c.reads) == 0 {
		return 0, errors.New("nothing to read")
	}
	n := copy(b, c.reads[0])
	c.reads = c.reads[1:]
	return n, nil
}

func (c *fakeConnection) Write(b []byte) (int, error) {
	c.writes = append(c.writes, append([]byte(nil), b...))
	if c.short {
		return len(b) - 1, nil
	}
	return len(b), nil
}

func (c *fakeConnection) Close() error {
	c.closed = true
	return nil
}

type fakeConnector struct {
	conns  map[int]*fakeConnection
	opened []int
	busNrs []int
	err    error
}

func (f *fakeConnector) GetI2cConnection(address int, busNr int) (gobot.Connection, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.opened = append(f.opened, address)
	f.busNrs = append(f.busNrs, busNr)
	return f.conns[address], nil
}

func (f *fakeConnector) DefaultI2cBus() int {
	return 1
}

func TestGobotBus_DHT20Read(t *testing.T) {
	conn := &fakeConnection{
		reads: [][]byte{
			{0x00},
			{0x1C, 0x03, 0x04, 0x05, 0x06, 0x07, 0x00, 0x00},
		},
	}
	connector := &fakeConnector{conns: map[int]*fakeConnection{environment.DefaultAddress: conn}}
	bus := NewGobotBus(connector)
	sensor := environment.NewDHT20(bus, environment.DefaultAddress, dht20.DelayFunc(func(uint16) {}))

	r, err := sensor.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float32(1.177978515625), r.Humidity)
	assert.Equal(t, float32(12.794303894042969), r.Temperature)
	assert.Equal(t, [][]byte{
		{0x1B, 0x00, 0x00},
		{0x1C, 0x00, 0x00},
		{0x1E, 0x00, 0x00},
		{0xAC, 0x33, 0x00},
	}, conn.writes)

	// connection is opened once and reused
	assert.Equal(t, []int{environment.DefaultAddress}, connector.opened)
	assert.Equal(t, []int{1}, connector.busNrs)

	require.NoError(t, bus.Close())
	assert.True(t, conn.closed)
}

func TestGobotBus_BusNumber(t *testing.T) {
	conn := &fakeConnection{reads: [][]byte{{0x18}}}
	connector := &fakeConnector{conns: map[int]*fakeConnection{0x38: conn}}
	bus := NewGobotBus(connector, WithBusNumber(2))

	buf := make([]byte, 1)
	require.NoError(t, bus.ReadFromAddr(context.Background(), 0x38, buf))
	assert.Equal(t, []int{2}, connector.busNrs)
	assert.Equal(t, byte(0x18), buf[0])
}

func TestGobotBus_Errors(t *testing.T) {
	ctx := context.Background()

	openErr := errors.New("no such bus")
	bus := NewGobotBus(&fakeConnector{err: openErr})
	err := bus.WriteToAddr(ctx, 0x38, []byte{0xAC})
	assert.ErrorIs(t, err, openErr)

	conn := &fakeConnection{short: true}
	bus = NewGobotBus(&fakeConnector{conns: map[int]*fakeConnection{0x38: conn}})
	err = bus.WriteToAddr(ctx, 0x38, []byte{0xAC, 0x33, 0x00})
	assert.EqualError(t, err, "short write to i2c bus 1 device 38: 2 of 3 bytes")

	err = bus.ReadFromAddr(ctx, 0x38, make([]byte, 8))
	assert.EqualError(t, err, "could not read from i2c bus 1 device 38: nothing to read")

	conn.reads = [][]byte{{0x18}}
	err = bus.ReadFromAddr(ctx, 0x38, make([]byte, 8))
	assert.EqualError(t, err, "short read from i2c bus 1 device 38: 1 of 8 bytes")
}
