package dht20

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelayFunc(t *testing.T) {
	var got []uint16
	var d Delayer = DelayFunc(func(ms uint16) { got = append(got, ms) })
	d.DelayMs(80)
	d.DelayMs(0)
	assert.Equal(t, []uint16{80, 0}, got)
}

func TestSleepDelay(t *testing.T) {
	start := time.Now()
	SleepDelay{}.DelayMs(5)
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}
