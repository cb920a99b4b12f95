package clock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/rlsignal-oss/clock"
	"github.com/tsinghua-fib-lab/rlsignal-oss/utils/config"
)

func TestClock(t *testing.T) {
	c := clock.New(config.ControlStep{Start: 28800, Total: 3600, Interval: 1})
	assert.Equal(t, int32(28800), c.Step)
	assert.Equal(t, int32(32400), c.END_STEP)
	assert.Equal(t, "08:00:00", c.String())
	assert.False(t, c.Done())

	c.Tick()
	assert.Equal(t, int32(28801), c.Step)
	assert.Equal(t, 28801.0, c.T)

	hour, minute, second := c.GetHourMinuteSecond()
	assert.Equal(t, 8, hour)
	assert.Equal(t, 0, minute)
	assert.Equal(t, 1.0, second)

	// Init重置回起始步
	c.Init()
	assert.Equal(t, int32(28800), c.Step)
}

func TestClockDone(t *testing.T) {
	c := clock.New(config.ControlStep{Start: 0, Total: 2, Interval: 0.5})
	assert.False(t, c.Done())
	c.Tick()
	assert.False(t, c.Done())
	assert.Equal(t, 0.5, c.T)
	c.Tick()
	assert.True(t, c.Done())
}
