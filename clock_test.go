package statecraft

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockManualMonotonicity(t *testing.T) {
	c := NewClock()
	require.NoError(t, c.SetTime(5))
	assert.Equal(t, 5.0, c.Time())

	err := c.SetTime(3)
	require.Error(t, err)
	var merr *ClockMonotonicityError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, 5.0, merr.Current)
	assert.Equal(t, 3.0, merr.Attempted)
}

func TestClockSynchronized(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := base
	c := &Clock{speed: 1, now: func() time.Time { return tick }}

	c.Start()
	tick = base.Add(10 * time.Second)
	assert.Equal(t, 10.0, c.Time())

	c.SetSpeed(2)
	tick = base.Add(15 * time.Second)
	assert.Equal(t, 10.0+5*2, c.Time())

	c.Stop()
	frozen := c.Time()
	tick = base.Add(100 * time.Second)
	assert.Equal(t, frozen, c.Time())

	err := c.SetTime(frozen - 1)
	require.Error(t, err)
}

func TestClockSetTimeWhileRunningFails(t *testing.T) {
	c := NewClock()
	c.Start()
	err := c.SetTime(10)
	require.Error(t, err)
}
