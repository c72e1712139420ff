package utils

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimer_Phases(t *testing.T) {
	clock := NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	timer := NewTimer("analyze", WithClock(clock))

	stop := timer.Start("parse")
	clock.Advance(150 * time.Millisecond)
	assert.Equal(t, 150*time.Millisecond, stop())

	clock.Advance(time.Second)
	assert.Equal(t, 150*time.Millisecond, stop(), "second stop keeps the first duration")

	d, err := timer.TimeFuncWithError("report", func() error {
		clock.Advance(20 * time.Millisecond)
		return errors.New("disk full")
	})
	assert.EqualError(t, err, "disk full")
	assert.Equal(t, 20*time.Millisecond, d)

	phases := timer.Phases()
	require.Len(t, phases, 2)
	assert.Equal(t, Phase{Name: "parse", Duration: 150 * time.Millisecond}, phases[0])
	assert.Equal(t, "report", phases[1].Name)
	assert.Equal(t, 1170*time.Millisecond, timer.Total())
}

func TestTimer_Summary(t *testing.T) {
	clock := NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	timer := NewTimer("analyze", WithClock(clock))

	stop := timer.Start("parse")
	clock.Advance(time.Second)
	stop()

	summary := timer.Summary()
	assert.Contains(t, summary, "=== analyze Timing Summary ===")
	assert.Contains(t, summary, "Phase 1 - parse: 1s")
	assert.Contains(t, summary, "Total: 1s")

	buf := &bytes.Buffer{}
	timer.Log(NewDefaultLogger(LevelDebug, buf))
	assert.Contains(t, buf.String(), "[DEBUG] Phase 1 - parse: 1s")
}
