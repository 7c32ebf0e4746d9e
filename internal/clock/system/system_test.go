package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockNowUTC(t *testing.T) {
	t.Parallel()

	clk := New()
	before := time.Now().UTC().Add(-time.Second)
	got := clk.Now()
	after := time.Now().UTC().Add(time.Second)

	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.After(before) && got.Before(after), "got %v", got)
}

func TestClockSince(t *testing.T) {
	t.Parallel()

	clk := New()
	start := clk.Now().Add(-time.Minute)
	assert.GreaterOrEqual(t, clk.Since(start), time.Minute)
}
