package dfosc

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"dk154mock/pkg/astro"
	"dk154mock/pkg/hardware"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"G5", "gn"},
		{"a0", "an"},
		{"GG012345", "gg"},
		{"gm-1000", "gm"},
		{"g", "g"},
		{"A", "a"},
		{"GIDFOC", "gidfoc"},
		{"fidfoc", "fidfoc"},
		{"FP", "fp"},
		{"fq", "fq"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, Key(tc.input))
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		wheel byte
		op    Op
		arg   int
		err   error
	}{
		{name: "Preset", input: "G5", wheel: 'g', op: OpPreset, arg: 5},
		{name: "Absolute", input: "GG012345", wheel: 'g', op: OpAbsolute, arg: 12345},
		{name: "Ready", input: "g", wheel: 'g', op: OpReady},
		{name: "Relative negative", input: "AM-2000", wheel: 'a', op: OpRelative, arg: -2000},
		{name: "Position", input: "fp", wheel: 'f', op: OpPosition},
		{name: "Home", input: "FX", wheel: 'f', op: OpHome},
		{name: "Init", input: "ai", wheel: 'a', op: OpInit},
		{name: "Stop", input: "gq", wheel: 'g', op: OpStop},
		{name: "IDFOC", input: "AIDFOC", wheel: 'a', op: OpIDFOC},
		{name: "Empty", input: "", err: ErrUnknownCommand},
		{name: "Unknown wheel", input: "ZG100", err: ErrUnknownCommand},
		{name: "Unknown op", input: "gz", err: ErrUnknownCommand},
		{name: "Bad position", input: "GGabc", err: hardware.ErrInvalidParameter},
		{name: "Missing position", input: "GG", err: hardware.ErrInvalidParameter},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := Decode(tc.input)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wheel, cmd.Wheel)
			assert.Equal(t, tc.op, cmd.Op)
			assert.Equal(t, tc.arg, cmd.Arg)
			assert.Equal(t, tc.input, cmd.Raw)
		})
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestResponder() (*Responder, *fakeClock) {
	l := log.New()
	l.SetOutput(io.Discard)
	clock := &fakeClock{now: time.Date(2024, 6, 26, 3, 0, 0, 0, time.UTC)}
	devices := hardware.NewDevices(hardware.DefaultTiming(), astro.LaSilla, hardware.DefaultPark(), l)
	return NewResponder(hardware.NewObservatory(devices, clock, l), l), clock
}

func TestRespondInitialPositions(t *testing.T) {
	r, _ := newTestResponder()
	ctx := context.Background()

	assert.Equal(t, "120000\n", r.Respond(ctx, "gp"))
	assert.Equal(t, "240000\n", r.Respond(ctx, "ap"))
	assert.Equal(t, "160000\n", r.Respond(ctx, "fp"))
	assert.Equal(t, "y\n", r.Respond(ctx, "g"))
	assert.Equal(t, "y\n", r.Respond(ctx, "a"))
	assert.Equal(t, "y\n", r.Respond(ctx, "f"))
}

func TestRespondMoves(t *testing.T) {
	r, clock := newTestResponder()
	ctx := context.Background()

	assert.Equal(t, "GG012345\n", r.Respond(ctx, "GG012345"))
	assert.Equal(t, "012345\n", r.Respond(ctx, "GP"))
	assert.Equal(t, "n\n", r.Respond(ctx, "G"))

	clock.Advance(hardware.DefaultTiming().SlideTime)
	assert.Equal(t, "y\n", r.Respond(ctx, "G"))

	assert.Equal(t, "gm-20000\n", r.Respond(ctx, "gm-20000"))
	assert.Equal(t, "312345\n", r.Respond(ctx, "gp"))

	assert.Equal(t, "A5\n", r.Respond(ctx, "A5"))
	assert.Equal(t, "200000\n", r.Respond(ctx, "ap"))

	assert.Equal(t, "fg330000\n", r.Respond(ctx, "fg330000"))
	assert.Equal(t, "010000\n", r.Respond(ctx, "fp"))
	assert.Equal(t, "fx\n", r.Respond(ctx, "fx"))
	assert.Equal(t, "000000\n", r.Respond(ctx, "fp"))
	assert.Equal(t, "n\n", r.Respond(ctx, "f"))
	assert.Equal(t, "fq\n", r.Respond(ctx, "fq"))
	assert.Equal(t, "y\n", r.Respond(ctx, "f"))
}

func TestRespondErrors(t *testing.T) {
	r, _ := newTestResponder()
	ctx := context.Background()

	assert.Equal(t, "ERR", r.Respond(ctx, "gidfoc"))
	assert.Equal(t, "ERR", r.Respond(ctx, "zz"))
	assert.Equal(t, "ERR", r.Respond(ctx, "ggnope"))
	assert.Equal(t, "ERR", r.Respond(ctx, ""))
	// errors leave state alone
	assert.Equal(t, "120000\n", r.Respond(ctx, "gp"))
}
