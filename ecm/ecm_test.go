package ecm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillProducesExpectedFrameCount(t *testing.T) {
	buf := NewBuffer()
	data := bytes.Repeat([]byte{0xAA}, 256*3+10)
	n, err := Fill(buf, data, 256)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.True(t, buf.Complete(n))

	last, ok := buf.Get(3)
	require.True(t, ok)
	assert.Len(t, last, 10)
}

func TestFillRejectsOverlongPage(t *testing.T) {
	buf := NewBuffer()
	data := make([]byte, (Slots+1)*4)
	_, err := Fill(buf, data, 4)
	assert.Error(t, err)
}

func TestPutGetClearRoundTrip(t *testing.T) {
	buf := NewBuffer()
	assert.False(t, buf.Filled(10))
	require.NoError(t, buf.Put(10, []byte{1, 2, 3}))
	assert.True(t, buf.Filled(10))

	got, ok := buf.Get(10)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, got)

	buf.Clear(10)
	assert.False(t, buf.Filled(10))
}

func TestFirstBadAndComplete(t *testing.T) {
	buf := NewBuffer()
	require.NoError(t, buf.Put(0, []byte{1}))
	require.NoError(t, buf.Put(2, []byte{1}))
	assert.Equal(t, 1, buf.FirstBad(3))
	assert.False(t, buf.Complete(3))

	require.NoError(t, buf.Put(1, []byte{1}))
	assert.True(t, buf.Complete(3))
	assert.Equal(t, Slots, buf.FirstBad(3))
}

func TestBuildAndApplyPPR(t *testing.T) {
	buf := NewBuffer()
	require.NoError(t, buf.Put(0, []byte{1}))
	require.NoError(t, buf.Put(2, []byte{1}))
	// slot 1 left empty

	p := BuildPPR(buf, 3)
	assert.True(t, p.Missing(1))
	assert.False(t, p.Missing(0))
	assert.Equal(t, 1, p.Count())

	wire := p.Bytes()
	require.Len(t, wire, BitmapLen)
	got := ParsePPR(wire)
	assert.Equal(t, p, got)

	got.Apply(buf, 3)
	assert.False(t, buf.Filled(1), "never-filled slot stays empty")
	assert.False(t, buf.Filled(0), "slot the PPR didn't complain about is cleared, not resent")
}

func TestApplyKeepsOnlyStillMissingSlots(t *testing.T) {
	buf := NewBuffer()
	require.NoError(t, buf.Put(0, []byte{1}))
	require.NoError(t, buf.Put(1, []byte{2}))
	require.NoError(t, buf.Put(2, []byte{3}))

	// Hand-build a PPR reporting slot 1 as still bad, unlike BuildPPR
	// (which only ever reports never-filled slots) — this is what the
	// far end sends back after receiving frames 0 and 2 cleanly but
	// frame 1 corrupt.
	var p PPR
	p.Bitmap[0] = 1 << 1

	p.Apply(buf, 3)
	assert.False(t, buf.Filled(0), "acknowledged slot is cleared, not resent")
	assert.True(t, buf.Filled(1), "still-missing slot stays filled for resend")
	assert.False(t, buf.Filled(2), "acknowledged slot is cleared, not resent")
}

func TestBuildFCDAndParseRoundTrip(t *testing.T) {
	buf := NewBuffer()
	require.NoError(t, buf.Put(5, []byte{9, 8, 7}))

	f, err := BuildFCD(buf, 5, true)
	require.NoError(t, err)
	assert.Equal(t, byte(0xFF), f.Bytes()[0])

	frameNo, data, err := ParseFCD(f.Payload)
	require.NoError(t, err)
	assert.Equal(t, 5, frameNo)
	assert.Equal(t, []byte{9, 8, 7}, data)
}

func TestBuildBurstSkipsEmptySlotsAndAppendsRCPs(t *testing.T) {
	buf := NewBuffer()
	require.NoError(t, buf.Put(0, []byte{1}))
	require.NoError(t, buf.Put(2, []byte{1}))

	frames, err := BuildBurst(buf, 3, false)
	require.NoError(t, err)
	assert.Len(t, frames, 2+RCPRepeats)
}

func TestRetryTrackerProgressingStaysRetry(t *testing.T) {
	r := NewRetryTracker()
	for _, bad := range []int{10, 8, 6, 4, 2} {
		assert.Equal(t, OutcomeRetry, r.Observe(bad))
	}
}

func TestRetryTrackerFallsBackToCTCWhenStalled(t *testing.T) {
	r := NewRetryTracker()
	assert.Equal(t, OutcomeRetry, r.Observe(100))
	for i := 0; i < MaxConsecutivePPRs-1; i++ {
		assert.Equal(t, OutcomeRetry, r.Observe(100))
	}
	assert.Equal(t, OutcomeCTC, r.Observe(100))
}

func TestRetryTrackerGivesUpWhenNearlyAllBad(t *testing.T) {
	r := NewRetryTracker()
	for i := 0; i < MaxConsecutivePPRs; i++ {
		r.Observe(255)
	}
	assert.Equal(t, OutcomeEOR, r.Observe(255))
}
