package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocBumpsAndAligns(t *testing.T) {
	a := New(NewSlabPool(256))
	defer a.Close()

	b1, err := a.Alloc(3, false)
	require.NoError(t, err)
	b2, err := a.Alloc(5, false)
	require.NoError(t, err)

	assert.Len(t, b1, 3)
	assert.Len(t, b2, 5)
	assert.Equal(t, 16+5, a.used[0], "second allocation should start at the next 16-byte boundary")
}

func TestPushPopRestoresHighWaterMark(t *testing.T) {
	a := New(NewSlabPool(256))
	defer a.Close()

	_, err := a.Alloc(8, false)
	require.NoError(t, err)
	mark := a.HighWaterMark()

	a.Push()
	_, err = a.Alloc(64, false)
	require.NoError(t, err)
	assert.Greater(t, a.HighWaterMark(), mark)

	require.NoError(t, a.Pop())
	assert.Equal(t, mark, a.HighWaterMark())
}

func TestUnbalancedPopErrors(t *testing.T) {
	a := New(NewSlabPool(256))
	defer a.Close()
	assert.Equal(t, ErrUnbalancedPop, a.Pop())
}

func TestGrowBeyondSegmentAllocatesNewSlab(t *testing.T) {
	pool := NewSlabPool(64)
	a := New(pool)
	defer a.Close()

	_, err := a.Alloc(48, false)
	require.NoError(t, err)
	// This request doesn't fit in the 64-byte segment's remainder, so the
	// arena must request a new slab unit rather than failing.
	b, err := a.Alloc(48, false)
	require.NoError(t, err)
	assert.Len(t, b, 48)
	assert.Len(t, a.segments, 2)
}

func TestAllocLargerThanSegmentRejected(t *testing.T) {
	a := New(NewSlabPool(64))
	defer a.Close()
	_, err := a.Alloc(128, false)
	assert.Equal(t, ErrAllocTooLarge, err)
}

func TestResetReturnsExtraSegments(t *testing.T) {
	pool := NewSlabPool(64)
	a := New(pool)
	defer a.Close()

	require.NoError(t, func() error { _, err := a.Alloc(48, false); return err }())
	require.NoError(t, func() error { _, err := a.Alloc(48, false); return err }())
	require.Len(t, a.segments, 2)

	a.Reset()
	assert.Len(t, a.segments, 1)
	assert.Equal(t, 0, a.HighWaterMark())
}

func TestZeroedAllocation(t *testing.T) {
	a := New(NewSlabPool(256))
	defer a.Close()
	b, err := a.Alloc(4, false)
	require.NoError(t, err)
	for i := range b {
		b[i] = 0xff
	}
	z, err := a.Alloc(4, true)
	require.NoError(t, err)
	for _, c := range z {
		assert.Equal(t, byte(0), c)
	}
}
