package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlot_AtMostOne(t *testing.T) {
	var s Slot
	assert.Nil(t, s.Current())

	first, err := s.Open(3, Options{})
	require.NoError(t, err)
	require.NotNil(t, first)
	first.Tick()

	second, err := s.Open(3, Options{})
	require.NoError(t, err)
	assert.Nil(t, second)
	assert.Same(t, first, s.Current())
	assert.Equal(t, 2, first.Remaining())
	assert.Equal(t, Counting, first.State())
}

func TestSlot_ReopenAfterTerminal(t *testing.T) {
	var s Slot
	first, err := s.Open(5, Options{})
	require.NoError(t, err)
	require.NoError(t, first.Cancel())
	assert.Nil(t, s.Current())

	second, err := s.Open(5, Options{})
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Same(t, second, s.Current())
}

func TestSlot_InvalidDelay(t *testing.T) {
	var s Slot
	g, err := s.Open(0, Options{})
	assert.Nil(t, g)
	assert.ErrorIs(t, err, ErrInvalidDelay)
	assert.Nil(t, s.Current())
}
