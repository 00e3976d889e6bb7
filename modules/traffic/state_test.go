package traffic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateVelocity(t *testing.T) {
	var s State

	t.Run("velocity is found", func(t *testing.T) {
		s.SetVelocity(3, Velocity{X: 1, Z: -2})

		v, ok := s.Velocity(3)
		require.True(t, ok)
		require.Equal(t, Velocity{X: 1, Z: -2}, v)
	})

	t.Run("velocity is not found", func(t *testing.T) {
		v, ok := s.Velocity(4)
		require.False(t, ok)
		require.True(t, v.IsZero())
	})

	t.Run("velocity is removed", func(t *testing.T) {
		s.Remove(3)
		_, ok := s.Velocity(3)
		require.False(t, ok)
		require.Zero(t, s.Len())
	})
}

func TestStateMovers(t *testing.T) {
	var s State
	s.SetVelocity(7, Velocity{X: 1})
	s.SetVelocity(2, Velocity{})
	s.SetVelocity(5, Velocity{Z: 3})

	require.Equal(t, []Mover{
		{ID: 2},
		{ID: 5, Velocity: Velocity{Z: 3}},
		{ID: 7, Velocity: Velocity{X: 1}},
	}, s.Movers())
}
