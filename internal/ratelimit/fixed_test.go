package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFixedWindowMemory(t *testing.T) {
	fw, err := NewFixedWindow(nil, "test")
	require.NoError(t, err)
	ctx := context.Background()

	allowed, remaining, reset, err := fw.Allow(ctx, "cart:default:1.2.3.4", time.Minute, 2)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 1, remaining)
	require.True(t, reset.After(time.Now()))

	allowed, _, _, err = fw.Allow(ctx, "cart:default:1.2.3.4", time.Minute, 2)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, remaining, _, err = fw.Allow(ctx, "cart:default:1.2.3.4", time.Minute, 2)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)

	allowed, _, _, err = fw.Allow(ctx, "cart:wishlist:1.2.3.4", time.Minute, 2)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestNewStrategy(t *testing.T) {
	a, err := New("", nil, "p:")
	require.NoError(t, err)
	require.IsType(t, Limiter{}, a)

	a, err = New(StrategyFixed, nil, "p")
	require.NoError(t, err)
	require.IsType(t, FixedWindow{}, a)

	_, err = New("leaky", nil, "p")
	require.Error(t, err)
}
