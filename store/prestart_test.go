package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForDatabaseRetriesUntilUp(t *testing.T) {
	calls := 0
	ping := func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection refused")
		}
		return "PostgreSQL 15.4", nil
	}

	v, err := WaitForDatabase(context.Background(), ping, 5, time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "PostgreSQL 15.4", v)
	assert.Equal(t, 3, calls)
}

func TestWaitForDatabaseGivesUp(t *testing.T) {
	calls := 0
	refused := errors.New("connection refused")
	ping := func(ctx context.Context) (string, error) {
		calls++
		return "", refused
	}

	_, err := WaitForDatabase(context.Background(), ping, 4, time.Millisecond, zerolog.Nop())
	assert.ErrorIs(t, err, refused)
	assert.Equal(t, 4, calls)
}

func TestWaitForDatabaseStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	ping := func(ctx context.Context) (string, error) {
		calls++
		cancel()
		return "", errors.New("connection refused")
	}

	_, err := WaitForDatabase(ctx, ping, 100, time.Hour, zerolog.Nop())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWaitForDatabaseAtLeastOneTry(t *testing.T) {
	calls := 0
	ping := func(ctx context.Context) (string, error) {
		calls++
		return "v", nil
	}
	_, err := WaitForDatabase(context.Background(), ping, 0, time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
