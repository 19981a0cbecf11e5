package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Ping checks that the database answers and returns its version.
type Ping func(ctx context.Context) (string, error)

// URLPing opens a fresh connection to url for every call, so it works
// before any pool exists.
func URLPing(url string, timeout time.Duration) Ping {
	return func(ctx context.Context) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		conn, err := pgx.Connect(ctx, url)
		if err != nil {
			return "", err
		}
		defer conn.Close(context.Background())

		var v string
		if err := conn.QueryRow(ctx, "SELECT version()").Scan(&v); err != nil {
			return "", err
		}
		return v, nil
	}
}

// WaitForDatabase calls ping until it succeeds, at most tries times with
// wait between attempts. It returns the last ping error once the attempts
// run out, or the context error if ctx ends first.
func WaitForDatabase(ctx context.Context, ping Ping, tries int, wait time.Duration, log zerolog.Logger) (string, error) {
	if tries < 1 {
		tries = 1
	}
	var lastErr error
	for attempt := 1; attempt <= tries; attempt++ {
		log.Info().Int("attempt", attempt).Int("max_tries", tries).Msg("checking database")

		version, err := ping(ctx)
		if err == nil {
			log.Info().Str("version", version).Msg("database is up")
			return version, nil
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt).Msg("database not ready")

		if attempt == tries {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
	if lastErr == nil {
		lastErr = errors.New("database not reachable")
	}
	log.Error().Err(lastErr).Int("tries", tries).Msg("giving up on database")
	return "", lastErr
}
