package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/gdugdh24/rider-seeker-backend/internal/config"
)

const (
	connectAttempts = 5
	connectBackoff  = time.Second
	pingTimeout     = 5 * time.Second
)

// NewPostgresDB opens the sqlx pool and waits for the server to answer. The
// database container often starts after the API in compose setups, so the
// first ping is retried with a growing backoff.
func NewPostgresDB(ctx context.Context, cfg *config.DatabaseConfig, log zerolog.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(100)
	db.SetConnMaxLifetime(time.Hour)

	err = retry(ctx, log, "postgres", func(ctx context.Context) error {
		return db.PingContext(ctx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Str("host", cfg.Host).Str("db", cfg.DBName).Msg("connected to postgres")
	return db, nil
}

func retry(ctx context.Context, log zerolog.Logger, name string, ping func(ctx context.Context) error) error {
	backoff := connectBackoff
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = ping(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == connectAttempts {
			break
		}

		log.Warn().Err(err).Str("dependency", name).Int("attempt", attempt).Dur("retry_in", backoff).Msg("dependency not ready")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}
