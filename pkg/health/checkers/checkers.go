// Package checkers adapts storage clients to health.Checker.
package checkers

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Ping is a named dependency probe.
type Ping struct {
	name string
	ping func(ctx context.Context) error
}

func (p Ping) Name() string { return p.name }

func (p Ping) Check(ctx context.Context) error {
	if err := p.ping(ctx); err != nil {
		return fmt.Errorf("%s ping: %w", p.name, err)
	}
	return nil
}

// NewPostgresChecker probes the pool used by repositories and the version ledger.
func NewPostgresChecker(pool *pgxpool.Pool) Ping {
	return Ping{name: "postgres", ping: pool.Ping}
}

// NewRedisChecker probes the redis ledger backend.
func NewRedisChecker(client redis.Cmdable) Ping {
	return Ping{name: "redis", ping: func(ctx context.Context) error { return client.Ping(ctx).Err() }}
}
