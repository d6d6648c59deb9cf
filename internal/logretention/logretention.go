// Package logretention stores per-session activity lines in redis and
// clears them when the session ends.
package logretention

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Retention appends and discards activity lines scoped to one session.
type Retention interface {
	AppendSessionLog(ctx context.Context, sessionID int64, line string) error
	SessionLogs(ctx context.Context, sessionID int64) ([]string, error)
	RemoveSessionLogs(ctx context.Context, sessionID int64) error
}

type redisRetention struct {
	client *redis.Client
	prefix string
}

// NewRedisRetention builds a Retention over the given client, namespaced
// under prefix.
func NewRedisRetention(client *redis.Client, prefix string) Retention {
	return &redisRetention{client: client, prefix: prefix}
}

func (r *redisRetention) key(sessionID int64) string {
	return fmt.Sprintf("%s:logs:%d", r.prefix, sessionID)
}

func (r *redisRetention) AppendSessionLog(ctx context.Context, sessionID int64, line string) error {
	if err := r.client.RPush(ctx, r.key(sessionID), line).Err(); err != nil {
		return fmt.Errorf("appending session log: %w", err)
	}
	return nil
}

func (r *redisRetention) SessionLogs(ctx context.Context, sessionID int64) ([]string, error) {
	lines, err := r.client.LRange(ctx, r.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading session logs: %w", err)
	}
	return lines, nil
}

func (r *redisRetention) RemoveSessionLogs(ctx context.Context, sessionID int64) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("removing session logs: %w", err)
	}
	return nil
}
