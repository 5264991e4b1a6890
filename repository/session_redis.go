package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"officefruits/workflow"
)

const sessionKeyPrefix = "officefruits:session:"

// RedisSessionStore keeps sessions in Redis as JSON with a sliding TTL.
// Update uses an optimistic WATCH transaction; a concurrent write makes it
// fail with ErrSessionConflict.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore creates a new RedisSessionStore
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

// NewRedisClient opens a client and checks the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Ensure RedisSessionStore implements SessionStore
var _ SessionStore = (*RedisSessionStore)(nil)

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Get returns the stored session
func (r *RedisSessionStore) Get(ctx context.Context, id string) (*workflow.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return decodeSession(data)
}

// Create stores a new session
func (r *RedisSessionStore) Create(ctx context.Context, sess *workflow.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(sess.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Update applies fn inside a WATCH/MULTI transaction
func (r *RedisSessionStore) Update(ctx context.Context, id string, fn func(*workflow.Session) error) (*workflow.Session, error) {
	key := sessionKey(id)
	var updated *workflow.Session

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}

		sess, err := decodeSession(data)
		if err != nil {
			return err
		}
		if err := fn(sess); err != nil {
			return err
		}
		sess.UpdatedAt = time.Now()

		out, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("failed to encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = sess
		return nil
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return nil, ErrSessionConflict
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a session
func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
