package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix        = "trackdesk:session:"
	maxUpdateRetries = 5
)

// RedisStore keeps sessions in redis as JSON with a sliding TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore returns a redis-backed Store.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, id string) (*State, error) {
	data, err := s.rdb.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: load: %w", err)
	}
	return decode(data)
}

// Update uses WATCH/MULTI so concurrent updates of one session retry instead
// of overwriting each other.
func (s *RedisStore) Update(ctx context.Context, id string, fn func(*State) error) (*State, error) {
	k := key(id)

	var result *State
	txf := func(tx *redis.Tx) error {
		var working *State
		data, err := tx.Get(ctx, k).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			working = NewState(id)
		case err != nil:
			return err
		default:
			if working, err = decode(data); err != nil {
				return err
			}
		}

		if err := fn(working); err != nil {
			return err
		}
		working.UpdatedAt = time.Now()

		encoded, err := json.Marshal(working)
		if err != nil {
			return fmt.Errorf("session: encode: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, encoded, s.ttl)
			return nil
		})
		if err == nil {
			result = working
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.rdb.Watch(ctx, txf, k)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("session: update %s: too much contention", id)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

func key(id string) string {
	return keyPrefix + id
}

func decode(data []byte) (*State, error) {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	return &st, nil
}
