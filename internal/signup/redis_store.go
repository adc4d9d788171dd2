package signup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis with native TTL expiry. Unlike the
// memory store, entries vanish exactly at their deadline, so the resend grace
// window the memory store's sweep interval leaves open does not exist here.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// sessionKey generates the Redis key for a signup session
func sessionKey(sessionID string) string {
	return fmt.Sprintf("signup_session:%s", sessionID)
}

func (s *RedisStore) Put(ctx context.Context, session *Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode signup session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session expiration time is in the past")
	}

	if err := s.client.Set(ctx, sessionKey(session.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store signup session: %w", err)
	}

	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signup session: %w", err)
	}

	session, err := decodeSession(payload)
	if err != nil {
		return nil, err
	}

	// Redis TTL normally handles this; guard against clock skew anyway
	if session.Expired(time.Now()) {
		_ = s.client.Del(ctx, sessionKey(sessionID)).Err()
		return nil, ErrSessionNotFound
	}

	return session, nil
}

func (s *RedisStore) Peek(ctx context.Context, sessionID string) (*Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to peek signup session: %w", err)
	}

	return decodeSession(payload)
}

func (s *RedisStore) Take(ctx context.Context, sessionID string) (*Session, error) {
	// GETDEL makes the read-and-remove a single atomic step, which is what
	// gives complete-signup exactly one winner under duplicate requests
	payload, err := s.client.GetDel(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take signup session: %w", err)
	}

	session, err := decodeSession(payload)
	if err != nil {
		return nil, err
	}

	if session.Expired(time.Now()) {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

func (s *RedisStore) MarkVerified(ctx context.Context, sessionID string) error {
	return s.mutate(ctx, sessionID, func(session *Session) {
		session.Verified = true
	})
}

func (s *RedisStore) RecordFailedAttempt(ctx context.Context, sessionID string) (int, error) {
	var attempts int
	err := s.mutate(ctx, sessionID, func(session *Session) {
		session.Attempts++
		attempts = session.Attempts
	})
	return attempts, err
}

// mutateRetries bounds optimistic-lock retries when writers collide
const mutateRetries = 3

// mutate applies fn to the stored session under WATCH, so concurrent writers
// never clobber each other's fields. The key's remaining TTL is preserved.
func (s *RedisStore) mutate(ctx context.Context, sessionID string, fn func(*Session)) error {
	key := sessionKey(sessionID)

	txf := func(tx *redis.Tx) error {
		payload, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get signup session: %w", err)
		}

		session, err := decodeSession(payload)
		if err != nil {
			return err
		}
		if session.Expired(time.Now()) {
			return ErrSessionNotFound
		}

		fn(session)

		updated, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("failed to encode signup session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, redis.KeepTTL)
			return nil
		})
		return err
	}

	for i := 0; i < mutateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}

	return fmt.Errorf("failed to update signup session: too many conflicting writes")
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete signup session: %w", err)
	}

	return nil
}

func decodeSession(payload string) (*Session, error) {
	session := new(Session)
	if err := json.Unmarshal([]byte(payload), session); err != nil {
		return nil, fmt.Errorf("failed to decode signup session: %w", err)
	}

	return session, nil
}
