package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldToken   = "token"
	fieldProfile = "profile"
	fieldDevice  = "device"
)

// RedisStore persists sessions in a redis hash per browser session, so logins
// survive portal restarts. Each hash carries exactly the two durable entries
// the session model defines (token and JSON profile) plus the device label.
type RedisStore struct {
	notifier
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(sid string) string {
	return "portal:session:" + sid
}

func (s *RedisStore) Get(ctx context.Context, sid string) (Session, error) {
	vals, err := s.client.HGetAll(ctx, key(sid)).Result()
	if err != nil {
		return Session{}, fmt.Errorf("session get: %w", err)
	}
	if len(vals) == 0 {
		return Session{}, nil
	}
	return normalize(Session{
		Token:  vals[fieldToken],
		User:   decodeProfile([]byte(vals[fieldProfile])),
		Device: vals[fieldDevice],
	}), nil
}

func (s *RedisStore) Set(ctx context.Context, sid string, sess Session) error {
	sess = normalize(sess)
	if sess.Empty() {
		return s.Clear(ctx, sid)
	}

	k := key(sid)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, k)
	fields := map[string]any{fieldToken: sess.Token}
	if raw := encodeProfile(sess.User); raw != nil {
		fields[fieldProfile] = string(raw)
	}
	if sess.Device != "" {
		fields[fieldDevice] = sess.Device
	}
	pipe.HSet(ctx, k, fields)
	if s.ttl > 0 {
		pipe.Expire(ctx, k, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session set: %w", err)
	}
	s.notify(sid, sess)
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, key(sid)).Err(); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	s.notify(sid, Session{})
	return nil
}

func (s *RedisStore) Subscribe(l Listener) func() {
	return s.subscribe(l)
}
