package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/dapurasri/backoffice/pkg/redis"
	"github.com/google/uuid"
)

// DraftStore keeps sales drafts between requests.
type DraftStore interface {
	Save(ctx context.Context, d *model.Draft) error
	Get(ctx context.Context, id uuid.UUID) (*model.Draft, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Lock takes the commit lock of a draft and returns the token that
	// releases it. ok is false when another request holds the lock.
	Lock(ctx context.Context, id uuid.UUID) (token string, ok bool, err error)
	// Unlock releases the lock while token still owns it. A lock that expired
	// and was taken by another request is left in place and ErrLockLost is
	// returned.
	Unlock(ctx context.Context, id uuid.UUID, token string) error
}

var ErrLockLost = errors.New("draft lock expired before release")

type RedisDraftStore struct {
	redis   redis.RedisAdapter
	ttl     time.Duration
	lockTTL time.Duration
}

func NewRedisDraftStore(r redis.RedisAdapter, ttl time.Duration) *RedisDraftStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisDraftStore{redis: r, ttl: ttl, lockTTL: 30 * time.Second}
}

func draftKey(id uuid.UUID) string {
	return "draft:" + id.String()
}

func draftLockKey(id uuid.UUID) string {
	return "lock:draft:" + id.String()
}

// Save writes the draft and restarts its expiry.
func (s *RedisDraftStore) Save(ctx context.Context, d *model.Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return s.redis.Set(ctx, draftKey(d.ID), raw, s.ttl)
}

func (s *RedisDraftStore) Get(ctx context.Context, id uuid.UUID) (*model.Draft, error) {
	raw, err := s.redis.Get(ctx, draftKey(id))
	if redis.IsNil(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var d model.Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", id, err)
	}
	return &d, nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.redis.Del(ctx, draftKey(id))
}

func (s *RedisDraftStore) Lock(ctx context.Context, id uuid.UUID) (string, bool, error) {
	token := uuid.NewString()
	ok, err := s.redis.SetNX(ctx, draftLockKey(id), []byte(token), s.lockTTL)
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

func (s *RedisDraftStore) Unlock(ctx context.Context, id uuid.UUID, token string) error {
	released, err := s.redis.DelIfValue(ctx, draftLockKey(id), []byte(token))
	if err != nil {
		return err
	}
	if !released {
		return ErrLockLost
	}
	return nil
}
