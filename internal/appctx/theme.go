package appctx

import (
	"context"
	"fmt"

	"github.com/dapurasri/backoffice/pkg/redis"
)

type ThemeStore interface {
	Get(ctx context.Context, userID string) (Theme, error)
	Set(ctx context.Context, userID string, theme Theme) error
}

// RedisThemeStore keeps one theme key per user without expiry.
type RedisThemeStore struct {
	redis redis.RedisAdapter
}

func NewRedisThemeStore(r redis.RedisAdapter) *RedisThemeStore {
	return &RedisThemeStore{redis: r}
}

func themeKey(userID string) string {
	return "theme:" + userID
}

// Get returns the stored theme, light when none was chosen.
func (s *RedisThemeStore) Get(ctx context.Context, userID string) (Theme, error) {
	raw, err := s.redis.Get(ctx, themeKey(userID))
	if redis.IsNil(err) {
		return ThemeLight, nil
	}
	if err != nil {
		return ThemeLight, err
	}
	t := Theme(raw)
	if !t.Valid() {
		return ThemeLight, nil
	}
	return t, nil
}

func (s *RedisThemeStore) Set(ctx context.Context, userID string, theme Theme) error {
	if !theme.Valid() {
		return fmt.Errorf("unknown theme %q", theme)
	}
	return s.redis.Set(ctx, themeKey(userID), []byte(theme), 0)
}
