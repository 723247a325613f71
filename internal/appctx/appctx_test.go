package appctx

import (
	"context"
	"testing"
	"time"

	"github.com/dapurasri/backoffice/internal/testutil"
	xhttp "github.com/dapurasri/backoffice/pkg/http"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

const secret = "test-secret"

func newCtx(method, path, token string) *xhttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(path)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	return ctx
}

func TestVerifier(t *testing.T) {
	v := NewVerifier(secret)
	token, err := v.Sign(Session{UserID: "u-1", Email: "sari@dapurasri.id", ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	s, err := v.Verify("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", s.UserID)
	assert.Equal(t, "sari@dapurasri.id", s.Email)

	t.Run("expired", func(t *testing.T) {
		old, err := v.Sign(Session{UserID: "u-1", ExpiresAt: time.Now().Add(-time.Minute)})
		require.NoError(t, err)
		_, err = v.Verify(old)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewVerifier("other").Sign(Session{UserID: "u-1", ExpiresAt: time.Now().Add(time.Hour)})
		require.NoError(t, err)
		_, err = v.Verify(other)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("no expiry", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u-1"}).SignedString([]byte(secret))
		require.NoError(t, err)
		_, err = v.Verify(raw)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("no subject", func(t *testing.T) {
		raw, err := v.Sign(Session{ExpiresAt: time.Now().Add(time.Hour)})
		require.NoError(t, err)
		_, err = v.Verify(raw)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	_, err = v.Verify("")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRedisThemeStore(t *testing.T) {
	r, mr := testutil.NewRedis(t, "test:")
	store := NewRedisThemeStore(r)
	ctx := context.Background()

	theme, err := store.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, theme)

	require.NoError(t, store.Set(ctx, "u-1", ThemeDark))
	theme, err = store.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, theme)
	assert.True(t, mr.Exists("test:theme:u-1"))

	assert.Error(t, store.Set(ctx, "u-1", Theme("sepia")))
}

func TestMiddleware(t *testing.T) {
	r, _ := testutil.NewRedis(t, "test:")
	themes := NewRedisThemeStore(r)
	require.NoError(t, themes.Set(context.Background(), "u-1", ThemeDark))

	v := NewVerifier(secret)
	token, err := v.Sign(Session{UserID: "u-1", Email: "sari@dapurasri.id", ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	var got *Context
	h := Middleware(v, themes, "/api/v1/health")(func(ctx *xhttp.RequestCtx) {
		got, _ = From(ctx)
		ctx.SetStatusCode(xhttp.StatusOK)
	})

	t.Run("attaches the context", func(t *testing.T) {
		ctx := newCtx("GET", "/api/v1/products", token)
		h(ctx)
		assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
		require.NotNil(t, got)
		assert.Equal(t, "u-1", got.Session.UserID)
		assert.Equal(t, ThemeDark, got.Theme)
	})

	t.Run("rejects a missing token", func(t *testing.T) {
		got = nil
		ctx := newCtx("GET", "/api/v1/products", "")
		h(ctx)
		assert.Equal(t, xhttp.StatusUnauthorized, ctx.Response.StatusCode())
		assert.Contains(t, string(ctx.Response.Body()), `"error"`)
		assert.Nil(t, got)
	})

	t.Run("open paths pass", func(t *testing.T) {
		got = nil
		ctx := newCtx("GET", "/api/v1/health", "")
		h(ctx)
		assert.Equal(t, xhttp.StatusOK, ctx.Response.StatusCode())
		assert.Nil(t, got)
	})
}
