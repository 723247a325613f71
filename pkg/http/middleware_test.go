package xhttp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
)

func newCtx(method, path string) *RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(path)
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	return ctx
}

func TestCORSMiddleware(t *testing.T) {
	called := false
	h := CORSMiddleware("https://dapurasri.id")(func(ctx *RequestCtx) { called = true })

	t.Run("preflight short circuits", func(t *testing.T) {
		ctx := newCtx("OPTIONS", "/api/v1/products")
		h(ctx)
		assert.False(t, called)
		assert.Equal(t, StatusNoContent, ctx.Response.StatusCode())
		assert.Equal(t, "https://dapurasri.id", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")))
	})

	t.Run("regular request passes through", func(t *testing.T) {
		ctx := newCtx("GET", "/api/v1/products")
		h(ctx)
		assert.True(t, called)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	h := RequestIDMiddleware(func(ctx *RequestCtx) {})

	ctx := newCtx("GET", "/")
	h(ctx)
	assert.NotEmpty(t, string(ctx.Response.Header.Peek("X-Request-Id")))

	ctx = newCtx("GET", "/")
	ctx.Request.Header.Set("X-Request-Id", "abc")
	h(ctx)
	assert.Equal(t, "abc", string(ctx.Response.Header.Peek("X-Request-Id")))
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(ctx *RequestCtx) { panic("boom") })
	ctx := newCtx("GET", "/")
	assert.NotPanics(t, func() { h(ctx) })
	assert.Equal(t, StatusInternalServerError, ctx.Response.StatusCode())
}

func TestEngine_MiddlewareOrder(t *testing.T) {
	e := CreateServer()
	var order []string
	mark := func(name string) MiddlewareFunc {
		return func(next RequestHandler) RequestHandler {
			return func(ctx *RequestCtx) {
				order = append(order, name)
				next(ctx)
			}
		}
	}
	e.Use(mark("first"))
	e.Use(mark("second"))
	e.GET("/ping", func(ctx *RequestCtx) { order = append(order, "handler") })

	e.Handler()(newCtx("GET", "/ping"))
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestNotFoundHandler(t *testing.T) {
	ctx := newCtx("GET", "/nope")
	NotFoundHandler(ctx)
	assert.Equal(t, StatusNotFound, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"error":"Not Found"}`, string(ctx.Response.Body()))
}
