package appctx

import (
	"strings"

	"github.com/dapurasri/backoffice/pkg/logger"
	xhttp "github.com/dapurasri/backoffice/pkg/http"
)

// Middleware verifies the bearer token, loads the user's theme and attaches
// the Context. Paths starting with one of open are served without a session.
func Middleware(v *Verifier, themes ThemeStore, open ...string) xhttp.MiddlewareFunc {
	return func(next xhttp.RequestHandler) xhttp.RequestHandler {
		return func(ctx *xhttp.RequestCtx) {
			path := string(ctx.Path())
			if ctx.IsOptions() || isOpen(path, open) {
				next(ctx)
				return
			}

			session, err := v.Verify(string(ctx.Request.Header.Peek("Authorization")))
			if err != nil {
				logger.Debug("session rejected", "path", path, "error", err)
				ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
				ctx.SetStatusCode(xhttp.StatusUnauthorized)
				ctx.SetBodyString(`{"error":"Sesi tidak valid, silakan masuk kembali"}`)
				return
			}

			theme := ThemeLight
			if themes != nil {
				if t, err := themes.Get(ctx, session.UserID); err != nil {
					logger.Warn("failed to load theme", "user", session.UserID, "error", err)
				} else {
					theme = t
				}
			}

			With(ctx, &Context{Session: session, Theme: theme})
			next(ctx)
		}
	}
}

func isOpen(path string, open []string) bool {
	for _, p := range open {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
