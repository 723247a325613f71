// Package appctx carries the signed-in user and their display preferences
// through a request. The session middleware attaches a Context to every
// gated request; handlers read it with From.
package appctx

import (
	"errors"
	"time"

	xhttp "github.com/dapurasri/backoffice/pkg/http"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

var ErrUnauthenticated = errors.New("unauthenticated")

type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Context struct {
	Session Session `json:"session"`
	Theme   Theme   `json:"theme"`
}

const userValueKey = "appctx"

// With attaches c to the request.
func With(ctx *xhttp.RequestCtx, c *Context) {
	ctx.SetUserValue(userValueKey, c)
}

// From returns the Context attached by the session middleware.
func From(ctx *xhttp.RequestCtx) (*Context, bool) {
	c, ok := ctx.UserValue(userValueKey).(*Context)
	return c, ok && c != nil
}
