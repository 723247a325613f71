package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dapurasri/backoffice/internal/appctx"
	"github.com/dapurasri/backoffice/internal/config"
	"github.com/dapurasri/backoffice/pkg/logger"
	"github.com/dapurasri/backoffice/pkg/pg"
)

// main.go --env=.env --dir=./migrations --command=up
// main.go --env=.env --sign-token=<user id> [--email=...]
func main() {
	err := config.Load(getEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	if user := argValue("sign-token"); user != "" {
		signToken(user, argValue("email"))
		return
	}

	err = pg.Migrate(config.Get().WriteDB(), getMigrationPath(), argValue("command"))
	if err != nil {
		logger.Error("migration: error running migrations", "error", err)
	}
}

// signToken prints a 12 hour session token for local testing.
func signToken(user, email string) {
	secret := config.Get().AuthJWTSecret
	if secret == "" {
		logger.Error("AUTH_JWT_SECRET is required to sign tokens")
		return
	}
	token, err := appctx.NewVerifier(secret).Sign(appctx.Session{
		UserID:    user,
		Email:     email,
		ExpiresAt: time.Now().Add(12 * time.Hour),
	})
	if err != nil {
		logger.Error("failed to sign token", "error", err)
		return
	}
	fmt.Println(token)
}

func argValue(name string) string {
	for _, v := range os.Args {
		if strings.HasPrefix(v, "--"+name+"=") {
			return strings.SplitN(v, "=", 2)[1]
		}
	}
	return ""
}

func getEnvPath() string {
	if p := argValue("env"); p != "" {
		if _, err := os.Stat(p); err != nil {
			logger.Error("failed to open the passed env file, got error" + err.Error())
			return ""
		}
		return p
	}
	if _, err := os.Stat(".env"); err != nil {
		return ""
	}
	return ".env"
}

func getMigrationPath() string {
	if p := argValue("dir"); p != "" {
		if _, err := os.Stat(p); err != nil {
			logger.Error("failed to open the migrations dir, got error" + err.Error())
			return ""
		}
		return p
	}
	return "./migrations"
}
