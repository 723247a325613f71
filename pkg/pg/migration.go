package pg

import (
	"fmt"

	"github.com/dapurasri/backoffice/pkg/logger"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

// Migrate applies every pending goose migration found in dir. command is one
// of up, down, status or redo; an empty command means up.
func Migrate(cfg Config, dir string, command string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db, err := newSqlConnection(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("running migrations", "dir", dir, "command", command)
	switch command {
	case "", "up":
		err = goose.Up(db, dir)
	case "down":
		err = goose.Down(db, dir)
	case "redo":
		err = goose.Redo(db, dir)
	case "status":
		err = goose.Status(db, dir)
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
	return err
}
