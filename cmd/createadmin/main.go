// Command createadmin creates an ADMIN account, or promotes an existing one
// and resets its password. It is the only way to obtain an admin.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/Skotchmaster/museum/internal/config"
	"github.com/Skotchmaster/museum/internal/hash"
	"github.com/Skotchmaster/museum/internal/logging"
	"github.com/Skotchmaster/museum/internal/models"
	"github.com/Skotchmaster/museum/internal/repo"
	"github.com/Skotchmaster/museum/internal/service"
	pkgconfig "github.com/Skotchmaster/museum/pkg/config"
	pkgdb "github.com/Skotchmaster/museum/pkg/db"
)

func main() {
	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "admin email")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password")
	name := flag.String("name", "Admin", "first name")
	surname := flag.String("surname", "Admin", "last name")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel).With("service", "createadmin")
	defer func() { _ = logger.Sync() }()

	if err := pkgconfig.Require("DATABASE_URL"); err != nil {
		logger.Fatalw("config", "error", err)
	}

	if *email == "" || len(*password) < 6 {
		logger.Fatalw("email and a password of at least 6 characters are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalw("db open", "error", err)
	}
	defer func() { _ = pkgdb.Close(db) }()
	if err := pkgdb.Migrate(db); err != nil {
		logger.Fatalw("db migrate", "error", err)
	}

	hashed, err := hash.HashPassword(*password)
	if err != nil {
		logger.Fatalw("hash password", "error", err)
	}

	u := &models.User{
		Email:        service.NormalizeEmail(*email),
		PasswordHash: hashed,
		Name:         *name,
		Surname:      *surname,
	}
	created, err := repo.New(db).UpsertAdmin(ctx, u)
	if err != nil {
		logger.Fatalw("upsert admin", "email", u.Email, "error", err)
	}
	logger.Infow("admin ready", "email", u.Email, "id", u.ID, "created", created)
}
