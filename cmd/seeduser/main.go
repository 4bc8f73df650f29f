// cmd/seeduser creates or refreshes an admin user.
// Usage: SEED_PASSWORD=... go run ./cmd/seeduser [-username admin] [-email admin@motorplus.local]
package main

import (
	"context"
	"flag"
	"os"

	"motorplus/internal/config"
	"motorplus/internal/infra"
	"motorplus/internal/model"
	"motorplus/internal/repository"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	username := flag.String("username", "admin", "login name")
	email := flag.String("email", "admin@motorplus.local", "contact email")
	role := flag.String("role", model.RoleAdmin, "ADMIN or STAFF")
	flag.Parse()

	password := os.Getenv("SEED_PASSWORD")
	if len(password) < 8 {
		log.Fatal().Msg("SEED_PASSWORD must hold at least 8 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	if err := seed(context.Background(), repository.NewUserRepository(db), *username, *email, *role, password); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().Str("username", *username).Str("role", *role).Msg("user created or updated")
}

func seed(ctx context.Context, users repository.UserRepository, username, email, role, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	// List instead of FindByUsername: the latter hides inactive users.
	all, err := users.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list users")
	}
	var existing *model.User
	for i := range all {
		if all[i].Username == username {
			existing = &all[i]
			break
		}
	}
	if existing == nil {
		user := &model.User{
			Username:     username,
			Email:        email,
			PasswordHash: string(hash),
			Role:         role,
			Active:       true,
		}
		if err := users.Create(ctx, user); err != nil {
			return errors.Wrap(err, "create user")
		}
		return nil
	}
	if err := users.UpdatePassword(ctx, existing.ID, string(hash)); err != nil {
		return errors.Wrap(err, "update password")
	}
	if err := users.SetActive(ctx, existing.ID, true); err != nil {
		return errors.Wrap(err, "reactivate user")
	}
	return nil
}
