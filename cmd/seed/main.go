// Command seed applies the plan catalog and, when SEED_ADMIN_EMAIL and
// SEED_ADMIN_PASSWORD are set, creates the first admin account.
package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clubebeneficios/clube-api/internal/config"
	"github.com/clubebeneficios/clube-api/internal/domain/plan"
	"github.com/clubebeneficios/clube-api/internal/domain/user"
	"github.com/clubebeneficios/clube-api/internal/pkg/database"
	"github.com/clubebeneficios/clube-api/internal/pkg/logger"
	"github.com/clubebeneficios/clube-api/internal/pkg/password"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, Service: "clube-seed"})

	db, err := database.NewPostgres(cfg.DatabaseURL, database.DefaultPool)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	f, err := os.Open(cfg.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("Failed to open catalog")
	}
	catalog, err := plan.LoadCatalog(f)
	f.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid catalog")
	}

	plans := plan.NewService(plan.NewRepository(db), db)
	if err := plans.ApplyCatalog(ctx, catalog); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply catalog")
	}
	log.Info().
		Int("plans", len(catalog.Plans)).
		Int("benefits", len(catalog.Benefits)).
		Msg("Catalog applied")

	if err := seedAdmin(ctx, user.NewRepository(db), cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
		log.Fatal().Err(err).Msg("Failed to create admin")
	}
}

func seedAdmin(ctx context.Context, users user.Repository, email, pass string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || pass == "" {
		return nil
	}

	hash, err := password.Hash(pass)
	if err != nil {
		return err
	}
	err = users.Create(ctx, &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         user.RoleAdmin,
		Status:       user.StatusActive,
	})
	if errors.Is(err, user.ErrEmailAlreadyExists) {
		log.Info().Str("email", email).Msg("Admin already exists")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info().Str("email", email).Msg("Admin created")
	return nil
}
