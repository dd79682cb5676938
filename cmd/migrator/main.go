// Command migrator applies the database setup the API expects before serving
// traffic: collection indexes and, optionally, the first admin account.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/synapaxon/question-bank/internal/auth"
	"github.com/synapaxon/question-bank/internal/config"
	"github.com/synapaxon/question-bank/internal/db"
	"github.com/synapaxon/question-bank/internal/db/repository"
	"github.com/synapaxon/question-bank/internal/quota"
)

func main() {
	var (
		command    = flag.String("command", "indexes", "Command: indexes or seed-admin")
		adminEmail = flag.String("admin-email", "", "Email for seed-admin")
		adminName  = flag.String("admin-name", "Administrator", "Display name for seed-admin")
	)
	flag.Parse()

	// Setup logging
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mongoCfg := config.Mongo{
		URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		Database:       getEnv("MONGODB_DATABASE", "synapaxon"),
		ConnectTimeout: 10 * time.Second,
	}

	client, database, err := db.Connect(ctx, mongoCfg)
	if err != nil {
		log.Fatal().Err(err).Str("uri", mongoCfg.URI).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("disconnect failed")
		}
	}()

	log.Info().
		Str("database", mongoCfg.Database).
		Msg("connected to database")

	switch *command {
	case "indexes":
		if err := db.EnsureIndexes(ctx, database); err != nil {
			log.Fatal().Err(err).Msg("failed to create indexes")
		}
		log.Info().Msg("indexes created successfully")

	case "seed-admin":
		if *adminEmail == "" {
			log.Fatal().Msg("-admin-email flag is required")
		}
		password := os.Getenv("ADMIN_PASSWORD")
		if password == "" {
			log.Fatal().Msg("ADMIN_PASSWORD environment variable is required")
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to hash password")
		}

		users := repository.NewUserRepository(database)
		created, err := users.Create(ctx, repository.User{
			Name:         *adminName,
			Email:        *adminEmail,
			PasswordHash: hash,
			Role:         auth.RoleAdmin,
			Plan:         quota.PlanPremium,
		})
		if err != nil {
			log.Fatal().Err(err).Str("email", *adminEmail).Msg("failed to create admin account")
		}
		log.Info().Str("user_id", created.ID.Hex()).Str("email", *adminEmail).Msg("admin account created")

	default:
		log.Fatal().Str("command", *command).Msg("unknown command. Use: indexes or seed-admin")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
