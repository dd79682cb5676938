package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/synapaxon/question-bank/internal/auth"
	"github.com/synapaxon/question-bank/internal/auth/jwt"
	"github.com/synapaxon/question-bank/internal/config"
	"github.com/synapaxon/question-bank/internal/db"
	"github.com/synapaxon/question-bank/internal/db/repository"
	"github.com/synapaxon/question-bank/internal/logging"
	"github.com/synapaxon/question-bank/internal/media"
	"github.com/synapaxon/question-bank/internal/question"
	"github.com/synapaxon/question-bank/internal/question/ai"
	"github.com/synapaxon/question-bank/internal/quota"
	"github.com/synapaxon/question-bank/internal/server"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	mongoClient *mongo.Client
	redis       *redis.Client
	http        *http.Server
}

// New bootstraps config, logger, MongoDB, Redis and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	mongoClient, database, err := db.Connect(ctx, cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := db.EnsureIndexes(ctx, database); err != nil {
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	userRepo := repository.NewUserRepository(database)
	questionRepo := repository.NewQuestionRepository(database)

	authSvc := auth.NewService(userRepo, auth.ServiceOptions{
		TokenConfig: jwt.TokenConfig{
			Secret: []byte(cfg.Security.JWTSecret),
			TTL:    cfg.Security.JWTExpire,
			Issuer: cfg.Name,
		},
	}, logger)

	var oauthSvc *auth.OAuthService
	if cfg.OAuth.GoogleClientID != "" && cfg.OAuth.GoogleClientSecret != "" {
		redirectURL := cfg.OAuth.GoogleRedirectURL
		if redirectURL == "" {
			redirectURL = fmt.Sprintf("http://%s/api/auth/google/callback", cfg.HTTPAddr)
		}
		oauthSvc = auth.NewOAuthService(
			cfg.OAuth.GoogleClientID,
			cfg.OAuth.GoogleClientSecret,
			redirectURL,
			logger,
		)
		logger.Info().Msg("OAuth service initialized")
	} else {
		logger.Warn().Msg("OAuth not configured (missing GOOGLE_OAUTH_CLIENT_ID or GOOGLE_OAUTH_CLIENT_SECRET)")
	}

	usageKeeper := quota.NewKeeper(redisClient)

	var aiGenerator question.AIGenerator
	if cfg.AI.EndpointURL != "" {
		aiGenerator = ai.NewGenerator(ai.Config{
			EndpointURL: cfg.AI.EndpointURL,
			APIToken:    cfg.AI.APIToken,
			Timeout:     cfg.AI.HTTPTimeout,
		}, logger)
	} else {
		logger.Warn().Msg("AI generation not configured (missing AI_ENDPOINT_URL)")
	}

	var mediaCleaner question.MediaCleaner
	if cfg.Media.BaseURL != "" {
		mediaCleaner = media.NewCleaner(media.Config{
			BaseURL:  cfg.Media.BaseURL,
			APIToken: cfg.Media.APIToken,
			Timeout:  cfg.Media.HTTPTimeout,
		}, logger)
	}

	questionSvc := question.NewService(
		questionRepo,
		userRepo,
		mediaCleaner,
		aiGenerator,
		usageKeeper,
		question.ServiceOptions{},
		logger,
	)

	authHandlers := auth.NewHTTPHandlers(authSvc, oauthSvc, usageKeeper, logger)
	questionHandlers := question.NewHTTPHandlers(questionSvc, logger)

	apiServer := server.NewHTTPServer(cfg, logger, mongoClient, redisClient, authSvc, authHandlers, questionHandlers)

	return &Application{
		cfg:         cfg,
		logger:      logger,
		mongoClient: mongoClient,
		redis:       redisClient,
		http:        apiServer,
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	if err := a.mongoClient.Disconnect(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("mongodb shutdown error")
	}
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}
