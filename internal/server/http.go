package server

import (
	"context"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/synapaxon/question-bank/internal/auth"
	"github.com/synapaxon/question-bank/internal/config"
	"github.com/synapaxon/question-bank/internal/question"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "HTTP requests processed, by method and path pattern.",
}, []string{"method", "pattern"})

// NewHTTPServer wires every route of the API service: health, metrics, auth,
// questions and AI generation.
func NewHTTPServer(
	cfg *config.App,
	logger zerolog.Logger,
	mongoClient *mongo.Client,
	redisClient *redis.Client,
	authSvc *auth.Service,
	authHandlers *auth.HTTPHandlers,
	questionHandlers *question.HTTPHandlers,
) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), mongoClient, redisClient); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	requireAuth := auth.RequireAuth(authSvc, logger)
	admin := func(h http.HandlerFunc) http.Handler {
		return requireAuth(auth.RequireAdmin(h))
	}

	// Accounts
	mux.HandleFunc("POST /api/auth/register", authHandlers.Register)
	mux.HandleFunc("POST /api/auth/login", authHandlers.Login)
	mux.Handle("GET /api/auth/me", requireAuth(http.HandlerFunc(authHandlers.GetMe)))
	mux.HandleFunc("GET /api/auth/google", authHandlers.GoogleStart)
	mux.HandleFunc("GET /api/auth/google/callback", authHandlers.GoogleCallback)

	// Admin account management
	mux.Handle("GET /api/auth/users", admin(authHandlers.GetAllUsers))
	mux.Handle("GET /api/auth/users/count", admin(authHandlers.GetUsersCount))
	mux.Handle("GET /api/auth/users/plans", admin(authHandlers.GetUsersByPlans))
	mux.Handle("PUT /api/auth/users/{id}", admin(authHandlers.UpdateUser))
	mux.Handle("DELETE /api/auth/users/{id}", admin(authHandlers.DeleteUser))

	// Question bank
	mux.Handle("POST /api/questions", requireAuth(http.HandlerFunc(questionHandlers.Create)))
	mux.Handle("GET /api/questions", requireAuth(http.HandlerFunc(questionHandlers.List)))
	mux.Handle("GET /api/questions/tags", requireAuth(http.HandlerFunc(questionHandlers.Tags)))
	mux.Handle("GET /api/questions/count", admin(questionHandlers.Total))
	mux.Handle("GET /api/questions/{id}", requireAuth(http.HandlerFunc(questionHandlers.Get)))
	mux.Handle("PUT /api/questions/{id}", requireAuth(http.HandlerFunc(questionHandlers.Update)))
	mux.Handle("DELETE /api/questions/{id}", requireAuth(http.HandlerFunc(questionHandlers.Delete)))

	// AI generation
	mux.Handle("POST /api/ai/generate-questions-from-text", requireAuth(http.HandlerFunc(questionHandlers.Generate)))

	corsMiddleware := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	})

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: corsMiddleware(countRequests(mux)),
	}
}

// countRequests records a per-route counter using the matched pattern so the
// metric cardinality stays bounded.
func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		if pattern := r.Pattern; pattern != "" {
			requestsTotal.WithLabelValues(r.Method, pattern).Inc()
		}
	})
}

func pingDependencies(ctx context.Context, client *mongo.Client, redisClient *redis.Client) error {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return err
	}
	return redisClient.Ping(ctx).Err()
}
