package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"synapaxon-api"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:9000"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Mongo    Mongo
	Redis    Redis
	Security Security
	OAuth    OAuth
	AI       AI
	Media    Media
	CORS     CORS
}

// Mongo captures connection info for the document store.
type Mongo struct {
	URI            string        `env:"MONGODB_URI,notEmpty"`
	Database       string        `env:"MONGODB_DATABASE" envDefault:"synapaxon"`
	ConnectTimeout time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`
}

// Redis holds the AI usage counter store configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets for token signing.
type Security struct {
	JWTSecret string        `env:"JWT_SECRET,notEmpty"`
	JWTExpire time.Duration `env:"JWT_EXPIRE" envDefault:"24h"`
}

// OAuth holds Google OAuth provider configuration.
type OAuth struct {
	GoogleClientID     string `env:"GOOGLE_OAUTH_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_OAUTH_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_OAUTH_REDIRECT_URL"`
}

// AI configures the external question generation endpoint.
type AI struct {
	EndpointURL string        `env:"AI_ENDPOINT_URL"`
	APIToken    string        `env:"AI_API_TOKEN"`
	HTTPTimeout time.Duration `env:"AI_HTTP_TIMEOUT" envDefault:"30s"`
}

// Media configures the upload service used for best-effort media cleanup.
type Media struct {
	BaseURL     string        `env:"MEDIA_SERVICE_URL"`
	APIToken    string        `env:"MEDIA_SERVICE_TOKEN"`
	HTTPTimeout time.Duration `env:"MEDIA_HTTP_TIMEOUT" envDefault:"10s"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
