// Package config builds the process configuration from environment
// variables so main stays lean.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// AuthMode selects how callers authenticate.
type AuthMode string

const (
	// AuthNone disables authentication (local development only).
	AuthNone AuthMode = "none"
	// AuthJWT requires a bearer token signed with JWTSigningKey.
	AuthJWT AuthMode = "jwt"
	// AuthAPIKey requires an X-API-Key matching one of APIKeyHashes.
	AuthAPIKey AuthMode = "apikey"
)

// Server captures the full process configuration.
type Server struct {
	Addr string

	AuthMode      AuthMode
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	// APIKeyHashes are bcrypt hashes of accepted API keys.
	APIKeyHashes []string

	// PostgresURL enables the Postgres rule store when set; otherwise the
	// built-in rule pack is used.
	PostgresURL string
	// RulesFile points at a YAML rule pack layered on top of the built-in
	// rules. Ignored when the Postgres store is enabled.
	RulesFile string

	// StrictLength rejects trailing filler on overlong lines even for
	// layouts that normally tolerate it.
	StrictLength bool

	Redis RedisConfig

	// KafkaBrokers enables the Kafka outcome sink when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	ScreeningCacheTTL time.Duration
	// Workers sizes the parallel validation path; <2 keeps it sequential.
	Workers int
	// OutcomeBuffer bounds the outcome event inbox.
	OutcomeBuffer int
}

// RedisConfig captures Redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr: envString("VALIDO_ADDR", ":8080"),

		AuthMode:      parseAuthMode(os.Getenv("VALIDO_AUTH_MODE")),
		JWTSigningKey: os.Getenv("VALIDO_JWT_SIGNING_KEY"),
		JWTIssuer:     envString("VALIDO_JWT_ISSUER", "valido"),
		JWTAudience:   envString("VALIDO_JWT_AUDIENCE", "valido-api"),
		APIKeyHashes:  envList("VALIDO_API_KEY_HASHES"),

		PostgresURL: os.Getenv("VALIDO_POSTGRES_URL"),
		RulesFile:   os.Getenv("VALIDO_RULES_FILE"),

		StrictLength: envBool("VALIDO_STRICT_LENGTH", false),

		Redis: RedisConfig{
			URL:          os.Getenv("VALIDO_REDIS_URL"),
			PoolSize:     envInt("VALIDO_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("VALIDO_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("VALIDO_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("VALIDO_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("VALIDO_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},

		KafkaBrokers: envList("VALIDO_KAFKA_BROKERS"),
		KafkaTopic:   envString("VALIDO_KAFKA_TOPIC", "valido.outcomes"),

		ScreeningCacheTTL: envDuration("VALIDO_SCREENING_CACHE_TTL", 24*time.Hour),
		Workers:           envInt("VALIDO_WORKERS", 1),
		OutcomeBuffer:     envInt("VALIDO_OUTCOME_BUFFER", 256),
	}
}

// Validate rejects configurations the process cannot serve safely.
func (s Server) Validate() error {
	switch s.AuthMode {
	case AuthJWT:
		if s.JWTSigningKey == "" {
			return errors.New("auth mode jwt requires VALIDO_JWT_SIGNING_KEY")
		}
	case AuthAPIKey:
		if len(s.APIKeyHashes) == 0 {
			return errors.New("auth mode apikey requires VALIDO_API_KEY_HASHES")
		}
	}
	return nil
}

func parseAuthMode(s string) AuthMode {
	switch AuthMode(strings.ToLower(strings.TrimSpace(s))) {
	case AuthJWT:
		return AuthJWT
	case AuthAPIKey:
		return AuthAPIKey
	}
	return AuthNone
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
