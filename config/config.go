package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends selectable through STORE.
const (
	StorePostgres  = "postgres"
	StorePostgREST = "postgrest"
	StoreMemory    = "memory"
)

type Config struct {
	AppPort string
	AppMode string

	Store           string
	DatabaseURL     string
	SupabaseURL     string
	SupabaseAnonKey string

	BCryptCost               int
	VerifyCPFCheckDigits     bool
	RequireEmailConfirmation bool

	JWTSecret    string
	JWTExpiryMin int

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	AuthRateLimit     int
	AuthRateWindowSec int
	EventsChannel     string
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		AppPort: getEnv("APP_PORT", "8080"),
		AppMode: getEnv("APP_MODE", "debug"),

		Store:           strings.ToLower(getEnv("STORE", "")),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SupabaseURL:     strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseAnonKey: getEnv("SUPABASE_ANON_KEY", getEnv("SUPABASE_KEY", "")),

		BCryptCost:               getEnvAsInt("BCRYPT_COST", 10),
		VerifyCPFCheckDigits:     getEnvAsBool("CPF_VERIFY_CHECK_DIGITS", false),
		RequireEmailConfirmation: getEnvAsBool("REQUIRE_EMAIL_CONFIRMATION", false),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTExpiryMin: getEnvAsInt("JWT_EXPIRY_MIN", 15),

		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvAsInt("REDIS_DB", 0),
		AuthRateLimit:     getEnvAsInt("AUTH_RATE_LIMIT", 10),
		AuthRateWindowSec: getEnvAsInt("AUTH_RATE_WINDOW_SEC", 60),
		EventsChannel:     getEnv("ACCOUNT_EVENTS_CHANNEL", "cadastro:events"),
	}

	if cfg.Store == "" {
		cfg.Store = cfg.detectStore()
	}

	return cfg
}

// detectStore picks a backend from whichever credentials are present.
// An empty result means the service has nowhere to persist accounts.
func (c *Config) detectStore() string {
	switch {
	case c.DatabaseURL != "":
		return StorePostgres
	case c.SupabaseURL != "" && c.SupabaseAnonKey != "":
		return StorePostgREST
	default:
		return ""
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
