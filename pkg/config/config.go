package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config groups the application settings (Viper: env vars, optionally a .env/config.env file).
type Config struct {
	App       AppConfig
	DB        DBConfig
	JWT       JWTConfig
	HTTP      HTTPConfig
	Firestore FirestoreConfig
	Redis     RedisConfig
	Groups    GroupsConfig
}

// AppConfig general settings.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig PostgreSQL settings (customer groups live here).
// If DatabaseURL is set it is used as the full connection string.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
}

// ConnectionString returns DATABASE_URL when set, otherwise the DSN built from the parts.
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN builds a postgres URL, escaping special characters in the credentials.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig settings used to validate admin tokens.
type JWTConfig struct {
	Secret string
	Issuer string
}

// HTTPConfig HTTP server settings.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr listen address (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// FirestoreConfig cache store holding the mirrored billing collections.
type FirestoreConfig struct {
	ProjectID        string
	CredentialsFile  string // empty = application default credentials
	CollectionPrefix string // e.g. "stripe_" -> stripe_customers, stripe_invoices...
}

// RedisConfig optional membership cache. Empty URL disables it.
type RedisConfig struct {
	URL       string
	KeyPrefix string
}

// GroupsConfig tuning for group evaluation.
type GroupsConfig struct {
	CacheTTL        time.Duration
	FetchTimeout    time.Duration // bound on the four snapshot reads
	RefreshSchedule string        // cron expression; empty disables the refresh job
	RefreshTimeout  time.Duration
}

// Load reads configuration from environment variables (and optionally a file).
// Env vars take precedence. Expected names: APP_ENV, DB_HOST, JWT_SECRET, FIRESTORE_PROJECT_ID, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // optional

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "laurx-portal"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "laurx_portal"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 10),
		},
		JWT: JWTConfig{
			Secret: getString(v, "JWT_SECRET", ""),
			Issuer: getString(v, "JWT_ISSUER", "laurx-portal"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Firestore: FirestoreConfig{
			ProjectID:        getString(v, "FIRESTORE_PROJECT_ID", ""),
			CredentialsFile:  getString(v, "FIRESTORE_CREDENTIALS_FILE", ""),
			CollectionPrefix: getString(v, "FIRESTORE_COLLECTION_PREFIX", "stripe_"),
		},
		Redis: RedisConfig{
			URL:       getString(v, "REDIS_URL", ""),
			KeyPrefix: getString(v, "REDIS_KEY_PREFIX", "laurx"),
		},
		Groups: GroupsConfig{
			CacheTTL:        getSeconds(v, "GROUP_CACHE_TTL_SECONDS", 300),
			FetchTimeout:    getSeconds(v, "SNAPSHOT_FETCH_TIMEOUT_SECONDS", 30),
			RefreshSchedule: getString(v, "GROUP_REFRESH_SCHEDULE", "@every 1h"),
			RefreshTimeout:  getSeconds(v, "GROUP_REFRESH_TIMEOUT_SECONDS", 120),
		},
	}

	if cfg.JWT.Secret == "" && cfg.App.Env == "production" {
		return nil, fmt.Errorf("config: JWT_SECRET is required in production")
	}
	if cfg.Firestore.ProjectID == "" && cfg.App.Env == "production" {
		return nil, fmt.Errorf("config: FIRESTORE_PROJECT_ID is required in production")
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getSeconds(v *viper.Viper, key string, def int) time.Duration {
	return time.Duration(getInt(v, key, def)) * time.Second
}
