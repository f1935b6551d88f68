package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port          string
	DBDriver      string
	DBPath        string
	DatabaseURL   string
	JWTSecret     string
	TokenTTL      time.Duration
	CORSOrigins   []string
	MigrationsDir string
	TickInterval  time.Duration
	LogLevel      string
	LogFormat     string
}

// fileConfig mirrors the optional YAML file. Zero values leave defaults in place.
type fileConfig struct {
	Port     string `yaml:"port"`
	Database struct {
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret     string `yaml:"jwt_secret"`
		TokenTTLHours int    `yaml:"token_ttl_hours"`
	} `yaml:"auth"`
	CORSOrigins    []string `yaml:"cors_origins"`
	MigrationsDir  string   `yaml:"migrations_dir"`
	TickIntervalMS int      `yaml:"tick_interval_ms"`
	Log            struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func Defaults() Config {
	return Config{
		Port:          "8080",
		DBDriver:      "sqlite3",
		DBPath:        "./data/donetasker.db",
		JWTSecret:     "change-this-secret",
		TokenTTL:      72 * time.Hour,
		CORSOrigins:   []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		MigrationsDir: "./migrations",
		TickInterval:  time.Second,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Load layers defaults, then the YAML file named by CONFIG_FILE, then the
// environment. A .env file in the working directory seeds unset variables.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.isPostgres():
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres driver")
		}
	case c.DBDriver != "sqlite3" && c.DBDriver != "sqlite":
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.TokenTTL <= 0 {
		return errors.New("config: TOKEN_TTL_HOURS must be positive")
	}
	return nil
}

// DSN is the data source for the configured driver.
func (c Config) DSN() string {
	if c.isPostgres() {
		return c.DatabaseURL
	}
	return c.DBPath
}

func (c Config) isPostgres() bool {
	switch c.DBDriver {
	case "pgx", "postgres", "postgresql":
		return true
	}
	return false
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal([]byte(expandEnv(string(data))), &file); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&c.Port, file.Port)
	setString(&c.DBDriver, file.Database.Driver)
	setString(&c.DBPath, file.Database.Path)
	setString(&c.DatabaseURL, file.Database.URL)
	setString(&c.JWTSecret, file.Auth.JWTSecret)
	if file.Auth.TokenTTLHours > 0 {
		c.TokenTTL = time.Duration(file.Auth.TokenTTLHours) * time.Hour
	}
	if len(file.CORSOrigins) > 0 {
		c.CORSOrigins = file.CORSOrigins
	}
	setString(&c.MigrationsDir, file.MigrationsDir)
	if file.TickIntervalMS > 0 {
		c.TickInterval = time.Duration(file.TickIntervalMS) * time.Millisecond
	}
	setString(&c.LogLevel, file.Log.Level)
	setString(&c.LogFormat, file.Log.Format)
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.DBDriver = getEnv("DB_DRIVER", c.DBDriver)
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.TokenTTL = time.Duration(getEnvInt("TOKEN_TTL_HOURS", int(c.TokenTTL/time.Hour))) * time.Hour
	c.CORSOrigins = getEnvList("CORS_ORIGINS", c.CORSOrigins)
	c.MigrationsDir = getEnv("MIGRATIONS_DIR", c.MigrationsDir)
	c.TickInterval = time.Duration(getEnvInt("TICK_INTERVAL_MS", int(c.TickInterval/time.Millisecond))) * time.Millisecond
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

// expandEnv substitutes ${VAR} placeholders with values from the environment.
func expandEnv(content string) string {
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 {
			continue
		}
		content = strings.ReplaceAll(content, "${"+pair[0]+"}", pair[1])
	}
	return content
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
