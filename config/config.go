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

	// embedded zone database so the restaurant time zone resolves on slim images
	_ "time/tzdata"
)

type Config struct {
	Port    string `yaml:"port"`
	GinMode string `yaml:"gin_mode"`

	DBDriver string `yaml:"db_driver"`
	DBDSN    string `yaml:"db_dsn"`

	Timezone string `yaml:"timezone"`

	JWTSecret string        `yaml:"jwt_secret"`
	JWTTTL    time.Duration `yaml:"jwt_ttl"`

	IdentityProvider string `yaml:"identity_provider"`
	FirebaseAPIKey   string `yaml:"firebase_api_key"`

	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	ShiftSchedulerEnabled bool   `yaml:"shift_scheduler_enabled"`
	ShiftScheduleAt       string `yaml:"shift_schedule_at"`

	NotifierBuffer int `yaml:"notifier_buffer"`
}

func Default() *Config {
	return &Config{
		Port:                  "8080",
		GinMode:               "release",
		DBDriver:              "mysql",
		Timezone:              "Asia/Ho_Chi_Minh",
		JWTTTL:                24 * time.Hour,
		IdentityProvider:      "local",
		AllowedOrigins:        []string{"http://localhost:3000"},
		RateLimitRPS:          10,
		RateLimitBurst:        20,
		LogLevel:              "info",
		LogFormat:             "text",
		ShiftSchedulerEnabled: true,
		ShiftScheduleAt:       "00:01",
		NotifierBuffer:        64,
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (or CONFIG_FILE), then the environment. A .env file in the working
// directory is loaded into the environment first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.GinMode, "GIN_MODE")
	setString(&c.DBDriver, "DB_DRIVER")
	setString(&c.DBDSN, "DB_DSN")
	setString(&c.Timezone, "TIMEZONE")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.IdentityProvider, "IDENTITY_PROVIDER")
	setString(&c.FirebaseAPIKey, "FIREBASE_API_KEY")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.ShiftScheduleAt, "SHIFT_SCHEDULE_AT")

	if v, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok && v != "" {
		c.AllowedOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, origin)
			}
		}
	}

	if v, ok := os.LookupEnv("JWT_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("JWT_TTL: %w", err)
		}
		c.JWTTTL = d
	}
	if v, ok := os.LookupEnv("RATE_LIMIT_RPS"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		c.RateLimitRPS = f
	}
	if err := setInt(&c.RateLimitBurst, "RATE_LIMIT_BURST"); err != nil {
		return err
	}
	if err := setInt(&c.NotifierBuffer, "NOTIFIER_BUFFER"); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("SHIFT_SCHEDULER_ENABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SHIFT_SCHEDULER_ENABLED: %w", err)
		}
		c.ShiftSchedulerEnabled = b
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DBDSN == "" && c.DBDriver != "sqlite" {
		return errors.New("DB_DSN is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.IdentityProvider {
	case "local":
	case "firebase":
		if c.FirebaseAPIKey == "" {
			return errors.New("FIREBASE_API_KEY is required for the firebase identity provider")
		}
	default:
		return fmt.Errorf("unsupported IDENTITY_PROVIDER %q", c.IdentityProvider)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, _, err := c.ScheduleTime(); err != nil {
		return err
	}
	if c.NotifierBuffer <= 0 {
		return errors.New("NOTIFIER_BUFFER must be positive")
	}
	return nil
}

// Location returns the restaurant time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	return loc, nil
}

// ScheduleTime parses SHIFT_SCHEDULE_AT as hour and minute.
func (c *Config) ScheduleTime() (hour, minute int, err error) {
	t, err := time.Parse("15:04", c.ShiftScheduleAt)
	if err != nil {
		return 0, 0, fmt.Errorf("SHIFT_SCHEDULE_AT must be HH:MM: %w", err)
	}
	return t.Hour(), t.Minute(), nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
