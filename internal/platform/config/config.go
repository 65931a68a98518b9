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

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	JWTSigningKey   string        `yaml:"jwt_signing_key"`
	JWTIssuer       string        `yaml:"jwt_issuer"`
	JWTAudience     string        `yaml:"jwt_audience"`
	// AdminToken guards the reviewer endpoints; empty disables them.
	AdminToken string `yaml:"admin_token"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Verification configures the wizard and the external checker.
type Verification struct {
	Variant        string        `yaml:"variant"`      // standard | extended
	ResetPolicy    string        `yaml:"reset_policy"` // keep_history | clear_history
	Checker        string        `yaml:"checker"`      // simulated | http
	CheckerURL     string        `yaml:"checker_url"`
	CheckerTimeout time.Duration `yaml:"checker_timeout"`
	SimulatedDelay time.Duration `yaml:"simulated_delay"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

// Storage selects the verification record backend.
type Storage struct {
	Backend     string      `yaml:"backend"` // memory | redis | postgres
	DatabaseURL string      `yaml:"database_url"`
	Redis       RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Audit configures the audit stream. No brokers keeps audit in memory only.
type Audit struct {
	KafkaBrokers []string `yaml:"kafka_brokers"`
	Topic        string   `yaml:"topic"`
	BufferSize   int      `yaml:"buffer_size"`
	// MaxEventsPerUser caps the in-process trail served to reviewers.
	MaxEventsPerUser int `yaml:"max_events_per_user"`
}

type Config struct {
	Server       Server       `yaml:"server"`
	Log          Log          `yaml:"log"`
	Verification Verification `yaml:"verification"`
	Storage      Storage      `yaml:"storage"`
	Audit        Audit        `yaml:"audit"`
}

// Default returns development defaults.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			// Development default; override in production.
			JWTSigningKey: "dev-secret-key-change-in-production",
			JWTIssuer:     "realtyvest-auth",
			JWTAudience:   "realtyvest-api",
		},
		Log: Log{Level: "info", Format: "json"},
		Verification: Verification{
			Variant:        "standard",
			ResetPolicy:    "keep_history",
			Checker:        "simulated",
			CheckerTimeout: 10 * time.Second,
			SimulatedDelay: 2 * time.Second,
			MaxUploadBytes: 10 << 20,
		},
		Storage: Storage{
			Backend: "memory",
			Redis: RedisConfig{
				PoolSize:     10,
				MinIdleConns: 2,
				DialTimeout:  5 * time.Second,
				ReadTimeout:  3 * time.Second,
				WriteTimeout: 3 * time.Second,
			},
		},
		Audit: Audit{Topic: "verification.audit", BufferSize: 256, MaxEventsPerUser: 100},
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// CONFIG_FILE, then environment variables (a .env file is loaded first when
// present). Later sources win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Addr, "HTTP_ADDR")
	setDuration(&c.Server.ShutdownTimeout, "SHUTDOWN_TIMEOUT")
	setString(&c.Server.JWTSigningKey, "JWT_SIGNING_KEY")
	setString(&c.Server.JWTIssuer, "JWT_ISSUER")
	setString(&c.Server.JWTAudience, "JWT_AUDIENCE")
	setString(&c.Server.AdminToken, "ADMIN_TOKEN")

	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	setString(&c.Verification.Variant, "VERIFICATION_VARIANT")
	setString(&c.Verification.ResetPolicy, "VERIFICATION_RESET_POLICY")
	setString(&c.Verification.Checker, "VERIFICATION_CHECKER")
	setString(&c.Verification.CheckerURL, "VERIFICATION_CHECKER_URL")
	setDuration(&c.Verification.CheckerTimeout, "VERIFICATION_CHECKER_TIMEOUT")
	setDuration(&c.Verification.SimulatedDelay, "VERIFICATION_SIMULATED_DELAY")
	if v, err := strconv.ParseInt(os.Getenv("VERIFICATION_MAX_UPLOAD_BYTES"), 10, 64); err == nil && v > 0 {
		c.Verification.MaxUploadBytes = v
	}

	setString(&c.Storage.Backend, "STORAGE_BACKEND")
	setString(&c.Storage.DatabaseURL, "DATABASE_URL")
	setString(&c.Storage.Redis.URL, "REDIS_URL")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Audit.KafkaBrokers = splitList(brokers)
	}
	setString(&c.Audit.Topic, "AUDIT_TOPIC")
	if v, err := strconv.Atoi(os.Getenv("AUDIT_MAX_EVENTS_PER_USER")); err == nil && v > 0 {
		c.Audit.MaxEventsPerUser = v
	}
}

// Validate rejects combinations the server cannot start with.
func (c Config) Validate() error {
	switch c.Verification.Variant {
	case "standard", "extended":
	default:
		return fmt.Errorf("unknown verification variant %q", c.Verification.Variant)
	}
	switch c.Verification.ResetPolicy {
	case "keep_history", "clear_history":
	default:
		return fmt.Errorf("unknown reset policy %q", c.Verification.ResetPolicy)
	}
	switch c.Verification.Checker {
	case "simulated":
	case "http":
		if c.Verification.CheckerURL == "" {
			return errors.New("VERIFICATION_CHECKER_URL is required for the http checker")
		}
	default:
		return fmt.Errorf("unknown verification checker %q", c.Verification.Checker)
	}
	switch c.Storage.Backend {
	case "memory":
	case "redis":
		if c.Storage.Redis.URL == "" {
			return errors.New("REDIS_URL is required for the redis backend")
		}
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Server.JWTSigningKey == "" {
		return errors.New("JWT_SIGNING_KEY must not be empty")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
