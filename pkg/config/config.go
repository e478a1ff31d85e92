package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig is read from a YAML file under the user's home directory.
// All fields are optional; defaults are applied by the accessor methods.
//
// Example (~/.parley/config.yaml):
//
// server:
//   host: 127.0.0.1
//   port: 8088
// database:
//   driver: sqlite
//   path: /var/lib/parley/parley.db
// log:
//   level: debug
// ratelimit:
//   rps: 20
//   burst: 40
// events:
//   redis_url: redis://localhost:6379/0
// reconcile:
//   cron: "*/30 * * * *"
//
// Notes:
// - If the config file does not exist, Load returns defaults without error.
// - If the config file exists but cannot be parsed, Load returns an error.
// - PARLEY_* environment variables (optionally from a .env file in the
//   working directory) override the file.

type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Events    EventsConfig    `yaml:"events"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
}

type ServerConfig struct {
	Host      *string `yaml:"host"`
	Port      *int    `yaml:"port"`
	StaticDir *string `yaml:"static_dir"`
}

type DatabaseConfig struct {
	Driver *string `yaml:"driver"` // sqlite (default) or postgres
	Path   *string `yaml:"path"`
	DSN    *string `yaml:"dsn"`
}

type LogConfig struct {
	Level *string `yaml:"level"`
}

type RateLimitConfig struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

type EventsConfig struct {
	RedisURL     *string `yaml:"redis_url"`
	RedisChannel *string `yaml:"redis_channel"`
	// WebSocket keepalive, in seconds.
	WSPingSeconds        *int `yaml:"ws_ping_seconds"`
	WSReadTimeoutSeconds *int `yaml:"ws_read_timeout_seconds"`
}

type ReconcileConfig struct {
	Cron *string `yaml:"cron"`
}

const (
	DefaultHost         = "127.0.0.1"
	DefaultPort         = 8088
	DefaultLogLevel     = "info"
	DefaultRPS          = 20.0
	DefaultBurst        = 40
	DefaultRedisChannel = "parley:events"
	DefaultWSPing       = 30 * time.Second
	DriverSQLite        = "sqlite"
	DriverPostgres      = "postgres"
	dbFileName          = "parley.db"
)

// DefaultPaths returns the config dir and config file path.
func DefaultPaths() (configDir string, configFile string, err error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("get user home dir: %w", err)
	}
	configDir = filepath.Join(home, ".parley")
	configFile = filepath.Join(configDir, "config.yaml")
	return configDir, configFile, nil
}

// Load reads ~/.parley/config.yaml and applies environment overrides.
// If the file doesn't exist, it returns a default config and nil error.
func Load() (*AppConfig, string, error) {
	_, configFile, err := DefaultPaths()
	if err != nil {
		return nil, "", err
	}
	return LoadFile(configFile)
}

// LoadFile is Load for an explicit path.
func LoadFile(configFile string) (*AppConfig, string, error) {
	_ = godotenv.Load(".env")

	cfg := &AppConfig{}

	b, err := os.ReadFile(configFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("read config file %s: %w", configFile, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, "", fmt.Errorf("parse yaml config %s: %w", configFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("%w in %s", err, configFile)
	}
	return cfg, configFile, nil
}

func (c *AppConfig) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("PARLEY_HOST")); v != "" {
		c.Server.Host = ptr(v)
	}
	if v := strings.TrimSpace(os.Getenv("PARLEY_PORT")); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PARLEY_PORT %q: %w", v, err)
		}
		c.Server.Port = ptr(p)
	}
	if v := strings.TrimSpace(os.Getenv("PARLEY_DB_PATH")); v != "" {
		c.Database.Path = ptr(v)
	}
	if v := strings.TrimSpace(os.Getenv("PARLEY_DB_DSN")); v != "" {
		c.Database.DSN = ptr(v)
		if c.Database.Driver == nil {
			c.Database.Driver = ptr(DriverPostgres)
		}
	}
	if v := strings.TrimSpace(os.Getenv("PARLEY_LOG_LEVEL")); v != "" {
		c.Log.Level = ptr(v)
	}
	if v := strings.TrimSpace(os.Getenv("PARLEY_REDIS_URL")); v != "" {
		c.Events.RedisURL = ptr(v)
	}
	return nil
}

// Validate checks the values that would make the server fail later.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Host()) == "" {
		return errors.New("invalid server.host (empty)")
	}
	if port := c.Port(); port < 1 || port > 65535 {
		return fmt.Errorf("invalid server.port %d", port)
	}
	switch c.DBDriver() {
	case DriverSQLite:
	case DriverPostgres:
		if c.DBDSN() == "" {
			return errors.New("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.DBDriver())
	}
	if c.WSReadTimeout() <= c.WSPingInterval() {
		return fmt.Errorf("events.ws_read_timeout_seconds must exceed events.ws_ping_seconds (%s <= %s)",
			c.WSReadTimeout(), c.WSPingInterval())
	}
	if expr := c.ReconcileCron(); expr != "" && !gronx.IsValid(expr) {
		return fmt.Errorf("invalid reconcile.cron %q", expr)
	}
	return nil
}

// EnsureDefaultConfig writes a default config file if it doesn't already exist.
// It is safe to call on startup.
func EnsureDefaultConfig() (string, error) {
	configDir, configFile, err := DefaultPaths()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configFile); err == nil {
		return configFile, nil
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("create config dir %s: %w", configDir, err)
	}

	defaultCfg := AppConfig{
		Server: ServerConfig{Host: ptr(DefaultHost), Port: ptr(DefaultPort)},
		Log:    LogConfig{Level: ptr(DefaultLogLevel)},
	}
	b, err := yaml.Marshal(&defaultCfg)
	if err != nil {
		return "", fmt.Errorf("marshal default config: %w", err)
	}

	if err := os.WriteFile(configFile, b, 0o600); err != nil {
		return "", fmt.Errorf("write default config file %s: %w", configFile, err)
	}

	return configFile, nil
}

func (c *AppConfig) Host() string {
	if c == nil || c.Server.Host == nil {
		return DefaultHost
	}
	v := strings.TrimSpace(*c.Server.Host)
	if v == "" {
		return DefaultHost
	}
	return v
}

func (c *AppConfig) Port() int {
	if c == nil || c.Server.Port == nil {
		return DefaultPort
	}
	return *c.Server.Port
}

// Addr is host:port for net.Listen.
func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host(), c.Port())
}

func (c *AppConfig) StaticDir() string {
	if c == nil || c.Server.StaticDir == nil {
		return ""
	}
	return strings.TrimSpace(*c.Server.StaticDir)
}

// DBPath defaults to ~/.parley/parley.db.
func (c *AppConfig) DBPath() string {
	if c != nil && c.Database.Path != nil && strings.TrimSpace(*c.Database.Path) != "" {
		return strings.TrimSpace(*c.Database.Path)
	}
	dir, _, err := DefaultPaths()
	if err != nil {
		return dbFileName
	}
	return filepath.Join(dir, dbFileName)
}

func (c *AppConfig) DBDriver() string {
	if c == nil || c.Database.Driver == nil || strings.TrimSpace(*c.Database.Driver) == "" {
		return DriverSQLite
	}
	return strings.ToLower(strings.TrimSpace(*c.Database.Driver))
}

func (c *AppConfig) DBDSN() string {
	if c == nil || c.Database.DSN == nil {
		return ""
	}
	return strings.TrimSpace(*c.Database.DSN)
}

func (c *AppConfig) LogLevel() string {
	if c == nil || c.Log.Level == nil {
		return DefaultLogLevel
	}
	return *c.Log.Level
}

// RateLimits returns requests per second and burst. rps <= 0 disables limiting.
func (c *AppConfig) RateLimits() (float64, int) {
	rps, burst := DefaultRPS, DefaultBurst
	if c == nil {
		return rps, burst
	}
	if c.RateLimit.RPS != nil {
		rps = *c.RateLimit.RPS
	}
	if c.RateLimit.Burst != nil && *c.RateLimit.Burst > 0 {
		burst = *c.RateLimit.Burst
	}
	return rps, burst
}

func (c *AppConfig) RedisURL() string {
	if c == nil || c.Events.RedisURL == nil {
		return ""
	}
	return strings.TrimSpace(*c.Events.RedisURL)
}

func (c *AppConfig) RedisChannel() string {
	if c == nil || c.Events.RedisChannel == nil || *c.Events.RedisChannel == "" {
		return DefaultRedisChannel
	}
	return *c.Events.RedisChannel
}

// WSPingInterval is how often idle event subscribers are pinged.
func (c *AppConfig) WSPingInterval() time.Duration {
	if c == nil || c.Events.WSPingSeconds == nil || *c.Events.WSPingSeconds <= 0 {
		return DefaultWSPing
	}
	return time.Duration(*c.Events.WSPingSeconds) * time.Second
}

// WSReadTimeout drops a subscriber that has not answered a ping in time.
// It defaults to twice the ping interval.
func (c *AppConfig) WSReadTimeout() time.Duration {
	if c == nil || c.Events.WSReadTimeoutSeconds == nil || *c.Events.WSReadTimeoutSeconds <= 0 {
		return 2 * c.WSPingInterval()
	}
	return time.Duration(*c.Events.WSReadTimeoutSeconds) * time.Second
}

// ReconcileCron is empty when scheduled reconciliation is off.
func (c *AppConfig) ReconcileCron() string {
	if c == nil || c.Reconcile.Cron == nil {
		return ""
	}
	return strings.TrimSpace(*c.Reconcile.Cron)
}

func ptr[T any](v T) *T { return &v }
