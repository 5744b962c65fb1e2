package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	json "github.com/goccy/go-json"

	"github.com/vango-dev/dispatch/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "dispatch.json"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "DISPATCH_"

	// DefaultAddr is the default listen address of the serve command.
	DefaultAddr = "localhost:8080"

	// DefaultManifest is the default route manifest path.
	DefaultManifest = "routes.json"
)

// Duration is a time.Duration written as a string ("250ms", "5s") in JSON
// and environment variables.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents dispatch.json.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" env:"NAME"`

	// Server configures the serve command.
	Server ServerConfig `json:"server" envPrefix:"SERVER_"`

	// Routes configures the route manifest.
	Routes RoutesConfig `json:"routes" envPrefix:"ROUTES_"`

	// Log configures logging.
	Log LogConfig `json:"log" envPrefix:"LOG_"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `json:"metrics" envPrefix:"METRICS_"`

	// Tracing configures OpenTelemetry tracing.
	Tracing TracingConfig `json:"tracing" envPrefix:"TRACING_"`

	// RateLimit configures the per-client rate limit guard.
	RateLimit RateLimitConfig `json:"rateLimit" envPrefix:"RATE_LIMIT_"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" env:"ADDR"`

	// Prefix mounts the app below a path prefix.
	Prefix string `json:"prefix,omitempty" env:"PREFIX"`

	// Assets is the directory served by the "assets" handler, relative to
	// the config file.
	Assets string `json:"assets,omitempty" env:"ASSETS"`

	// ReadHeaderTimeout bounds reading request headers.
	ReadHeaderTimeout Duration `json:"readHeaderTimeout,omitempty" env:"READ_HEADER_TIMEOUT"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout Duration `json:"shutdownTimeout,omitempty" env:"SHUTDOWN_TIMEOUT"`
}

// RoutesConfig contains route manifest settings.
type RoutesConfig struct {
	// Manifest is the route manifest path, relative to the config file.
	Manifest string `json:"manifest,omitempty" env:"MANIFEST"`

	// Watch reloads the manifest when it changes.
	Watch bool `json:"watch,omitempty" env:"WATCH"`

	// WatchInterval is the manifest polling interval.
	WatchInterval Duration `json:"watchInterval,omitempty" env:"WATCH_INTERVAL"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" env:"LEVEL"`

	// Format is text or json.
	Format string `json:"format,omitempty" env:"FORMAT"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty" env:"ENABLED"`
	Path      string `json:"path,omitempty" env:"PATH"`
	Namespace string `json:"namespace,omitempty" env:"NAMESPACE"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool   `json:"enabled,omitempty" env:"ENABLED"`
	TracerName string `json:"tracerName,omitempty" env:"TRACER_NAME"`
}

// RateLimitConfig contains rate limit settings.
type RateLimitConfig struct {
	Enabled  bool     `json:"enabled,omitempty" env:"ENABLED"`
	Requests int      `json:"requests,omitempty" env:"REQUESTS"`
	Per      Duration `json:"per,omitempty" env:"PER"`
	Burst    int      `json:"burst,omitempty" env:"BURST"`
}

// New creates a Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads dispatch.json from dir and applies environment overrides.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from path and applies environment
// overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("C001").
				WithFile(path).
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				Wrap(err)
		}
		return nil, errors.New("C002").WithFile(path).Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("C002").
			WithFile(path).
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			Wrap(err)
	}
	cfg.configPath = path

	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from DISPATCH_* variables. A nil environ
// reads the process environment.
func (c *Config) ApplyEnv(environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return errors.New("C003").WithDetail(err.Error()).Wrap(err)
	}
	return nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("C002").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("C002").WithFile(path).Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.Assets == "" {
		c.Server.Assets = "public"
	}
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = Duration(5 * time.Second)
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if c.Routes.Manifest == "" {
		c.Routes.Manifest = DefaultManifest
	}
	if c.Routes.WatchInterval == 0 {
		c.Routes.WatchInterval = Duration(500 * time.Millisecond)
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "dispatch"
	}

	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = "dispatch"
	}

	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = 60
	}
	if c.RateLimit.Per == 0 {
		c.RateLimit.Per = Duration(time.Minute)
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("C004").
			WithFile(c.configPath).
			WithDetail("log.level must be debug, info, warn or error, got " + c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.New("C004").
			WithFile(c.configPath).
			WithDetail("log.format must be text or json, got " + c.Log.Format)
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("C004").
			WithFile(c.configPath).
			WithDetail("metrics.path must start with /")
	}
	if c.RateLimit.Requests < 0 || c.RateLimit.Burst < 0 {
		return errors.New("C004").
			WithFile(c.configPath).
			WithDetail("rateLimit.requests and rateLimit.burst cannot be negative")
	}
	return nil
}

// ManifestPath returns the manifest path resolved against the config
// directory.
func (c *Config) ManifestPath() string {
	return c.resolve(c.Routes.Manifest)
}

// AssetsDir returns the assets directory resolved against the config
// directory.
func (c *Config) AssetsDir() string {
	return c.resolve(c.Server.Assets)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) || c.configPath == "" {
		return p
	}
	return filepath.Join(c.Dir(), p)
}

// Exists reports whether dir contains dispatch.json.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up from startDir to the first directory holding
// dispatch.json.
func FindProjectRoot(startDir string) (string, error) {
	dir := startDir
	for {
		if Exists(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("C001").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir finds and loads the project configuration. Without a
// dispatch.json it returns the defaults with environment overrides.
func LoadFromWorkingDir() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.New("X001").Wrap(err)
	}
	root, err := FindProjectRoot(cwd)
	if err != nil {
		cfg := &Config{}
		if err := cfg.ApplyEnv(nil); err != nil {
			return nil, err
		}
		cfg.applyDefaults()
		return cfg, cfg.Validate()
	}
	return Load(root)
}
