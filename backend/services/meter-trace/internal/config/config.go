package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	libconfig "ocppmeter/backend/libs/config"
)

// Sink names accepted in Sinks.Enabled.
const (
	SinkLog       = "log"
	SinkWebSocket = "websocket"
	SinkPostgres  = "postgres"
	SinkRedis     = "redis"
	SinkHTTP      = "http"
)

var knownSinks = map[string]bool{
	SinkLog:       true,
	SinkWebSocket: true,
	SinkPostgres:  true,
	SinkRedis:     true,
	SinkHTTP:      true,
}

// Config defines meter trace converter configuration.
type Config struct {
	Trace      TraceConfig      `yaml:"trace"`
	Conversion ConversionConfig `yaml:"conversion"`
	Log        LogConfig        `yaml:"log"`
	Sinks      SinksConfig      `yaml:"sinks"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Viewer     ViewerConfig     `yaml:"viewer"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// TraceConfig locates the input.
type TraceConfig struct {
	Directory string `yaml:"directory" env:"TRACE_DIRECTORY"`
}

// ConversionConfig tunes record handling.
type ConversionConfig struct {
	StrictTimestamps bool `yaml:"strictTimestamps" env:"TRACE_STRICT_TIMESTAMPS"`
}

// LogConfig overrides LOG_LEVEL / LOG_FORMAT.
type LogConfig struct {
	Level  string `yaml:"level" env:"TRACE_LOG_LEVEL"`
	Format string `yaml:"format" env:"TRACE_LOG_FORMAT"`
}

// SinksConfig selects where channel values go.
type SinksConfig struct {
	Enabled []string `yaml:"enabled" env:"TRACE_SINKS"`
}

// DatabaseConfig for the postgres sink.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn" env:"TRACE_POSTGRES_DSN"`
	EnsureSchema bool   `yaml:"ensureSchema" env:"TRACE_POSTGRES_ENSURE_SCHEMA"`
}

// RedisConfig for the redis sink.
type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"TRACE_REDIS_ADDR"`
	Password string        `yaml:"password" env:"TRACE_REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"TRACE_REDIS_DB"`
	Stream   string        `yaml:"stream" env:"TRACE_REDIS_STREAM"`
	MaxLen   int64         `yaml:"maxLen" env:"TRACE_REDIS_MAXLEN"`
	TTL      time.Duration `yaml:"ttl" env:"TRACE_REDIS_TTL"`
}

// ViewerConfig for the websocket sink.
type ViewerConfig struct {
	URL                 string `yaml:"url" env:"TRACE_VIEWER_URL"`
	JWTSecret           string `yaml:"jwtSecret" env:"TRACE_VIEWER_JWT_SECRET"`
	JWTIssuer           string `yaml:"jwtIssuer" env:"TRACE_VIEWER_JWT_ISSUER"`
	WriteTimeoutSeconds int    `yaml:"writeTimeoutSeconds" env:"TRACE_VIEWER_WRITE_TIMEOUT"`
}

// TelemetryConfig for the http sink.
type TelemetryConfig struct {
	URL            string `yaml:"url" env:"TRACE_TELEMETRY_URL"`
	TimeoutSeconds int    `yaml:"timeoutSeconds" env:"TRACE_TELEMETRY_TIMEOUT"`
}

// Default returns configuration with defaults applied.
func Default() *Config {
	return &Config{
		Sinks: SinksConfig{Enabled: []string{SinkLog}},
		Redis: RedisConfig{
			Stream: "meter:channels",
			TTL:    24 * time.Hour,
		},
		Viewer: ViewerConfig{
			JWTIssuer:           "meter-trace",
			WriteTimeoutSeconds: 15,
		},
		Telemetry: TelemetryConfig{TimeoutSeconds: 5},
	}
}

// Load uses shared config loader. path overrides CONFIG_FILE when not empty.
func Load(path string) (*Config, error) {
	cfg := Default()

	var err error
	if strings.TrimSpace(path) != "" {
		err = libconfig.LoadConfigFile(path, cfg)
	} else {
		err = libconfig.LoadConfig(cfg)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Flags binds command line overrides. Only flags set by the user are applied by ApplyFlags.
func (c *Config) Flags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.Trace.Directory, "trace-file-directory", "t", c.Trace.Directory, "directory searched recursively for *.trace files")
	fs.BoolVar(&c.Conversion.StrictTimestamps, "strict", c.Conversion.StrictTimestamps, "abort on lines with a malformed timestamp instead of skipping them")
	fs.StringSliceVar(&c.Sinks.Enabled, "sink", c.Sinks.Enabled, "sinks to write channels to: log, websocket, postgres, redis, http")
	fs.StringVar(&c.Viewer.URL, "viewer-url", c.Viewer.URL, "websocket url of the live viewer")
	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "log level (debug, info, warn, error)")
	fs.StringVar(&c.Log.Format, "log-format", c.Log.Format, "log format (json, console)")
}

// ApplyFlags copies the values of flags changed on fs from flagged onto c.
func (c *Config) ApplyFlags(fs *pflag.FlagSet, flagged *Config) {
	if fs.Changed("trace-file-directory") {
		c.Trace.Directory = flagged.Trace.Directory
	}
	if fs.Changed("strict") {
		c.Conversion.StrictTimestamps = flagged.Conversion.StrictTimestamps
	}
	if fs.Changed("sink") {
		c.Sinks.Enabled = flagged.Sinks.Enabled
	}
	if fs.Changed("viewer-url") {
		c.Viewer.URL = flagged.Viewer.URL
	}
	if fs.Changed("log-level") {
		c.Log.Level = flagged.Log.Level
	}
	if fs.Changed("log-format") {
		c.Log.Format = flagged.Log.Format
	}
}

// Validate checks sink selection and the settings each enabled sink needs.
// hasFiles reports whether explicit trace files were given, making the directory optional.
func (c *Config) Validate(hasFiles bool) error {
	if !hasFiles && strings.TrimSpace(c.Trace.Directory) == "" {
		return errors.New("config: trace directory is required")
	}
	if len(c.Sinks.Enabled) == 0 {
		return errors.New("config: at least one sink is required")
	}

	seen := make(map[string]bool, len(c.Sinks.Enabled))
	for i, name := range c.Sinks.Enabled {
		name = strings.ToLower(strings.TrimSpace(name))
		if !knownSinks[name] {
			return fmt.Errorf("config: unknown sink %q", name)
		}
		if seen[name] {
			return fmt.Errorf("config: sink %q listed twice", name)
		}
		seen[name] = true
		c.Sinks.Enabled[i] = name
	}

	if seen[SinkWebSocket] && strings.TrimSpace(c.Viewer.URL) == "" {
		return errors.New("config: viewer url is required for the websocket sink")
	}
	if seen[SinkPostgres] && strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("config: database dsn is required for the postgres sink")
	}
	if seen[SinkRedis] && strings.TrimSpace(c.Redis.Addr) == "" {
		return errors.New("config: redis addr is required for the redis sink")
	}
	if seen[SinkHTTP] && strings.TrimSpace(c.Telemetry.URL) == "" {
		return errors.New("config: telemetry url is required for the http sink")
	}
	return nil
}

// ViewerWriteTimeout returns websocket write timeout.
func (c *Config) ViewerWriteTimeout() time.Duration {
	if c.Viewer.WriteTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Viewer.WriteTimeoutSeconds) * time.Second
}

// TelemetryTimeout returns HTTP client timeout.
func (c *Config) TelemetryTimeout() time.Duration {
	if c.Telemetry.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Telemetry.TimeoutSeconds) * time.Second
}
