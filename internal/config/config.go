// Package config loads service settings from an optional YAML file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"shopfloor_dashboard/internal/backend"
	"shopfloor_dashboard/internal/logger"
	"shopfloor_dashboard/internal/server"
	"shopfloor_dashboard/internal/service"
	"shopfloor_dashboard/internal/store"
	"shopfloor_dashboard/internal/stream"

	"github.com/spf13/viper"
)

// Defaults owned by this package. Component defaults (caps, cadence,
// backoff, timeouts) come from the packages that apply them.
const (
	DefaultAPIURL = "http://localhost:8000"
	DefaultDBPath = "dashboard.db"

	envPrefix  = "DASHBOARD"
	streamPath = "/ws"
)

// Config is the typed view of every setting.
type Config struct {
	Port     string
	Log      LogConfig
	DB       DBConfig
	Backend  BackendConfig
	Snapshot SnapshotConfig
	Stores   StoresConfig
	Stream   StreamConfig
	Publish  PublishConfig
	Auth     AuthConfig
	Server   ServerConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type DBConfig struct {
	Path string
}

type BackendConfig struct {
	APIURL  string
	WSURL   string
	Timeout time.Duration
}

type SnapshotConfig struct {
	Interval time.Duration
}

type StoresConfig struct {
	MachinesCap  int
	OrdersCap    int
	SafetyCap    int
	LogsCap      int
	WorkflowsCap int
}

type StreamConfig struct {
	BackoffBase time.Duration
	BackoffMax  time.Duration
	ReadTimeout time.Duration
}

type PublishConfig struct {
	Async bool
}

type AuthConfig struct {
	SigningKey string
	TokenTTL   time.Duration
}

type ServerConfig struct {
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// SetDefaults registers every default and environment binding on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", server.DefaultPort)
	v.SetDefault("log.level", logger.InfoLevel)
	v.SetDefault("log.format", logger.FormatConsole)
	v.SetDefault("db.path", DefaultDBPath)
	v.SetDefault("backend.api_url", DefaultAPIURL)
	v.SetDefault("backend.ws_url", "")
	v.SetDefault("backend.timeout", backend.DefaultTimeout)
	v.SetDefault("snapshot.interval", service.DefaultSnapshotInterval)
	v.SetDefault("stores.machines_cap", store.DefaultMachinesCap)
	v.SetDefault("stores.orders_cap", store.DefaultOrdersCap)
	v.SetDefault("stores.safety_cap", store.DefaultSafetyCap)
	v.SetDefault("stores.logs_cap", store.DefaultLogsCap)
	v.SetDefault("stores.workflows_cap", store.DefaultWorkflowsCap)
	v.SetDefault("stream.backoff_base", stream.DefaultBackoffBase)
	v.SetDefault("stream.backoff_max", stream.DefaultBackoffMax)
	v.SetDefault("stream.read_timeout", stream.DefaultReadTimeout)
	v.SetDefault("publish.async", false)
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", service.DefaultTokenTTL)
	v.SetDefault("server.read_header_timeout", server.DefaultReadHeaderTimeout)
	v.SetDefault("server.write_timeout", server.DefaultWriteTimeout)
	v.SetDefault("server.idle_timeout", server.DefaultIdleTimeout)

	// DASHBOARD_LOG_LEVEL, DASHBOARD_AUTH_SIGNING_KEY, ...
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Backend endpoints also honor the unprefixed names the frontend build used.
	_ = v.BindEnv("backend.api_url", "DASHBOARD_API_URL", "API_URL")
	_ = v.BindEnv("backend.ws_url", "DASHBOARD_WS_URL", "WS_URL")
}

// Load reads the config file at path (if any) into v and returns the typed
// settings. An empty path looks for configs/config.yml; a missing default file
// is not an error.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := fromViper(v)
	if cfg.Backend.WSURL == "" {
		ws, err := DeriveStreamURL(cfg.Backend.APIURL)
		if err != nil {
			return Config{}, err
		}
		cfg.Backend.WSURL = ws
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Port: v.GetString("port"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		DB: DBConfig{Path: v.GetString("db.path")},
		Backend: BackendConfig{
			APIURL:  strings.TrimSpace(v.GetString("backend.api_url")),
			WSURL:   strings.TrimSpace(v.GetString("backend.ws_url")),
			Timeout: v.GetDuration("backend.timeout"),
		},
		Snapshot: SnapshotConfig{Interval: v.GetDuration("snapshot.interval")},
		Stores: StoresConfig{
			MachinesCap:  v.GetInt("stores.machines_cap"),
			OrdersCap:    v.GetInt("stores.orders_cap"),
			SafetyCap:    v.GetInt("stores.safety_cap"),
			LogsCap:      v.GetInt("stores.logs_cap"),
			WorkflowsCap: v.GetInt("stores.workflows_cap"),
		},
		Stream: StreamConfig{
			BackoffBase: v.GetDuration("stream.backoff_base"),
			BackoffMax:  v.GetDuration("stream.backoff_max"),
			ReadTimeout: v.GetDuration("stream.read_timeout"),
		},
		Publish: PublishConfig{Async: v.GetBool("publish.async")},
		Auth: AuthConfig{
			SigningKey: v.GetString("auth.signing_key"),
			TokenTTL:   v.GetDuration("auth.token_ttl"),
		},
		Server: ServerConfig{
			ReadHeaderTimeout: v.GetDuration("server.read_header_timeout"),
			WriteTimeout:      v.GetDuration("server.write_timeout"),
			IdleTimeout:       v.GetDuration("server.idle_timeout"),
		},
	}
}

// DeriveStreamURL maps the API base URL to the stream endpoint: http becomes
// ws, https becomes wss, and /ws is appended to the path.
func DeriveStreamURL(apiURL string) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("parse backend.api_url %q: %w", apiURL, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("backend.api_url %q: scheme must be http or https", apiURL)
	}
	u.Path = strings.TrimRight(u.Path, "/") + streamPath
	return u.String(), nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if err := checkURL("backend.api_url", c.Backend.APIURL, "http", "https"); err != nil {
		return err
	}
	if err := checkURL("backend.ws_url", c.Backend.WSURL, "ws", "wss"); err != nil {
		return err
	}
	if c.Snapshot.Interval <= 0 {
		return fmt.Errorf("snapshot.interval must be positive, got %v", c.Snapshot.Interval)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive, got %v", c.Backend.Timeout)
	}
	for name, n := range map[string]int{
		"stores.machines_cap":  c.Stores.MachinesCap,
		"stores.orders_cap":    c.Stores.OrdersCap,
		"stores.safety_cap":    c.Stores.SafetyCap,
		"stores.logs_cap":      c.Stores.LogsCap,
		"stores.workflows_cap": c.Stores.WorkflowsCap,
	} {
		if n <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, n)
		}
	}
	if c.Stream.BackoffMax < c.Stream.BackoffBase {
		return fmt.Errorf("stream.backoff_max (%v) must be >= stream.backoff_base (%v)", c.Stream.BackoffMax, c.Stream.BackoffBase)
	}
	if strings.TrimSpace(c.Auth.SigningKey) == "" {
		return fmt.Errorf("auth.signing_key is required (set %s_AUTH_SIGNING_KEY)", envPrefix)
	}
	return nil
}

func checkURL(key, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse %s %q: %w", key, raw, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%s %q: want %s URL with a host", key, raw, strings.Join(schemes, "/"))
}
