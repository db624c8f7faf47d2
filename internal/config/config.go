package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/astro-web3/dashboard-gate/internal/domain/guard"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var ErrInvalid = errors.New("invalid config")

const envPrefix = "DASHBOARD_GATE"

const (
	SessionStrategyJWT   = "jwt"
	SessionStrategyRedis = "redis"
)

type Config struct {
	Server struct {
		Addr         string        `mapstructure:"addr"`
		Mode         string        `mapstructure:"mode"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
		UpstreamURL  string        `mapstructure:"upstream_url"`
	} `mapstructure:"server"`

	Redis struct {
		URL      string `mapstructure:"url"`
		PoolSize int    `mapstructure:"pool_size"`
	} `mapstructure:"redis"`

	Auth struct {
		LoginURL string       `mapstructure:"login_url"`
		Rules    []guard.Rule `mapstructure:"rules"`
		Session  struct {
			Strategy    string        `mapstructure:"strategy"`
			Secret      string        `mapstructure:"secret"`
			Leeway      time.Duration `mapstructure:"leeway"`
			CookieNames []string      `mapstructure:"cookie_names"`
		} `mapstructure:"session"`
	} `mapstructure:"auth"`

	Cron struct {
		Secret   string `mapstructure:"secret"`
		Schedule string `mapstructure:"schedule"`
	} `mapstructure:"cron"`

	Report struct {
		BaseURL string        `mapstructure:"base_url"`
		Token   string        `mapstructure:"token"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"report"`

	Observability struct {
		TraceEnabled       bool    `mapstructure:"trace_enabled"`
		TracingEndpointURL string  `mapstructure:"tracing_endpoint_url"`
		SampleRatio        float64 `mapstructure:"sample_ratio"`
		LogLevel           string  `mapstructure:"log_level"`
		Format             string  `mapstructure:"log_format"`
		LogSource          bool    `mapstructure:"log_source"`
	} `mapstructure:"observability"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.upstream_url", "")
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("auth.login_url", "")
	v.SetDefault("auth.session.strategy", SessionStrategyJWT)
	v.SetDefault("auth.session.secret", "")
	v.SetDefault("auth.session.leeway", time.Duration(0))
	v.SetDefault("cron.secret", "")
	v.SetDefault("report.base_url", "")
	v.SetDefault("report.token", "")
	v.SetDefault("observability.trace_enabled", false)
	v.SetDefault("observability.tracing_endpoint_url", "")
	v.SetDefault("auth.session.cookie_names", []string{
		"next-auth.session-token",
		"__Secure-next-auth.session-token",
	})
	v.SetDefault("cron.schedule", "0 8 * * *")
	v.SetDefault("report.timeout", 30*time.Second)
	v.SetDefault("observability.sample_ratio", 1.0)
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.log_format", "json")
}

// searchDirs are consulted in order when no explicit config path is given.
//
//nolint:gochecknoglobals // Fixed lookup order
var searchDirs = []string{"./config", "."}

// reloadDebounce collapses the burst of events an editor produces on save.
const reloadDebounce = 200 * time.Millisecond

func newViper(path string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, dir := range searchDirs {
			v.AddConfigPath(dir)
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return v
}

// Load reads the config file at path, or config.yaml from ./config or the
// working directory when path is empty. A missing file is not an error when
// path is empty; defaults and environment variables still apply. Without an
// explicit path, config.<APP_ENV>.yaml is merged on top when it exists.
func Load(path string) (*Config, error) {
	v, err := load(path)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		slog.Default().Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	return cfg
}

// Watch reloads the config whenever the base file or its APP_ENV overlay
// changes, until ctx is done. Each reload goes through Load, so the overlay
// is merged again on top of the base. Invalid revisions and watcher errors go
// to onError and are skipped.
func Watch(ctx context.Context, path string, onChange func(*Config), onError func(error)) error {
	v, err := load(path)
	if err != nil {
		return err
	}
	base := v.ConfigFileUsed()
	if base == "" {
		return fmt.Errorf("%w: no config file to watch", ErrInvalid)
	}

	files := []string{base}
	if path == "" && overlayName() != "" {
		overlay := overlayPath(base)
		if overlay == "" {
			overlay = filepath.Join(filepath.Dir(base), overlayName())
		}
		files = append(files, overlay)
	}

	targets := make(map[string]struct{}, len(files))
	dirs := make(map[string]struct{}, len(files))
	for _, file := range files {
		abs, absErr := filepath.Abs(file)
		if absErr != nil {
			return fmt.Errorf("failed to resolve %q: %w", file, absErr)
		}
		targets[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	// Directories rather than files, so editors that save by rename keep
	// being followed.
	for dir := range dirs {
		if addErr := watcher.Add(dir); addErr != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch %q: %w", dir, addErr)
		}
	}

	reload := func() {
		cfg, loadErr := Load(path)
		if loadErr != nil {
			onError(loadErr)
			return
		}
		onChange(cfg)
	}

	go watch(ctx, watcher, targets, reload, onError)

	return nil
}

func watch(ctx context.Context, watcher *fsnotify.Watcher, targets map[string]struct{}, reload func(), onError func(error)) {
	defer watcher.Close()

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if _, watched := targets[filepath.Clean(event.Name)]; !watched {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, reload)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			onError(fmt.Errorf("config watcher: %w", err))
		}
	}
}

func load(path string) (*viper.Viper, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if path == "" {
		if err := mergeOverlay(v); err != nil {
			return nil, err
		}
	}

	return v, nil
}

func overlayName() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		return ""
	}
	return fmt.Sprintf("config.%s.yaml", env)
}

// overlayPath looks for the APP_ENV overlay beside base first, then in the
// search directories. It returns "" when there is none.
func overlayPath(base string) string {
	name := overlayName()
	if name == "" {
		return ""
	}

	dirs := searchDirs
	if base != "" {
		dirs = append([]string{filepath.Dir(base)}, searchDirs...)
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// mergeOverlay merges the overlay from a reader so viper keeps pointing at the
// base file.
func mergeOverlay(v *viper.Viper) error {
	overlay := overlayPath(v.ConfigFileUsed())
	if overlay == "" {
		if env := os.Getenv("APP_ENV"); env != "" {
			slog.Default().Info("No environment-specific config (optional)", slog.String("env", env))
		}
		return nil
	}

	f, err := os.Open(overlay)
	if err != nil {
		return fmt.Errorf("failed to open config overlay: %w", err)
	}
	defer f.Close()

	if err := v.MergeConfig(f); err != nil {
		return fmt.Errorf("failed to merge config overlay %q: %w", overlay, err)
	}
	slog.Default().Info("Environment-specific config loaded", slog.String("file", overlay))

	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if !v.IsSet("auth.rules") {
		cfg.Auth.Rules = guard.DefaultRules()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is required", ErrInvalid)
	}

	switch c.Auth.Session.Strategy {
	case SessionStrategyJWT:
		if c.Auth.Session.Secret == "" {
			return fmt.Errorf("%w: auth.session.secret is required for the jwt strategy", ErrInvalid)
		}
	case SessionStrategyRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("%w: redis.url is required for the redis strategy", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown auth.session.strategy %q", ErrInvalid, c.Auth.Session.Strategy)
	}

	if _, err := guard.NewPolicy(c.Auth.Rules); err != nil {
		return fmt.Errorf("%w: auth.rules: %w", ErrInvalid, err)
	}

	return nil
}
