package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type MDNS struct {
	Enabled bool   `mapstructure:"enabled"`
	Service string `mapstructure:"service"`
}

type Config struct {
	Mode         string        `mapstructure:"mode"`
	Port         int           `mapstructure:"port"`
	LogLevel     string        `mapstructure:"log_level"`
	StaticPath   string        `mapstructure:"static_path"`
	Secret       string        `mapstructure:"secret"`
	DefaultRoom  string        `mapstructure:"default_room"`
	ReadLimit    int64         `mapstructure:"read_limit"`
	WriteWait    time.Duration `mapstructure:"write_wait"`
	PongWait     time.Duration `mapstructure:"pong_wait"`
	PingPeriod   time.Duration `mapstructure:"ping_period"`
	SendBuffer   int           `mapstructure:"send_buffer"`
	RateLimit    int           `mapstructure:"rate_limit"`
	RateWindow   time.Duration `mapstructure:"rate_window"`
	CanvasWidth  float64       `mapstructure:"canvas_width"`
	CanvasHeight float64       `mapstructure:"canvas_height"`
	MDNS         MDNS          `mapstructure:"mdns"`
}

// Flags declares the command line overrides understood by Load.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("canvas", pflag.ContinueOnError)
	fs.String("env", "", "config environment, selects config/config.<env>.yaml")
	fs.Int("port", 0, "listen port")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	return fs
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("static_path", "./web")
	v.SetDefault("secret", "canvas-dev-secret")
	v.SetDefault("default_room", "default")
	v.SetDefault("read_limit", 1<<20)
	v.SetDefault("write_wait", "10s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("ping_period", "54s")
	v.SetDefault("send_buffer", 256)
	v.SetDefault("rate_limit", 240)
	v.SetDefault("rate_window", "1s")
	v.SetDefault("canvas_width", 1200)
	v.SetDefault("canvas_height", 900)
	v.SetDefault("mdns.enabled", false)
	v.SetDefault("mdns.service", "_canvas._tcp")
}

// Load reads config/config.<env>.yaml, then CANVAS_* environment
// variables, then any flags that were set on fs. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix("CANVAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	env := os.Getenv("CONFIG_ENV")
	if fs != nil {
		if f := fs.Lookup("env"); f != nil && f.Changed {
			env = f.Value.String()
		}
		if err := bindFlag(v, fs, "port", "port"); err != nil {
			return nil, err
		}
		if err := bindFlag(v, fs, "log_level", "log-level"); err != nil {
			return nil, err
		}
	}
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("default_room", cfg.DefaultRoom).Msg("config ready")
	return &cfg, nil
}

func bindFlag(v *viper.Viper, fs *pflag.FlagSet, key, name string) error {
	f := fs.Lookup(name)
	if f == nil || !f.Changed {
		return nil
	}
	if err := v.BindPFlag(key, f); err != nil {
		return fmt.Errorf("bind flag %s: %w", name, err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.PingPeriod >= c.PongWait {
		return fmt.Errorf("ping_period (%s) must be shorter than pong_wait (%s)", c.PingPeriod, c.PongWait)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("send_buffer must be positive, got %d", c.SendBuffer)
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		return fmt.Errorf("rate_limit and rate_window must be positive")
	}
	return nil
}
