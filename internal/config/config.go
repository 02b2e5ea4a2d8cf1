// Package config loads tickflowd configuration from a file, the environment
// and command-line flags.
//
// Precedence, highest first: flags, TICKFLOW_* environment variables, the
// config file, built-in defaults. Nested keys map to environment variables
// by upper-casing and replacing dots with underscores, so heartbeat.redis_addr
// is read from TICKFLOW_HEARTBEAT_REDIS_ADDR.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	tferrors "github.com/vnykmshr/tickflow/pkg/common/errors"
	"github.com/vnykmshr/tickflow/pkg/common/validation"
	"github.com/vnykmshr/tickflow/pkg/scheduling/cronworker"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "TICKFLOW"

// Cron job actions understood by tickflowd.
const (
	ActionLog   = "log"
	ActionStats = "stats"
)

// Config is the full daemon configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Threads   []ThreadConfig  `mapstructure:"threads"`
	Pools     []PoolConfig    `mapstructure:"pools"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Heartbeat HeartbeatConfig `mapstructure:"heartbeat"`
	Cron      []CronJobConfig `mapstructure:"cron"`
}

// LogConfig selects the zap level and encoder ("json" or "console").
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ThreadConfig declares one tick thread.
type ThreadConfig struct {
	Name     string        `mapstructure:"name"`
	RestTime time.Duration `mapstructure:"rest_time"`
}

// PoolConfig declares one worker pool.
type PoolConfig struct {
	Name      string `mapstructure:"name"`
	Workers   int    `mapstructure:"workers"`
	QueueSize int    `mapstructure:"queue_size"`
}

// DispatchConfig controls the main-loop dispatch queue.
type DispatchConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// MetricsConfig enables the HTTP listener serving /metrics and /health.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// HeartbeatConfig enables the Redis liveness worker on Thread.
type HeartbeatConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	RedisAddr string        `mapstructure:"redis_addr"`
	Key       string        `mapstructure:"key"`
	Thread    string        `mapstructure:"thread"`
	Interval  time.Duration `mapstructure:"interval"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// CronJobConfig schedules Action on Pool, checked by Thread.
type CronJobConfig struct {
	ID       string `mapstructure:"id"`
	Schedule string `mapstructure:"schedule"`
	Thread   string `mapstructure:"thread"`
	Pool     string `mapstructure:"pool"`
	Action   string `mapstructure:"action"`
	Message  string `mapstructure:"message"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"log-level":       "log.level",
	"log-format":      "log.format",
	"metrics-address": "metrics.address",
	"metrics":         "metrics.enabled",
	"redis-addr":      "heartbeat.redis_addr",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("threads", []map[string]interface{}{
		{"name": "main", "rest_time": "10ms"},
	})
	v.SetDefault("pools", []map[string]interface{}{
		{"name": "default", "workers": 4},
	})

	v.SetDefault("dispatch.interval", "16ms")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.address", ":9090")

	v.SetDefault("heartbeat.enabled", false)
	v.SetDefault("heartbeat.redis_addr", "localhost:6379")
	v.SetDefault("heartbeat.key", "tickflow:heartbeat")
	v.SetDefault("heartbeat.thread", "main")
	v.SetDefault("heartbeat.interval", "5s")
	v.SetDefault("heartbeat.ttl", "15s")
}

// Load reads configuration from path (optional), the environment and flags
// (optional), then validates it.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, tferrors.NewOperationError("config", "Load", err).WithContext(path)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, tferrors.NewOperationError("config", "BindFlag", err).WithContext(name)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, tferrors.NewOperationError("config", "Unmarshal", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if err := validation.ValidateNotEmpty("config", "log.level", c.Log.Level); err != nil {
		return err
	}

	threads := make(map[string]bool, len(c.Threads))
	for i, th := range c.Threads {
		field := fmt.Sprintf("threads[%d]", i)
		if err := validation.ValidateNotEmpty("config", field+".name", th.Name); err != nil {
			return err
		}
		if threads[th.Name] {
			return duplicate(field+".name", th.Name)
		}
		if err := validation.ValidateNonNegativeDuration("config", field+".rest_time", th.RestTime); err != nil {
			return err
		}
		threads[th.Name] = true
	}

	pools := make(map[string]bool, len(c.Pools))
	for i, p := range c.Pools {
		field := fmt.Sprintf("pools[%d]", i)
		if err := validation.ValidateNotEmpty("config", field+".name", p.Name); err != nil {
			return err
		}
		if pools[p.Name] {
			return duplicate(field+".name", p.Name)
		}
		if err := validation.ValidatePositive("config", field+".workers", p.Workers); err != nil {
			return err
		}
		pools[p.Name] = true
	}

	if err := validation.ValidatePositiveDuration("config", "dispatch.interval", c.Dispatch.Interval); err != nil {
		return err
	}

	if c.Metrics.Enabled {
		if err := validation.ValidateNotEmpty("config", "metrics.address", c.Metrics.Address); err != nil {
			return err
		}
	}

	if hb := c.Heartbeat; hb.Enabled {
		if err := validation.ValidateNotEmpty("config", "heartbeat.redis_addr", hb.RedisAddr); err != nil {
			return err
		}
		if err := validation.ValidatePositiveDuration("config", "heartbeat.interval", hb.Interval); err != nil {
			return err
		}
		if hb.TTL <= hb.Interval {
			return tferrors.NewValidationError("config", "heartbeat.ttl", hb.TTL, "must exceed heartbeat.interval").
				WithHint("a TTL of three intervals is typical")
		}
		if !threads[hb.Thread] {
			return unknown("heartbeat.thread", hb.Thread)
		}
	}

	ids := make(map[string]bool, len(c.Cron))
	for i, job := range c.Cron {
		field := fmt.Sprintf("cron[%d]", i)
		if err := validation.ValidateNotEmpty("config", field+".id", job.ID); err != nil {
			return err
		}
		if ids[job.ID] {
			return duplicate(field+".id", job.ID)
		}
		ids[job.ID] = true
		if err := cronworker.Validate(job.Schedule); err != nil {
			return err
		}
		if !threads[job.Thread] {
			return unknown(field+".thread", job.Thread)
		}
		if !pools[job.Pool] {
			return unknown(field+".pool", job.Pool)
		}
		switch job.Action {
		case ActionLog, ActionStats:
		default:
			return tferrors.NewValidationError("config", field+".action", job.Action, "unknown action").
				WithHint(fmt.Sprintf("use %q or %q", ActionLog, ActionStats))
		}
	}
	return nil
}

func duplicate(field, name string) error {
	return tferrors.NewValidationError("config", field, name, "duplicate name")
}

func unknown(field, name string) error {
	return tferrors.NewValidationError("config", field, name, "refers to an undeclared entry")
}
