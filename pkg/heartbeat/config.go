package heartbeat

import (
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vnykmshr/tickflow/pkg/common/validation"
	"github.com/vnykmshr/tickflow/pkg/metrics"
)

// Config holds configuration for a heartbeat worker.
type Config struct {
	// Redis client used for every write.
	Client redis.UniversalClient

	// Key is the Redis key prefix. Members are kept in "<Key>:instances"
	// and each instance writes "<Key>:instance:<InstanceID>".
	Key string

	// InstanceID identifies this process. Defaults to a random UUID.
	InstanceID string

	// Interval is the accumulated tick time between two heartbeats.
	Interval time.Duration

	// TTL is the expiry of the per-instance key. It should exceed Interval
	// so a live instance never drops out between heartbeats.
	TTL time.Duration

	// Timeout bounds every Redis round trip.
	Timeout time.Duration

	// MaxRetries bounds registration attempts, counting the one made by
	// Setup. Later attempts run from Tick.
	MaxRetries uint

	// RetryInterval is the initial backoff between registration attempts.
	RetryInterval time.Duration

	Logger  *zap.Logger
	Metrics *metrics.Registry
}

// DefaultConfig returns a default heartbeat configuration without a client.
func DefaultConfig() Config {
	return Config{
		Key:           "tickflow:heartbeat",
		InstanceID:    uuid.NewString(),
		Interval:      5 * time.Second,
		TTL:           15 * time.Second,
		Timeout:       500 * time.Millisecond,
		MaxRetries:    3,
		RetryInterval: 200 * time.Millisecond,
	}
}

func (c Config) validate() error {
	if err := validation.ValidateNotNil("heartbeat", "Client", c.Client); err != nil {
		return err
	}
	if err := validation.ValidateNotEmpty("heartbeat", "Key", c.Key); err != nil {
		return err
	}
	if err := validation.ValidatePositiveDuration("heartbeat", "Interval", c.Interval); err != nil {
		return err
	}
	if err := validation.ValidatePositiveDuration("heartbeat", "TTL", c.TTL); err != nil {
		return err
	}
	return validation.ValidatePositiveDuration("heartbeat", "Timeout", c.Timeout)
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.InstanceID == "" {
		c.InstanceID = d.InstanceID
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = d.RetryInterval
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}
