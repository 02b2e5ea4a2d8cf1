package heartbeat

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	tfcontext "github.com/vnykmshr/tickflow/pkg/common/context"
	tferrors "github.com/vnykmshr/tickflow/pkg/common/errors"
	"github.com/vnykmshr/tickflow/pkg/scheduling/tickthread"
)

// Worker publishes the liveness of this process to Redis from a tick
// thread. Every Interval of accumulated tick time it refreshes its
// membership in the instance set and its own expiring key.
type Worker struct {
	tickthread.BaseWorker

	cfg    Config
	logger *zap.Logger

	mu         sync.Mutex
	elapsed    time.Duration
	registered bool

	// Registration retries run on later ticks: attempts counts the tries
	// so far and retryIn is the backoff before the next one, zero when no
	// retry is pending.
	backoff  *backoff.ExponentialBackOff
	attempts uint
	retryIn  time.Duration

	writes   atomic.Int64
	failures atomic.Int64
}

// New creates a heartbeat worker.
func New(cfg Config) (*Worker, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Worker{
		cfg:    cfg,
		logger: cfg.Logger.Named("heartbeat").With(zap.String("instance", cfg.InstanceID)),
	}, nil
}

// InstanceID returns the id this worker publishes.
func (w *Worker) InstanceID() string {
	return w.cfg.InstanceID
}

func (w *Worker) membersKey() string {
	return w.cfg.Key + ":instances"
}

func (w *Worker) instanceKey(id string) string {
	return w.cfg.Key + ":instance:" + id
}

// Setup makes one registration attempt. A failed attempt is retried from
// Tick after an exponential backoff, up to MaxRetries attempts in total, so
// an unreachable Redis never holds the tick thread for more than Timeout.
func (w *Worker) Setup() {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.cfg.RetryInterval

	w.mu.Lock()
	w.backoff = b
	w.attempts = 0
	w.retryIn = 0
	w.elapsed = 0
	w.mu.Unlock()

	w.register()
}

// register writes a heartbeat as a registration attempt and schedules the
// next retry if it failed and attempts remain.
func (w *Worker) register() {
	err := w.beat()

	w.mu.Lock()
	w.attempts++
	w.elapsed = 0
	w.registered = err == nil
	w.retryIn = 0
	retry := err != nil && w.attempts < w.cfg.MaxRetries
	if retry {
		w.retryIn = w.backoff.NextBackOff()
	}
	attempts, retryIn := w.attempts, w.retryIn
	w.mu.Unlock()

	switch {
	case err == nil:
		w.logger.Debug("heartbeat registered", zap.Uint("attempt", attempts))
	case retry:
		w.logger.Debug("heartbeat registration failed, retrying",
			zap.Uint("attempt", attempts),
			zap.Duration("retry_in", retryIn),
			zap.Error(err))
	default:
		w.logger.Warn("heartbeat registration failed",
			zap.Uint("attempts", attempts),
			zap.Error(tferrors.NewOperationError("heartbeat", "Register", err)))
	}
}

// Tick accumulates delta. While a registration retry is pending it retries
// once the backoff has elapsed; otherwise it writes a heartbeat once
// Interval is reached.
func (w *Worker) Tick(delta time.Duration) {
	w.mu.Lock()
	w.elapsed += delta
	retrying := w.retryIn > 0
	wait := w.cfg.Interval
	if retrying {
		wait = w.retryIn
	}
	due := w.elapsed >= wait
	if due {
		w.elapsed = 0
	}
	w.mu.Unlock()

	if !due {
		return
	}
	if retrying {
		w.register()
		return
	}

	err := w.beat()
	w.mu.Lock()
	w.registered = err == nil
	w.mu.Unlock()
	if err != nil {
		w.logger.Warn("heartbeat write failed", zap.Error(err))
	}
}

// RetryPending reports whether a registration retry is scheduled.
func (w *Worker) RetryPending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.retryIn > 0
}

// Shutdown removes the instance from Redis.
func (w *Worker) Shutdown() {
	ctx, cancel := tfcontext.WithOptionalTimeout(context.Background(), w.cfg.Timeout)
	defer cancel()

	pipe := w.cfg.Client.TxPipeline()
	pipe.SRem(ctx, w.membersKey(), w.cfg.InstanceID)
	pipe.Del(ctx, w.instanceKey(w.cfg.InstanceID))
	if _, err := pipe.Exec(ctx); err != nil {
		w.logger.Warn("heartbeat deregistration failed",
			zap.Error(tferrors.NewOperationError("heartbeat", "Deregister", err)))
	}

	w.mu.Lock()
	w.registered = false
	w.mu.Unlock()
}

// beat writes one heartbeat.
func (w *Worker) beat() error {
	ctx, cancel := tfcontext.WithOptionalTimeout(context.Background(), w.cfg.Timeout)
	defer cancel()

	pipe := w.cfg.Client.TxPipeline()
	pipe.SAdd(ctx, w.membersKey(), w.cfg.InstanceID)
	pipe.Expire(ctx, w.membersKey(), w.cfg.TTL)
	pipe.Set(ctx, w.instanceKey(w.cfg.InstanceID), time.Now().UTC().Format(time.RFC3339Nano), w.cfg.TTL)
	_, err := pipe.Exec(ctx)

	result := tfcontext.Outcome(ctx, err)
	if err != nil {
		w.failures.Add(1)
	} else {
		w.writes.Add(1)
	}
	if w.cfg.Metrics != nil {
		w.cfg.Metrics.HeartbeatWrites.WithLabelValues(result).Inc()
	}
	return err
}

// Registered reports whether the last write succeeded.
func (w *Worker) Registered() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.registered
}

// Writes returns the number of successful heartbeat writes.
func (w *Worker) Writes() int64 { return w.writes.Load() }

// Failures returns the number of failed heartbeat writes.
func (w *Worker) Failures() int64 { return w.failures.Load() }

// Instances lists the instances whose heartbeat key has not expired.
// Members whose key is gone are removed from the set.
func (w *Worker) Instances(ctx context.Context) ([]string, error) {
	members, err := w.cfg.Client.SMembers(ctx, w.membersKey()).Result()
	if err != nil {
		return nil, tferrors.NewOperationError("heartbeat", "Instances", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	pipe := w.cfg.Client.Pipeline()
	exists := make([]*redis.IntCmd, len(members))
	for i, id := range members {
		exists[i] = pipe.Exists(ctx, w.instanceKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, tferrors.NewOperationError("heartbeat", "Instances", err)
	}

	live := make([]string, 0, len(members))
	var stale []interface{}
	for i, id := range members {
		if exists[i].Val() > 0 {
			live = append(live, id)
		} else {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if err := w.cfg.Client.SRem(ctx, w.membersKey(), stale...).Err(); err != nil {
			w.logger.Debug("pruning stale instances failed", zap.Error(err))
		}
	}
	return live, nil
}
