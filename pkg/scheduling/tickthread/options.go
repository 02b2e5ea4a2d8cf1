package tickthread

import (
	"time"

	"go.uber.org/zap"

	"github.com/vnykmshr/tickflow/pkg/metrics"
)

// Clock supplies the timestamps used to compute tick deltas.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type options struct {
	name    string
	logger  *zap.Logger
	metrics *metrics.Registry
	clock   Clock
}

// Option configures a Thread.
type Option func(*options)

// WithName sets the thread name used in logs and metrics.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the thread logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(reg *metrics.Registry) Option {
	return func(o *options) { o.metrics = reg }
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}
