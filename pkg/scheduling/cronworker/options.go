package cronworker

import (
	"time"

	"go.uber.org/zap"

	"github.com/vnykmshr/tickflow/pkg/metrics"
	"github.com/vnykmshr/tickflow/pkg/scheduling/tickthread"
)

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type options struct {
	clock              tickthread.Clock
	location           *time.Location
	logger             *zap.Logger
	metrics            *metrics.Registry
	maxRuns            int
	skipIfStillRunning bool
	onSkip             func(id, reason string)
}

// Option configures a Worker.
type Option func(*options)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c tickthread.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLocation sets the time zone the expression is evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

// WithLogger sets the worker logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics enables run and skip counters.
func WithMetrics(reg *metrics.Registry) Option {
	return func(o *options) { o.metrics = reg }
}

// WithMaxRuns disarms the worker after n submissions. Zero means unlimited.
func WithMaxRuns(n int) Option {
	return func(o *options) { o.maxRuns = n }
}

// WithSkipIfStillRunning skips an activation while the previous run has
// not finished.
func WithSkipIfStillRunning() Option {
	return func(o *options) { o.skipIfStillRunning = true }
}

// WithOnSkip is called for every skipped activation.
func WithOnSkip(fn func(id, reason string)) Option {
	return func(o *options) { o.onSkip = fn }
}
