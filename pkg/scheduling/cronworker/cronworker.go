package cronworker

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	tferrors "github.com/vnykmshr/tickflow/pkg/common/errors"
	"github.com/vnykmshr/tickflow/pkg/common/validation"
	"github.com/vnykmshr/tickflow/pkg/scheduling/future"
	"github.com/vnykmshr/tickflow/pkg/scheduling/tickthread"
	"github.com/vnykmshr/tickflow/pkg/scheduling/workerpool"
)

// parser accepts an optional leading seconds field and descriptors such as
// "@hourly" or "@every 30s".
var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate reports whether expr is a valid cron expression.
func Validate(expr string) error {
	if _, err := parser.Parse(expr); err != nil {
		return tferrors.NewValidationError("cronworker", "expression", expr, err.Error()).
			WithHint(`use "sec min hour dom month dow", five fields, or a descriptor like "@every 5s"`)
	}
	return nil
}

// Worker is a tick worker that submits a job to a pool every time its cron
// schedule fires. Activation times are checked on every tick, so the tick
// thread's rest time bounds the scheduling precision.
type Worker struct {
	tickthread.BaseWorker

	id       string
	expr     string
	schedule cron.Schedule
	job      func()
	pool     *workerpool.Pool
	opts     options
	logger   *zap.Logger

	mu   sync.Mutex
	next time.Time
	runs int
	last *future.Future
}

// New creates a cron worker for job. The worker is inert until admitted to
// a tick thread.
func New(id, expr string, pool *workerpool.Pool, job func(), opts ...Option) (*Worker, error) {
	if err := validation.ValidateNotEmpty("cronworker", "id", id); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotNil("cronworker", "pool", pool); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotNil("cronworker", "job", job); err != nil {
		return nil, err
	}
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, tferrors.NewValidationError("cronworker", "expression", expr, err.Error())
	}

	o := options{clock: realClock{}, location: time.Local}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	return &Worker{
		id:       id,
		expr:     expr,
		schedule: schedule,
		job:      job,
		pool:     pool,
		opts:     o,
		logger:   o.logger.Named("cronworker").With(zap.String("job_id", id)),
	}, nil
}

// Setup computes the first activation time.
func (w *Worker) Setup() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.next = w.schedule.Next(w.now())
	w.logger.Debug("cron worker armed", zap.String("expression", w.expr), zap.Time("next", w.next))
}

// Tick submits the job when the activation time has passed.
func (w *Worker) Tick(delta time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if w.next.IsZero() || now.Before(w.next) {
		return
	}
	if w.opts.maxRuns > 0 && w.runs >= w.opts.maxRuns {
		w.next = time.Time{}
		w.logger.Debug("cron worker reached max runs", zap.Int("runs", w.runs))
		return
	}
	w.next = w.schedule.Next(now)

	if w.opts.skipIfStillRunning && w.last.IsValid() && !w.last.IsReady() {
		w.skip("previous run still in progress")
		return
	}

	f := w.pool.Submit(w.job, nil)
	if !f.IsValid() {
		w.skip("pool unavailable")
		return
	}
	w.last = f
	w.runs++
	if w.opts.metrics != nil {
		w.opts.metrics.CronRuns.WithLabelValues(w.id).Inc()
	}
}

func (w *Worker) skip(reason string) {
	if w.opts.metrics != nil {
		w.opts.metrics.CronSkipped.WithLabelValues(w.id).Inc()
	}
	w.logger.Debug("cron run skipped", zap.String("reason", reason))
	if w.opts.onSkip != nil {
		w.opts.onSkip(w.id, reason)
	}
}

// Shutdown disarms the worker.
func (w *Worker) Shutdown() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.next = time.Time{}
}

func (w *Worker) now() time.Time {
	return w.opts.clock.Now().In(w.opts.location)
}

// ID returns the job id.
func (w *Worker) ID() string { return w.id }

// Expression returns the cron expression.
func (w *Worker) Expression() string { return w.expr }

// Runs returns how many times the job was submitted.
func (w *Worker) Runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// Next returns the next activation time, or the zero time when disarmed.
func (w *Worker) Next() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.next
}

// LastRun returns the future of the most recent submission, or nil.
func (w *Worker) LastRun() *future.Future {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

func (w *Worker) String() string {
	return fmt.Sprintf("cronworker(%s, %q)", w.id, w.expr)
}
