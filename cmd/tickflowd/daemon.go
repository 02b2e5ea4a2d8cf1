package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vnykmshr/tickflow/internal/config"
	tferrors "github.com/vnykmshr/tickflow/pkg/common/errors"
	"github.com/vnykmshr/tickflow/pkg/dispatch"
	"github.com/vnykmshr/tickflow/pkg/heartbeat"
	"github.com/vnykmshr/tickflow/pkg/metrics"
	"github.com/vnykmshr/tickflow/pkg/scheduling/cronworker"
	"github.com/vnykmshr/tickflow/pkg/scheduling/registry"
	"github.com/vnykmshr/tickflow/pkg/scheduling/tickthread"
	"github.com/vnykmshr/tickflow/pkg/scheduling/workerpool"
)

// daemon owns every thread, pool and worker it creates; the registry only
// hands out handles.
type daemon struct {
	cfg    *config.Config
	logger *zap.Logger

	promReg *prometheus.Registry
	metrics *metrics.Registry
	manager *registry.Manager
	queue   *dispatch.Queue

	threads map[string]*tickthread.Thread
	pools   map[string]*workerpool.Pool

	crons     []*cronworker.Worker
	heartbeat *heartbeat.Worker
	redis     redis.UniversalClient
	stats     *statsWorker

	server *http.Server
}

func newDaemon(cfg *config.Config, logger *zap.Logger, statsInterval time.Duration) (*daemon, error) {
	d := &daemon{
		cfg:     cfg,
		logger:  logger,
		threads: make(map[string]*tickthread.Thread, len(cfg.Threads)),
		pools:   make(map[string]*workerpool.Pool, len(cfg.Pools)),
	}

	if cfg.Metrics.Enabled {
		d.promReg = prometheus.NewRegistry()
		d.promReg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		d.metrics = metrics.Config{Enabled: true, Registry: d.promReg}.Build()
	}

	d.manager = registry.NewManager(registry.WithLogger(logger), registry.WithMetrics(d.metrics))
	d.queue = dispatch.NewQueue(
		dispatch.WithName("main"),
		dispatch.WithLogger(logger),
		dispatch.WithMetrics(d.metrics),
	)

	for _, tc := range cfg.Threads {
		h, th, err := d.manager.CreateThread(tc.RestTime, tickthread.WithName(tc.Name))
		if err != nil {
			return nil, err
		}
		d.threads[tc.Name] = th
		logger.Info("tick thread configured",
			zap.String("thread", tc.Name), zap.Int("handle", h), zap.Duration("rest_time", tc.RestTime))
	}

	for _, pc := range cfg.Pools {
		opts := []workerpool.Option{workerpool.WithName(pc.Name)}
		if pc.QueueSize > 0 {
			opts = append(opts, workerpool.WithQueueSize(pc.QueueSize))
		}
		h, p := d.manager.CreatePool(pc.Workers, opts...)
		d.pools[pc.Name] = p
		logger.Info("worker pool configured",
			zap.String("pool", pc.Name), zap.Int("handle", h), zap.Int("workers", pc.Workers))
	}

	for _, jc := range cfg.Cron {
		w, err := cronworker.New(jc.ID, jc.Schedule, d.pools[jc.Pool], d.cronJob(jc),
			cronworker.WithLogger(logger),
			cronworker.WithMetrics(d.metrics),
			cronworker.WithSkipIfStillRunning(),
		)
		if err != nil {
			return nil, tferrors.NewOperationError("tickflowd", "CreateCron", err).WithContext(jc.ID)
		}
		d.crons = append(d.crons, w)
	}

	if hc := cfg.Heartbeat; hc.Enabled {
		d.redis = redis.NewClient(&redis.Options{Addr: hc.RedisAddr})
		hcfg := heartbeat.DefaultConfig()
		hcfg.Client = d.redis
		if hc.Key != "" {
			hcfg.Key = hc.Key
		}
		hcfg.Interval = hc.Interval
		hcfg.TTL = hc.TTL
		hcfg.Logger = logger
		hcfg.Metrics = d.metrics

		hb, err := heartbeat.New(hcfg)
		if err != nil {
			_ = d.redis.Close()
			return nil, err
		}
		d.heartbeat = hb
	}

	if statsInterval > 0 && len(cfg.Threads) > 0 {
		d.stats = newStatsWorker(statsInterval, d.queue)
		d.stats.event.Subscribe(d.logStats)
	}

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(d.promReg, promhttp.HandlerOpts{Registry: d.promReg}))
		mux.HandleFunc("/health", d.handleHealth)
		d.server = &http.Server{
			Addr:         cfg.Metrics.Address,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
	}

	return d, nil
}

// cronJob builds the function a cron entry submits to its pool.
func (d *daemon) cronJob(jc config.CronJobConfig) func() {
	switch jc.Action {
	case config.ActionStats:
		return d.logStats
	default:
		msg := jc.Message
		if msg == "" {
			msg = "cron job fired"
		}
		return func() {
			d.logger.Info(msg, zap.String("job_id", jc.ID))
		}
	}
}

func (d *daemon) logStats() {
	s := d.manager.Stats()
	d.logger.Info("scheduler stats",
		zap.Int("threads", s.Threads),
		zap.Int("running_threads", s.RunningThreads),
		zap.Int("live_workers", s.LiveWorkers),
		zap.Int("pools", s.Pools),
		zap.Int("usable_pools", s.UsablePools),
		zap.Int("pool_workers", s.PoolWorkers),
		zap.Int("queued_jobs", s.QueuedJobs),
	)
}

// start launches every thread and admits the configured workers.
func (d *daemon) start() {
	for name, th := range d.threads {
		th.Start(func() {
			d.logger.Debug("tick loop running", zap.String("thread", name))
		})
	}

	for i, w := range d.crons {
		d.threads[d.cfg.Cron[i].Thread].AddWorker(tickthread.WeakRef(w))
	}
	if d.heartbeat != nil {
		d.threads[d.cfg.Heartbeat.Thread].AddWorker(tickthread.WeakRef(d.heartbeat))
	}
	if d.stats != nil {
		d.threads[d.cfg.Threads[0].Name].AddWorker(tickthread.WeakRef(d.stats))
	}

	if d.server != nil {
		go func() {
			d.logger.Info("serving metrics", zap.String("address", d.server.Addr))
			if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				d.logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}
}

// run starts the daemon and drives the dispatch queue until ctx is done.
func (d *daemon) run(ctx context.Context) error {
	d.start()
	d.logger.Info("tickflowd started",
		zap.Int("threads", len(d.threads)),
		zap.Int("pools", len(d.pools)),
		zap.Int("cron_jobs", len(d.crons)),
		zap.Bool("heartbeat", d.heartbeat != nil))

	d.queue.Run(ctx, d.cfg.Dispatch.Interval)
	return d.shutdown()
}

// shutdown stops threads before pools so no worker submits into a closed
// pool, then releases external resources.
func (d *daemon) shutdown() error {
	d.logger.Info("shutting down")

	var errs []error
	if d.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := d.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server: %w", err))
		}
	}

	d.manager.Close()
	d.queue.DrainAndExecuteAll()

	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}

	d.logger.Info("shutdown complete")
	return errors.Join(errs...)
}

type healthResponse struct {
	Status   string         `json:"status"`
	Instance string         `json:"instance,omitempty"`
	Stats    registry.Stats `json:"stats"`
}

func (d *daemon) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Stats: d.manager.Stats()}
	if d.heartbeat != nil {
		resp.Instance = d.heartbeat.InstanceID()
	}
	if resp.Stats.UsablePools < resp.Stats.Pools {
		resp.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		d.logger.Warn("health response failed", zap.Error(err))
	}
}
