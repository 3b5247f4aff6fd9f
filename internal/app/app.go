// Package app wires configuration, storage, business steps and the HTTP,
// gRPC and scheduler surfaces into one process.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"bizflow/internal/adapter/grpcx"
	"bizflow/internal/adapter/httpapi"
	"bizflow/internal/adapter/scheduler"
	"bizflow/internal/biz"
	"bizflow/internal/config"
	"bizflow/internal/inventory"
	"bizflow/internal/platform/logger"
	"bizflow/internal/platform/metrics"
)

const (
	shutdownTimeout = 10 * time.Second
	lowStockTimeout = 30 * time.Second
	limiterIdle     = time.Hour
	limiterPrune    = "@every 10m"
)

// App wires application components.
type App struct {
	cfg config.Config
	log *slog.Logger
}

// New loads configuration and builds the logger.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Options{
		Env:          cfg.Env,
		ConsoleLevel: cfg.Log.ConsoleLevel,
		FileLevel:    cfg.Log.FileLevel,
		File:         cfg.Log.File,
		App:          "bizflow",
	})
	return &App{cfg: cfg, log: log}, nil
}

// Run serves until SIGINT or SIGTERM, then shuts every surface down.
func (a *App) Run() error {
	defer func() { _ = logger.Close(a.log) }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.log.Info("starting", slog.String("env", a.cfg.Env), slog.String("db", a.cfg.DB.Driver))

	st, err := openStorage(ctx, a.cfg, a.log)
	if err != nil {
		return err
	}
	defer st.close()

	m := metrics.New()
	svc := inventory.NewService(st.repo, a.log,
		inventory.WithTransactor(st.tx),
		inventory.WithReportHook(func(_ context.Context, r biz.Report) {
			m.ObserveChain(r.Chain, r.Outcome.String())
		}))

	var limiter *httpapi.RateLimiter
	if a.cfg.HTTP.RateLimit > 0 {
		limiter = httpapi.NewRateLimiter(a.cfg.HTTP.RateLimit, a.cfg.HTTP.RateBurst)
	}

	sched, err := a.newScheduler(svc, m, limiter)
	if err != nil {
		return err
	}

	if a.cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	httpSrv := &http.Server{
		Addr: a.cfg.HTTP.Addr,
		Handler: httpapi.NewRouter(svc, httpapi.Options{
			Logger:  a.log.With("component", "http"),
			Tokens:  a.cfg.HTTP.Tokens,
			Health:  st.health,
			Metrics: m,
			Limiter: limiter,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 2)
	go func() {
		a.log.Info("http listening", slog.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	var (
		grpcSrv *grpc.Server
		hs      *health.Server
	)
	if a.cfg.GRPC.Addr != "" {
		lis, err := net.Listen("tcp", a.cfg.GRPC.Addr)
		if err != nil {
			return err
		}
		grpcSrv, hs = grpcx.NewServer(a.log.With("component", "grpc"))
		grpcx.RegisterInventory(grpcSrv, svc)
		go func() {
			a.log.Info("grpc listening", slog.String("addr", a.cfg.GRPC.Addr))
			if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errc <- err
			}
		}()
	}

	sched.Start()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown requested")
	case runErr = <-errc:
		a.log.Error("server failed", slog.Any("error", runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		a.log.Warn("scheduler stop", slog.Any("error", err))
	}
	if grpcSrv != nil {
		hs.Shutdown()
		grpcSrv.GracefulStop()
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("http shutdown", slog.Any("error", err))
	}
	a.log.Info("stopped")
	return runErr
}

func (a *App) newScheduler(svc *inventory.Service, m *metrics.Metrics, limiter *httpapi.RateLimiter) (*scheduler.Scheduler, error) {
	log := a.log.With("component", "scheduler")
	s := scheduler.New(scheduler.Config{Logger: log, Hooks: scheduler.Hooks{OnFinish: m.ObserveJob}})
	_, err := s.Add(a.cfg.LowStock.Schedule,
		scheduler.LowStockJob(svc, int64(a.cfg.LowStock.Threshold), log),
		scheduler.JobOptions{Name: "low-stock", Timeout: lowStockTimeout, Overlap: scheduler.SkipIfRunning},
	)
	if err != nil {
		return nil, err
	}
	if limiter != nil {
		_, err = s.Add(limiterPrune, func(context.Context) error {
			if n := limiter.Prune(limiterIdle); n > 0 {
				log.Debug("rate limiter pruned", slog.Int("clients", n))
			}
			return nil
		}, scheduler.JobOptions{Name: "rate-limit-prune", Overlap: scheduler.SkipIfRunning})
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}
