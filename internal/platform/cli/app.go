package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"passwordCrackerEngine/internal/adapter/db"
	"passwordCrackerEngine/internal/adapter/hash"
	"passwordCrackerEngine/internal/adapter/logging"
	"passwordCrackerEngine/internal/config"
	"passwordCrackerEngine/internal/core/service"
	"passwordCrackerEngine/internal/pkg/events"
	"passwordCrackerEngine/internal/pkg/metrics"
	"passwordCrackerEngine/internal/platform/web"
	"passwordCrackerEngine/internal/port"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app is everything a command needs to run sessions: the store, the service
// and the optional status server and run report.
type app struct {
	opts     *RootOptions
	repo     port.Repository
	svc      *service.CrackingService
	registry *prometheus.Registry
	reporter *metrics.Reporter
	server   *web.Server
}

func openApp(opts *RootOptions) (*app, error) {
	cfg := opts.Config
	repo, err := openStore(cfg.Store, opts)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to open session store", err)
	}
	a := &app{opts: opts, repo: repo, registry: prometheus.NewRegistry()}

	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observer := events.Multi(
		logging.NewObserver(opts.Logger, logging.Options{}),
		metrics.NewEngineMetrics(a.registry),
	)

	svcOpts := []service.Option{service.WithCollector(metrics.NewCollector(cfg.Metrics.SampleInterval))}
	if cfg.Metrics.ReportPath != "" {
		a.reporter, err = metrics.NewReporter(cfg.Metrics.ReportPath)
		if err != nil {
			a.close()
			return nil, WrapExitError(ExitFailure, "failed to open run report", err)
		}
		svcOpts = append(svcOpts, service.WithReporter(a.reporter))
	}

	targets := func(path string) port.TargetOpener { return hash.NewFileTarget(path) }
	a.svc = service.NewCrackingService(repo, targets, cfg.RunSettings(), observer, svcOpts...)
	return a, nil
}

func openStore(cfg config.StoreConfig, opts *RootOptions) (port.Repository, error) {
	switch cfg.Driver {
	case config.DriverBadger:
		return db.NewBadgerRepository(db.BadgerConfig{Path: cfg.Path, Logger: opts.Logger.With("component", "badger")})
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
		return db.NewSQLiteRepository(cfg.GetDSN())
	}
}

// serveStatus starts the status API when an address is configured.
func (a *app) serveStatus() error {
	addr := a.opts.Config.Status.Addr
	if addr == "" {
		return nil
	}
	router := web.NewRouter(web.NewWebHandler(a.svc), a.registry, a.opts.Logger)
	a.server = web.NewServer(addr, router, a.opts.Logger)
	if _, err := a.server.Start(); err != nil {
		return WrapExitError(ExitFailure, "failed to start status server", err)
	}
	return nil
}

func (a *app) close() error {
	var errs []error
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		errs = append(errs, a.server.Shutdown(ctx))
		cancel()
	}
	if a.reporter != nil {
		errs = append(errs, a.reporter.Close())
	}
	errs = append(errs, a.repo.Close())
	return errors.Join(errs...)
}
