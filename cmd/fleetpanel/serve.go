package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/silverlode/fleetpanel/internal/api"
	"github.com/silverlode/fleetpanel/internal/async"
	"github.com/silverlode/fleetpanel/internal/bootstrap"
	"github.com/silverlode/fleetpanel/internal/config"
	"github.com/silverlode/fleetpanel/internal/job"
	"github.com/silverlode/fleetpanel/internal/migrations"
	"github.com/silverlode/fleetpanel/internal/repository/sqlite"
	"github.com/silverlode/fleetpanel/internal/service"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the fleetpanel server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	db, err := bootstrap.OpenSQLite(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.Up(db); err != nil {
		return err
	}

	infra, err := bootstrap.BuildInfrastructure(ctx, cfg, db, logger)
	if err != nil {
		return err
	}

	store := sqlite.NewStore(db)

	// 写操作产生的通知先进内存队列，由后台任务批量投递。
	queue := async.NewNotificationQueue()
	queueNotifier := async.NewQueueNotifier(queue)

	adminSvc := service.NewAdminService(store.Admins(), store.Users(), infra.Hasher, queueNotifier, logger)
	userSvc := service.NewUserService(store.Users(), store.Admins(), store.Usage(), logger)
	usageSvc := service.NewUsageService(store.Users(), store.Admins(), store.Nodes(), store.Usage(), logger)
	nodeSvc := service.NewNodeService(store.Nodes(), logger)
	systemSvc := service.NewSystemService(store.Stats(), nil, logger, func() int64 { return time.Now().Unix() })

	scheduler := job.NewScheduler(logger)
	if _, err := scheduler.Register(cfg.Heartbeat.SweepSpec, job.NewNodeHeartbeatTask(nodeSvc, cfg.Heartbeat.Silence, logger)); err != nil {
		return err
	}
	flushSpec := "@every " + cfg.Notify.FlushInterval.String()
	if _, err := scheduler.Register(flushSpec, job.NewSendWebhookTask(queue, infra.Notifier, logger)); err != nil {
		return err
	}
	if _, err := scheduler.Register(flushSpec, job.NewSendTelegramTask(queue, infra.Notifier, logger)); err != nil {
		return err
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	router := api.NewRouter(
		api.Services{
			Admin:  adminSvc,
			User:   userSvc,
			Node:   nodeSvc,
			Usage:  usageSvc,
			System: systemSvc,
		},
		api.Dependencies{
			Config:  cfg,
			Logger:  logger,
			Tokens:  infra.Token,
			Cache:   infra.Cache,
			Limiter: infra.RateLimiter,
			Audit:   infra.Audit,
		},
	)

	server := bootstrap.NewHTTPServer(cfg, router)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
