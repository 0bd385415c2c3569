package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apiserver "github.com/healthbridge/claims-reporter/internal/api_server"
	"github.com/healthbridge/claims-reporter/internal/artifact"
	"github.com/healthbridge/claims-reporter/internal/config"
	"github.com/healthbridge/claims-reporter/internal/events"
	"github.com/healthbridge/claims-reporter/internal/jobs"
	"github.com/healthbridge/claims-reporter/internal/notifier"
	"github.com/healthbridge/claims-reporter/internal/service"
	"github.com/healthbridge/claims-reporter/internal/store"
	"github.com/healthbridge/claims-reporter/pkg/log"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the claims reporter service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}

		logLvl, err := zap.ParseAtomicLevel(cfg.Service.LogLevel)
		if err != nil {
			logLvl = zap.NewAtomicLevelAt(zap.InfoLevel)
		}

		logger := log.InitLog(logLvl)
		defer func() { _ = logger.Sync() }()

		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Info("Starting claims reporter service")
		defer zap.S().Info("Claims reporter service stopped")

		db, err := store.InitDB(cfg)
		if err != nil {
			return fmt.Errorf("initializing data store: %w", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if err := s.InitialMigration(); err != nil {
			return fmt.Errorf("running initial migration: %w", err)
		}

		artifacts, err := newArtifactStore(cfg)
		if err != nil {
			return fmt.Errorf("initializing artifact store: %w", err)
		}
		zap.S().Infof("artifact store: '%s'", artifacts.Type())

		producer := events.NewEventProducer(&events.StdoutWriter{})
		defer func() { _ = producer.Close() }()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		worker := jobs.NewReportWorker(s, artifacts, notifier.New(s), producer, cfg.Service.JobTimeout)
		queue := jobs.NewQueue(worker, cfg.Service.WorkerCount, cfg.Service.QueueSize)
		queue.Start(ctx)
		defer queue.Stop()

		reaper := jobs.NewReaper(s, cfg.Service.LeaseDuration)
		go reaper.Run(ctx)

		reportSrv := service.NewReportService(s, queue, artifacts)
		if err := reportSrv.RequeuePending(ctx); err != nil {
			zap.S().Warnw("failed to requeue pending jobs", "error", err)
		}

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Fatalf("creating listener: %s", err)
			}

			server := apiserver.New(cfg, reportSrv, listener)
			if err := server.Run(ctx); err != nil {
				zap.S().Fatalf("Error running server: %s", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				zap.S().Fatalf("creating listener: %s", err)
			}

			metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener)
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Fatalf("Error running metrics server: %s", err)
			}
		}()

		<-ctx.Done()
		return nil
	},
}

func newArtifactStore(cfg *config.Config) (artifact.Store, error) {
	if cfg.Artifact.Type == "minio" {
		return artifact.NewMinioStore(
			artifact.WithEndpoint(cfg.Artifact.Endpoint),
			artifact.WithBucket(cfg.Artifact.Bucket),
			artifact.WithAccessKey(cfg.Artifact.AccessKey),
			artifact.WithSecretKey(cfg.Artifact.SecretAccessKey),
		)
	}
	return artifact.NewFilesystemStore(cfg.Artifact.Directory)
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
