package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fieldsync/internal/config"
	"fieldsync/internal/daemon"
	"fieldsync/internal/ipc"
	"fieldsync/internal/logging"
	"fieldsync/internal/netmon"
	"fieldsync/internal/notifications"
	"fieldsync/internal/queue"
	"fieldsync/internal/syncer"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if !runPreflight(ctx, cfg, logger) {
		os.Exit(1)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		os.Exit(1)
	}

	manager := queue.NewManager(ctx, store, logger)
	monitor := netmon.New(cfg, logger)
	notifier := notifications.NewService(cfg)

	registry, err := buildRegistry(cfg)
	if err != nil {
		logger.Error("wire uploaders", logging.Error(err))
		os.Exit(1)
	}
	scheduler := syncer.New(cfg, manager, registry, monitor, notifier, logger)

	d, err := daemon.New(cfg, store, manager, monitor, scheduler, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		os.Exit(1)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("fieldsyncd shutting down")
}
