// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/shashwatxx/zebra-printer-utility/internal/config"
	"github.com/shashwatxx/zebra-printer-utility/internal/discovery"
	btsource "github.com/shashwatxx/zebra-printer-utility/internal/discovery/bluetooth"
	netsource "github.com/shashwatxx/zebra-printer-utility/internal/discovery/network"
	"github.com/shashwatxx/zebra-printer-utility/internal/events"
	"github.com/shashwatxx/zebra-printer-utility/internal/handler"
	"github.com/shashwatxx/zebra-printer-utility/internal/printer"
	"github.com/shashwatxx/zebra-printer-utility/internal/registry"
	"github.com/shashwatxx/zebra-printer-utility/internal/routes"
	"github.com/shashwatxx/zebra-printer-utility/internal/storage"
	"github.com/shashwatxx/zebra-printer-utility/internal/transport"
	"github.com/shashwatxx/zebra-printer-utility/internal/utils"
)

var version = "dev"

// Application holds the assembled service and its lifecycle dependencies.
type Application struct {
	cfg        *config.Config
	logger     *zap.Logger
	service    *printer.Service
	reconciler *events.Reconciler
	server     *http.Server
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerOptions{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	app := newApplication(cfg, logger)
	app.run()
}

func newApplication(cfg *config.Config, logger *zap.Logger) *Application {
	reg := registry.New(logger)
	jobs := events.NewJobStore()
	reconciler := events.NewReconciler(reg, jobs, logger)

	bus := handler.NewEventBus(logger)
	reconciler.AddSink(bus)

	sources := []discovery.Source{
		btsource.NewScanner(logger),
		netsource.NewScanner(cfg.Discovery.BroadcastPort, cfg.Discovery.ProbeInterval, cfg.Discovery.ProbeRounds, logger),
	}
	coordinator := discovery.NewCoordinator(sources, reconciler, cfg.Discovery.SessionTimeout, logger)

	opener := transport.NewOpener(transport.OpenerConfig{
		ZebraTCPPort:    cfg.Printer.ZebraTCPPort,
		GenericTCPPort:  cfg.Printer.GenericTCPPort,
		BluetoothDevice: cfg.Printer.BluetoothDevice,
		BluetoothBaud:   cfg.Printer.BluetoothBaud,
	}, logger)

	manager := printer.NewManager(opener, reconciler, cfg.Printer.ConnectTimeout, cfg.Printer.DisconnectSettle, logger)
	executor := printer.NewExecutor(manager, printer.NewVerifierRegistry(), jobs, reconciler, cfg.Printer.PrintTimeout, logger)
	configurator := printer.NewConfigurator(manager, logger)
	store := storage.NewFileStore(cfg.Storage.Path, logger)

	service := printer.NewService(coordinator, manager, executor, configurator, reg, jobs, store, logger)

	router := routes.Setup(routes.Handlers{
		Printer:   handler.NewPrinterHandler(service, logger),
		WebSocket: handler.NewWebSocketHandler(bus, logger),
		Health:    handler.NewHealthHandler(version, bus),
	}, cfg.Server.CORSOrigins, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Application{
		cfg:        cfg,
		logger:     logger,
		service:    service,
		reconciler: reconciler,
		server:     server,
	}
}

func (a *Application) run() {
	a.reconciler.Start()

	if a.cfg.Printer.AutoReconnect {
		go func() {
			if err := a.service.Reconnect(context.Background()); err != nil {
				a.logger.Warn("Auto-reconnect failed", zap.Error(err))
			}
		}()
	}

	go func() {
		a.logger.Info("HTTP server starting",
			zap.String("address", a.server.Addr),
			zap.String("version", version))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	a.logger.Info("Shutdown signal received", zap.String("signal", sig.String()))

	a.shutdown()
}

func (a *Application) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	a.service.Shutdown()
	a.reconciler.Stop()

	a.logger.Info("Shutdown complete")
}
