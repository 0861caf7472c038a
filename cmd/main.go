package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"co2_ampel/internal/button"
	"co2_ampel/internal/clock"
	"co2_ampel/internal/config"
	"co2_ampel/internal/hal"
	"co2_ampel/internal/handlers"
	"co2_ampel/internal/indicator"
	"co2_ampel/internal/logger"
	"co2_ampel/internal/repository"
	"co2_ampel/internal/repository/db"
	"co2_ampel/internal/sensor"
	"co2_ampel/internal/server"
	"co2_ampel/internal/service"
	"co2_ampel/internal/uplink"

	"github.com/tarm/serial"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config.yml (default configs/config.yml)")
	hashPassword := flag.String("hash-password", "", "print the bcrypt hash for auth.password_hash and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := service.HashPassword(*hashPassword)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.GetTo(cfg.Log.Level, openConsole(cfg.Log))
	defer func() { _ = log.Sync() }()

	// peripherals
	dev, err := hal.Open(cfg, log)
	if err != nil {
		log.Fatalw("failed to open hardware", "err", err)
	}
	log.Infow("hardware ready", "simulated", dev.Simulated, "location", cfg.Location)

	// open DB
	sqlDB, err := openDB(cfg.DB.Path, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	up, closeUplink := openUplink(cfg, dev.Station, log)
	defer closeUplink()

	// wire dependencies
	clk := clock.NewMonotonic(cfg.Hardware.ClockOffsetMS)
	mailbox := button.NewMailbox(button.DefaultCapacity)
	defer mailbox.Close()

	// the controller loop must not wait on the shared sqlite connection
	sqlRepos := repository.NewRepository(sqlDB)
	store := repository.NewWriteBehind(sqlRepos.StateRepo, sqlRepos.EventRepo, 0, log.Named("store"))
	repos := store.Wrap(sqlRepos)
	services := service.NewService(repos, service.Deps{
		Clock:   clk,
		Sensor:  sensor.NewGateway(dev.Sensor, log.Named("sensor")),
		Display: indicator.NewRenderer(dev.Strip, uint8(cfg.Hardware.Brightness), log.Named("pixel")),
		Uplink:  up,
		Mailbox: mailbox,
		Timings: service.Timings{
			WarmupMS:          cfg.Timing.WarmupMS,
			ZeroCalibrationMS: cfg.Timing.ZeroCalibrationMS,
			SampleIntervalMS:  cfg.Timing.SampleIntervalMS,
		},
		Auth: cfg.Auth,
		Log:  log,
	})

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := services.Authorization.Seed(ctx); err != nil {
		log.Fatalw("failed to seed operator", "err", err)
	}

	storeDone := make(chan struct{})
	go func() {
		defer close(storeDone)
		store.Run(ctx)
	}()

	startButtonSources(ctx, dev, clk, mailbox, log)

	// the controller owns the pixel; wait for it to switch off before closing
	controllerDone := make(chan struct{})
	go func() {
		defer close(controllerDone)
		services.Controller.Run(ctx, cfg.Timing.Frame)
	}()

	var srv *server.Server
	if cfg.HTTP.Enabled {
		srv = &server.Server{}
		apiHandler := handlers.NewHandler(services, log.Named("http"), cfg.HTTP)
		runHTTPServer(srv, cfg.HTTP.Port, apiHandler, log)
	}

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
	<-controllerDone
	<-storeDone
	if err := dev.Close(); err != nil {
		log.Errorw("failed to close hardware", "err", err)
	}
}

// openConsole opens the serial diagnostic console. Failures fall back to stdout.
func openConsole(cfg config.LogConfig) io.Writer {
	if cfg.Console == "" {
		return nil
	}
	port, err := serial.OpenPort(&serial.Config{Name: cfg.Console, Baud: cfg.ConsoleBaud})
	if err != nil {
		fmt.Fprintf(os.Stderr, "serial console %s unavailable, logging to stdout: %v\n", cfg.Console, err)
		return nil
	}
	return port
}

// openDB initializes the SQLite journal. An empty path keeps it in memory.
func openDB(path string, log *logger.Logger) (*sql.DB, error) {
	if path == "" {
		log.Infow("db.path not set in config; journal kept in memory")
		path = config.MemoryDSN
	}
	return db.InitDB(path)
}

// openUplink builds the publication path. Without a database URL the device
// runs in light only mode.
func openUplink(cfg *config.Config, station uplink.Station, log *logger.Logger) (*uplink.Uplink, func()) {
	if !cfg.UplinkConfigured() {
		if len(cfg.Wifi.AccessPoints) > 0 {
			log.Infow("wifi access points configured without a database; uplink disabled")
		}
		return uplink.NewDisabled(), func() {}
	}
	influx, err := uplink.NewInflux(cfg.InfluxDB, cfg.Location)
	if err != nil {
		log.Fatalw("failed to create influxdb client", "err", err)
	}
	return uplink.New(cfg.Wifi.AccessPoints, station, influx, log.Named("uplink")), func() {
		if err := influx.Close(); err != nil {
			log.Errorw("failed to close influxdb client", "err", err)
		}
	}
}

// startButtonSources feeds the mailbox from the GPIO button and SIGUSR1.
func startButtonSources(ctx context.Context, dev *hal.Devices, clk clock.Clock, mb *button.Mailbox, log *logger.Logger) {
	if dev.Button != nil {
		if err := button.WatchPin(ctx, dev.Button, clk, mb, log); err != nil {
			log.Errorw("button disabled", "err", err)
		}
	}
	button.WatchSignal(ctx, clk, mb, log)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down...")

	// stop background goroutines
	cancel()

	if srv == nil {
		return
	}
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
