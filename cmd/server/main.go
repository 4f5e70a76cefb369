package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"skyarena/internal/api"
	"skyarena/internal/broker"
	"skyarena/internal/command"
	"skyarena/internal/config"
	"skyarena/internal/game"
	"skyarena/internal/metrics"
)

func main() {
	issueToken := flag.String("issue-admin-token", "", "print an admin token for `subject` and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of tokens printed by -issue-admin-token")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	log.SetDefault(logger)

	// Load .env from the parent directory, then the working directory
	if err := godotenv.Load("../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			logger.Debug("no .env file found, using environment variables only")
		}
	}

	appConfig := config.Load()
	if level, err := log.ParseLevel(appConfig.Server.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warn("unknown LOG_LEVEL, using info", "value", appConfig.Server.LogLevel)
	}

	auth := api.NewAdminAuth(appConfig.Auth.JWTSecret)
	if *issueToken != "" {
		token, err := auth.IssueToken(*issueToken, *tokenTTL)
		if err != nil {
			logger.Fatal("cannot issue token", "err", err)
		}
		fmt.Println(token)
		return
	}

	if err := run(appConfig, auth, logger); err != nil {
		logger.Fatal("server exited", "err", err)
	}
}

func run(appConfig config.AppConfig, auth *api.AdminAuth, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	simCfg := appConfig.Sim
	world := game.NewWorld(simCfg,
		game.WithBots(appConfig.Bots),
		game.WithLimits(appConfig.Limits),
		game.WithLogger(logger.WithPrefix("world")),
	)
	logger.Info("world ready",
		"tickRate", simCfg.TickRate, "worldSize", simCfg.WorldSize,
		"maxPlayers", appConfig.Limits.MaxPlayers, "maxProjectiles", appConfig.Limits.MaxProjectiles,
		"broadPhase", simCfg.BroadPhase)

	eventLog := game.NewEventLog(logger)
	if err := eventLog.Start(appConfig.Server.EventLogPath); err != nil {
		logger.Warn("event log disabled", "err", err)
	}
	defer eventLog.Stop()

	handler := command.NewHandler(world, command.RateLimitConfig{
		PerSecond: appConfig.Limits.InputRatePerSecond,
		Burst:     appConfig.Limits.InputBurst,
	}, logger)
	defer handler.Stop()

	queue := command.NewQueue(handler, command.DefaultQueueConfig())
	queue.Start()
	defer queue.Stop()

	server := api.NewServer(api.ServerConfig{
		World:       world,
		Commands:    queue,
		CORSOrigins: appConfig.Server.CORSOrigins,
		Auth:        auth,
		Logger:      logger,
	})
	if !auth.Enabled() {
		logger.Warn("admin auth disabled: set ADMIN_JWT_SECRET to protect POST /api/mode")
	}

	publishers := game.MultiPublisher{server.Hub(), eventLog}
	if appConfig.Broker.NATSURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		natsPub, err := broker.Connect(connectCtx, appConfig.Broker, logger)
		cancel()
		if err != nil {
			logger.Warn("event broker disabled", "err", err)
		} else {
			defer natsPub.Close()
			publishers = append(publishers, natsPub)
		}
	}

	scheduler := game.NewScheduler(world, publishers)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	debugSrv := metrics.StartDebugServer(metrics.DebugServerConfig{
		Enabled:    appConfig.Observability.Enabled,
		ListenAddr: appConfig.Observability.ListenAddr,
	}, logger.WithPrefix("debug"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx, ":"+strconv.Itoa(appConfig.Server.Port))
	}()

	logger.Info("server ready", "port", appConfig.Server.Port)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
	if debugSrv != nil {
		debugSrv.Shutdown(shutdownCtx)
	}
	return nil
}
