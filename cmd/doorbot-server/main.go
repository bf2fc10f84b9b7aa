package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/BrandonDHaskell/doorbot/internal/config"
	"github.com/BrandonDHaskell/doorbot/internal/db"
	"github.com/BrandonDHaskell/doorbot/internal/doorbot/service"
	"github.com/BrandonDHaskell/doorbot/internal/doorbot/store/sqlstore"
	"github.com/BrandonDHaskell/doorbot/internal/grpchealth"
	"github.com/BrandonDHaskell/doorbot/internal/httpapi"
	"github.com/BrandonDHaskell/doorbot/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "doorbot-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := config.NewFlagSet("doorbot-server")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if help, _ := fs.GetBool("help"); help {
		fmt.Fprintf(os.Stdout, "Usage of doorbot-server:\n%s", fs.FlagUsages())
		return nil
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Env:        cfg.Env,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DB())
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer database.Close()
	logger.Info("database ready",
		zap.String("backend", string(database.Backend())),
		zap.String("env", cfg.Env))

	if cfg.Env == "dev" && cfg.SeedDev {
		if err := db.SeedDev(ctx, database, db.SeedDevOptions{}); err != nil {
			return fmt.Errorf("seed dev: %w", err)
		}
		logger.Debug("dev seed applied")
	}

	// Stores
	members := sqlstore.NewMemberStore(database)
	entries := sqlstore.NewEntryLogStore(database)
	locations := sqlstore.NewLocationStore(database)

	// Services
	accessSvc := service.NewAccessService(members, entries, logger)
	memberSvc := service.NewMemberService(members, entries, locations, logger)

	if cfg.AdminTokenHash == "" {
		logger.Warn("admin.token_hash is empty; admin routes are unauthenticated")
	}

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:         logger,
		Addr:           cfg.HTTPAddr,
		AccessService:  accessSvc,
		MemberService:  memberSvc,
		Health:         database,
		AdminTokenHash: cfg.AdminTokenHash,
	})

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	// gRPC health
	var health *grpchealth.Server
	if cfg.GRPCHealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCHealthAddr)
		if err != nil {
			return fmt.Errorf("grpc health listen: %w", err)
		}
		health = grpchealth.New(database, logger)
		go func() {
			logger.Info("grpc health listening", zap.String("addr", cfg.GRPCHealthAddr))
			if err := health.Serve(lis); err != nil {
				logger.Error("grpc health server error", zap.Error(err))
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if health != nil {
		health.Stop()
	}
	return srv.Shutdown(shutdownCtx)
}
