package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/symptom-scout/cmd/mainconfig"
	"github.com/wolfman30/symptom-scout/internal/app/bootstrap"
	appconfig "github.com/wolfman30/symptom-scout/internal/config"
	"github.com/wolfman30/symptom-scout/pkg/logging"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, appconfig.Load()); err != nil {
		fmt.Fprintln(os.Stderr, "symptom-scout:", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

func run(ctx context.Context, cfg *appconfig.Config) error {
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting symptom-scout API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	app, err := bootstrap.BuildApp(ctx, cfg, logger, bootstrap.Deps{
		Registerer: prometheus.DefaultRegisterer,
		LoadAWS: func(ctx context.Context) (aws.Config, error) {
			return mainconfig.LoadAWSConfig(ctx, cfg)
		},
	})
	if err != nil {
		logger.Error("failed to build application", "error", err)
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to release resources", "error", err)
		}
	}()
	logger.Info("application wired",
		"llm_provider", app.Provider,
		"email_delivery", app.EmailDelivery,
		"session_store", cfg.SessionStore,
	)

	done := make(chan struct{})
	defer close(done)
	srv := bootstrap.NewHTTPServer(cfg, app, nil, logger, done)
	return bootstrap.Serve(ctx, srv, logger)
}
