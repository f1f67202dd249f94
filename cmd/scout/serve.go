package main

import (
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/wolfman30/symptom-scout/internal/app/bootstrap"
	"github.com/wolfman30/symptom-scout/pkg/logging"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket chat server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.loadConfig()
			if port != "" {
				cfg.Port = port
			}
			logger := logging.New(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := bootstrap.BuildApp(ctx, cfg, logger, bootstrap.Deps{
				Registerer: prometheus.DefaultRegisterer,
				LoadAWS:    awsLoader(cfg),
			})
			if err != nil {
				return err
			}
			defer app.Close()
			logger.Info("starting symptom-scout server",
				"env", cfg.Env,
				"llm_provider", app.Provider,
				"email_delivery", app.EmailDelivery,
			)

			done := make(chan struct{})
			defer close(done)
			return bootstrap.Serve(ctx, bootstrap.NewHTTPServer(cfg, app, nil, logger, done), logger)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "override PORT")
	return cmd
}
