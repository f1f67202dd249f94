package main

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spf13/cobra"

	"github.com/wolfman30/symptom-scout/cmd/mainconfig"
	"github.com/wolfman30/symptom-scout/internal/app/bootstrap"
	appconfig "github.com/wolfman30/symptom-scout/internal/config"
)

type rootOptions struct {
	logLevel string
}

func newRootCmd(interactive func() bool) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "scout",
		Short:         "Symptom triage assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(opts),
		newChatCmd(opts, interactive),
		newProbeCmd(opts),
	)
	return root
}

// loadConfig reads the environment and applies flag overrides.
func (o *rootOptions) loadConfig() *appconfig.Config {
	cfg := appconfig.Load()
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg
}

func awsLoader(cfg *appconfig.Config) bootstrap.AWSConfigLoader {
	return func(ctx context.Context) (aws.Config, error) {
		return mainconfig.LoadAWSConfig(ctx, cfg)
	}
}
