package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/config"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/logger"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/requestid"
	svc "github.com/rockethooks/rockethooks-app-sub001/svc/onboarding"
)

const serviceName = "onboarding"

var rootCmd = &cobra.Command{
	Use:           "onboarding",
	Short:         "Onboarding flow service",
	Long:          `Runs the onboarding flow HTTP API and inspects the drafts users leave behind.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		files, _ := cmd.Flags().GetStringSlice("env-file")
		if len(files) == 0 {
			return nil
		}
		return config.LoadEnv(files...)
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("env-file", nil, "Extra .env files to load before reading the configuration")
	rootCmd.PersistentFlags().String("env", envOr("APP_ENV", logger.EnvDevelopment), "Runtime environment, selects the log preset")
}

// setup loads the service config and builds the process logger.
func setup(cmd *cobra.Command) (svc.Config, *slog.Logger, error) {
	env, _ := cmd.Flags().GetString("env")
	log := logger.New(
		logger.WithEnvironment(env, serviceName),
		logger.WithOutput(cmd.ErrOrStderr()),
		logger.WithContextExtractors(svc.LoggerExtractor(), requestid.LoggerExtractor()),
	)

	cfg, err := svc.LoadConfig()
	if err != nil {
		return svc.Config{}, nil, err
	}
	return cfg, log, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
