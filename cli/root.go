// Package cli is the developer command line: local server, command
// registration, parameter store setup and deploy settings.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"irus/config"
	"irus/logger"
)

var (
	configDir string
	logLevel  string

	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "irus",
	Short: "Invasion statistics bot tooling",
	Long: `Developer tooling for the invasion statistics Discord bot.

Available commands:
  serve    - Run the bot API, workflows and monthly job locally
  register - Register the slash command with Discord
  ssm      - Manage parameter store secrets
  config   - Read deploy settings for deploy.sh
  report   - Build and publish reports`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if log, err = logger.New(logLevel); err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		zap.ReplaceGlobals(log)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory holding config.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", os.Getenv("LOG_LEVEL"), "DEBUG, INFO, WARNING or ERROR")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(ssmCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(reportCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// environmentAWS loads deploy settings and an AWS config for the named environment.
func environmentAWS(ctx context.Context, env string) (*config.Deploy, config.Environment, aws.Config, error) {
	deploy, err := config.LoadDeploy(configDir)
	if err != nil {
		return nil, config.Environment{}, aws.Config{}, err
	}
	e, err := deploy.Environment(env)
	if err != nil {
		return nil, config.Environment{}, aws.Config{}, err
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithSharedConfigProfile(e.AWSProfile),
		awsconfig.WithRegion(e.AWSRegion),
	)
	if err != nil {
		return nil, config.Environment{}, aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return deploy, e, awsCfg, nil
}
