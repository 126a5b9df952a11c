package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"irus/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read deploy settings",
}

var configGetCmd = &cobra.Command{
	Use:   "get <env> <key>",
	Short: "Print one deploy setting",
	Long: `Print one deploy setting from config.yaml merged with config-local.yaml.

Keys: aws_profile, aws_region, stack_name, ssm_prefix, log_level, discord_cmd,
confirm_changeset, fail_on_empty_changeset, resolve_s3, cached, parallel`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		deploy, err := config.LoadDeploy(configDir)
		if err != nil {
			return err
		}
		v, err := deploy.Get(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

var configEnvsCmd = &cobra.Command{
	Use:   "envs",
	Short: "List configured environments",
	RunE: func(cmd *cobra.Command, args []string) error {
		deploy, err := config.LoadDeploy(configDir)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(deploy.EnvironmentNames(), " "))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configEnvsCmd)
}
