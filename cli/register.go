package cli

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"irus/config"
	"irus/services"
)

var registerGlobal bool

var registerCmd = &cobra.Command{
	Use:   "register <env>",
	Short: "Register the slash command with Discord",
	Long: `Register the slash command defined in commands.yaml.

The bot token, application id and server id are read from the parameter store
under the environment prefix. Commands are registered on the server unless
--global is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deploy, _, awsCfg, err := environmentAWS(ctx, args[0])
		if err != nil {
			return err
		}
		paths, err := deploy.ParameterPaths(args[0])
		if err != nil {
			return err
		}
		store := services.NewSSMService(ssmClient(awsCfg))

		keys := []string{"bottoken", "appid"}
		if !registerGlobal {
			keys = append(keys, "serverid")
		}
		secrets, err := readParameters(ctx, store, paths, keys...)
		if err != nil {
			return err
		}
		guild := secrets["serverid"]

		cmds, err := config.Commands(deploy.General.DiscordCmd)
		if err != nil {
			return err
		}
		session, err := discordgo.New("Bot " + secrets["bottoken"])
		if err != nil {
			return fmt.Errorf("failed to create discord session: %w", err)
		}
		created, err := session.ApplicationCommandBulkOverwrite(secrets["appid"], guild, cmds)
		if err != nil {
			return fmt.Errorf("failed to register commands: %w", err)
		}
		for _, c := range created {
			log.Info("registered command", zap.String("name", c.Name), zap.String("id", c.ID), zap.String("guild", guild))
			fmt.Fprintf(cmd.OutOrStdout(), "Registered /%s\n", c.Name)
		}
		return nil
	},
}

func init() {
	registerCmd.Flags().BoolVar(&registerGlobal, "global", false, "Register a global command instead of a server command")
}

func ssmClient(awsCfg aws.Config) *ssm.Client {
	return ssm.NewFromConfig(awsCfg)
}

// readParameters reads the named keys, failing on the first missing one.
func readParameters(ctx context.Context, store ParameterStore, paths map[string]string, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		path, ok := paths[key]
		if !ok {
			return nil, fmt.Errorf("no parameter store path for %s", key)
		}
		v, err := store.GetParameter(ctx, path)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}
