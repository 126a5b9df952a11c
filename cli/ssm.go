package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"irus/services"
)

// ParameterStore reads and writes parameter store values.
type ParameterStore interface {
	GetParameter(ctx context.Context, name string) (string, error)
	PutParameter(ctx context.Context, name, value, description string, secure bool) error
}

type parameter struct {
	key         string
	description string
	secure      bool
}

// parameters are prompted in this order by ssm setup.
var parameters = []parameter{
	{key: "publickey", description: "Discord application public key"},
	{key: "appid", description: "Discord application id"},
	{key: "bottoken", description: "Discord bot token", secure: true},
	{key: "serverid", description: "Discord server id for guild commands"},
	{key: "webhookurl", description: "Discord webhook base url"},
}

var ssmCmd = &cobra.Command{
	Use:   "ssm",
	Short: "Manage parameter store secrets",
}

var ssmSetupCmd = &cobra.Command{
	Use:       "setup <env>",
	Short:     "Prompt for and store the bot secrets of an environment",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"dev", "prod", "test"},
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
		return setupParameters(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), store, paths)
	},
}

func init() {
	ssmCmd.AddCommand(ssmSetupCmd)
}

// setupParameters prompts for each parameter, keeping the current value on an empty answer.
func setupParameters(ctx context.Context, in io.Reader, out io.Writer, store ParameterStore, paths map[string]string) error {
	reader := bufio.NewReader(in)
	for _, p := range parameters {
		path, ok := paths[p.key]
		if !ok {
			path = p.key
		}

		current, err := store.GetParameter(ctx, path)
		if err != nil && !errors.Is(err, services.ErrItemNotFound) {
			return err
		}
		shown := current
		if p.secure {
			shown = mask(current)
		}
		fmt.Fprintf(out, "%s (%s) [%s]: ", p.description, path, shown)

		answer, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read %s: %w", p.key, err)
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			answer = current
		}
		if answer == "" {
			fmt.Fprintf(out, "skipping %s\n", p.key)
			continue
		}
		if answer == current {
			continue
		}
		if err := store.PutParameter(ctx, path, answer, p.description, p.secure); err != nil {
			return err
		}
		fmt.Fprintf(out, "updated %s\n", path)
	}
	return nil
}

// mask hides all but the last four characters.
func mask(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}
