package config

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"gopkg.in/yaml.v3"
)

//go:embed commands.yaml
var commandsYAML []byte

// Commands decodes the embedded command definitions and renames the
// top-level command to name.
func Commands(name string) ([]*discordgo.ApplicationCommand, error) {
	return ParseCommands(commandsYAML, name)
}

// ParseCommands converts YAML that mirrors Discord's JSON schema into
// application commands.
func ParseCommands(data []byte, name string) ([]*discordgo.ApplicationCommand, error) {
	var raw []interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse commands: %w", err)
	}
	js, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode commands: %w", err)
	}

	var cmds []*discordgo.ApplicationCommand
	if err := json.Unmarshal(js, &cmds); err != nil {
		return nil, fmt.Errorf("failed to decode commands: %w", err)
	}
	if len(cmds) == 0 {
		return nil, fmt.Errorf("no commands defined")
	}
	if name != "" {
		cmds[0].Name = name
	}
	return cmds, nil
}
