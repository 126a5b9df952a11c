package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Deploy is the per-environment deployment configuration read from config.yaml,
// with config-local.yaml merged on top.
type Deploy struct {
	General        General                `yaml:"general"`
	Environments   map[string]Environment `yaml:"environments"`
	ParameterStore map[string]string      `yaml:"parameter_store"`
	AppSettings    map[string]string      `yaml:"app_settings"`
}

type General struct {
	Timezone   string `yaml:"timezone"`
	LogLevel   string `yaml:"log_level"`
	DiscordCmd string `yaml:"discord_cmd"`
}

type Environment struct {
	AWSProfile string `yaml:"aws_profile"`
	AWSRegion  string `yaml:"aws_region"`
	StackName  string `yaml:"stack_name"`
	SSMPrefix  string `yaml:"ssm_prefix"`
	Sam        Sam    `yaml:"sam"`
}

type Sam struct {
	ConfirmChangeset     bool `yaml:"confirm_changeset"`
	FailOnEmptyChangeset bool `yaml:"fail_on_empty_changeset"`
	ResolveS3            bool `yaml:"resolve_s3"`
	Cached               bool `yaml:"cached"`
	Parallel             bool `yaml:"parallel"`
}

var ErrUnknownEnvironment = errors.New("unknown environment")

// Environments accepted by the deploy tooling.
var Environments = []string{"dev", "prod", "test"}

// LoadDeploy reads config.yaml from dir and merges config-local.yaml when it exists.
func LoadDeploy(dir string) (*Deploy, error) {
	base, err := readYAML(filepath.Join(dir, "config.yaml"))
	if err != nil {
		return nil, err
	}
	local, err := readYAML(filepath.Join(dir, "config-local.yaml"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if local != nil {
		base = merge(base, local)
	}

	raw, err := yaml.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode config: %w", err)
	}
	d := &Deploy{
		General: General{Timezone: "Australia/Sydney", LogLevel: "INFO", DiscordCmd: "irus"},
	}
	if err := yaml.Unmarshal(raw, d); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return d, nil
}

// Environment returns the named environment with defaults applied.
func (d *Deploy) Environment(name string) (Environment, error) {
	env, ok := d.Environments[name]
	if !ok {
		return Environment{}, fmt.Errorf("%w: %s", ErrUnknownEnvironment, name)
	}
	if env.AWSProfile == "" {
		env.AWSProfile = "default"
	}
	if env.AWSRegion == "" {
		env.AWSRegion = "us-east-1"
	}
	if env.StackName == "" {
		env.StackName = "irus-" + name
	}
	if env.SSMPrefix == "" {
		env.SSMPrefix = "/irus-" + name
	}
	return env, nil
}

// ParameterPaths returns parameter store paths with the environment's prefix applied.
func (d *Deploy) ParameterPaths(name string) (map[string]string, error) {
	env, err := d.Environment(name)
	if err != nil {
		return nil, err
	}
	paths := make(map[string]string, len(d.ParameterStore))
	for key, p := range d.ParameterStore {
		paths[key] = env.SSMPrefix + "/" + strings.TrimPrefix(p, "/")
	}
	return paths, nil
}

// Get returns a single deploy setting as the shell scripts expect it.
func (d *Deploy) Get(name, key string) (string, error) {
	env, err := d.Environment(name)
	if err != nil {
		return "", err
	}
	switch key {
	case "aws_profile":
		return env.AWSProfile, nil
	case "aws_region":
		return env.AWSRegion, nil
	case "stack_name":
		return env.StackName, nil
	case "ssm_prefix":
		return env.SSMPrefix, nil
	case "log_level":
		return strings.ToUpper(d.General.LogLevel), nil
	case "discord_cmd":
		return d.General.DiscordCmd, nil
	case "timezone":
		return d.General.Timezone, nil
	case "confirm_changeset":
		return fmt.Sprint(env.Sam.ConfirmChangeset), nil
	case "fail_on_empty_changeset":
		return fmt.Sprint(env.Sam.FailOnEmptyChangeset), nil
	case "resolve_s3":
		return fmt.Sprint(env.Sam.ResolveS3), nil
	case "cached":
		return fmt.Sprint(env.Sam.Cached), nil
	case "parallel":
		return fmt.Sprint(env.Sam.Parallel), nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// EnvironmentNames lists the configured environments in order.
func (d *Deploy) EnvironmentNames() []string {
	names := make([]string, 0, len(d.Environments))
	for name := range d.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func readYAML(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return out, nil
}

func merge(base, override map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		bm, bok := out[k].(map[string]interface{})
		om, ook := v.(map[string]interface{})
		if bok && ook {
			out[k] = merge(bm, om)
			continue
		}
		out[k] = v
	}
	return out
}
