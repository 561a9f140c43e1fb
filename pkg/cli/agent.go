package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/m-mizutani/burrow/pkg/model"
)

func agentCommand() *cli.Command {
	return &cli.Command{
		Name:  "agent",
		Usage: "Manage agent configurations",
		Commands: []*cli.Command{
			agentListCommand(),
			agentNewCommand(),
		},
	}
}

func agentListCommand() *cli.Command {
	var cfg config

	flags := pipelineFlags(&cfg)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List all agents (the default agent is always first)",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			registry, err := cfg.newRegistry()
			if err != nil {
				return err
			}

			for _, a := range registry.List() {
				fmt.Fprintf(c.Root().Writer, "%s\t%s", a.ID, a.Name)
				if a.ModelOverride != "" {
					fmt.Fprintf(c.Root().Writer, "\t(model: %s)", a.ModelOverride)
				}
				fmt.Fprintf(c.Root().Writer, "\n")
			}
			return nil
		},
	}
}

func agentNewCommand() *cli.Command {
	var (
		cfg           config
		id            string
		name          string
		systemPrompt  string
		modelOverride string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "id",
			Usage:       "Agent ID",
			Required:    true,
			Destination: &id,
		},
		&cli.StringFlag{
			Name:        "name",
			Usage:       "Display name",
			Destination: &name,
		},
		&cli.StringFlag{
			Name:        "prompt",
			Usage:       "System prompt",
			Required:    true,
			Destination: &systemPrompt,
		},
		&cli.StringFlag{
			Name:        "model",
			Usage:       "Generation model override",
			Destination: &modelOverride,
		},
	}
	flags = append(flags, pipelineFlags(&cfg)...)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "new",
		Usage: "Add an agent definition to the agents file",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if cfg.agentsPath == "" {
				return goerr.Wrap(model.ErrInvalidConfig, "--agents file is required to save the new agent")
			}

			// Loading into a registry first validates the new definition
			// against the existing ones.
			registry, err := cfg.newRegistry()
			if err != nil {
				return err
			}

			newAgent := model.AgentConfig{
				ID:            model.AgentID(id),
				Name:          name,
				SystemPrompt:  systemPrompt,
				ModelOverride: modelOverride,
			}
			if err := registry.Create(newAgent); err != nil {
				return err
			}

			configs, err := loadAgentConfigs(cfg.agentsPath)
			if err != nil {
				return err
			}
			configs = append(configs, newAgent)

			data, err := yaml.Marshal(map[string][]model.AgentConfig{"agents": configs})
			if err != nil {
				return goerr.Wrap(err, "failed to marshal agents file")
			}
			if err := os.WriteFile(cfg.agentsPath, data, 0644); err != nil {
				return goerr.Wrap(err, "failed to write agents file", goerr.V("path", cfg.agentsPath))
			}

			fmt.Fprintf(c.Root().Writer, "Created agent %q\n", id)
			return nil
		},
	}
}

// loadAgentConfigs reads the existing agents file, tolerating a missing one
func loadAgentConfigs(path string) ([]model.AgentConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read agents file", goerr.V("path", path))
	}

	var file struct {
		Agents []model.AgentConfig `yaml:"agents"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse agents file", goerr.V("path", path))
	}
	return file.Agents, nil
}
