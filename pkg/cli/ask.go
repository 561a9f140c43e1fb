package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/usecase/chat"
	"github.com/m-mizutani/burrow/pkg/utils/logging"
)

func askCommand() *cli.Command {
	var (
		cfg     config
		agentID string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "agent",
			Aliases:     []string{"a"},
			Usage:       "Agent ID to ask (unknown ids fall back to default)",
			Value:       string(model.DefaultAgentID),
			Sources:     cli.EnvVars("BURROW_AGENT"),
			Destination: &agentID,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)

	return &cli.Command{
		Name:      "ask",
		Usage:     "One-shot question against the document memory",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logging.With(ctx, logging.New(cfg.logLevel, os.Stderr))

			question := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(question) == "" {
				return goerr.Wrap(model.ErrInvalidArgument, "no question provided")
			}

			uc, err := newChatUseCase(ctx, &cfg)
			if err != nil {
				return err
			}

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
			sp.Suffix = " thinking..."
			sp.Start()

			out, err := uc.Chat(ctx, chat.ChatInput{
				AgentID: model.AgentID(agentID),
				Message: question,
			})
			sp.Stop()

			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "%s\n", out.Answer)
			printSources(c.Root().Writer, out.Sources)
			fmt.Fprintf(c.Root().Writer, "\n(model: %s)\n", out.Model)

			return nil
		},
	}
}
