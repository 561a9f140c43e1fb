package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/usecase/chat"
	"github.com/m-mizutani/burrow/pkg/utils/logging"
)

func chatCommand() *cli.Command {
	var (
		cfg     config
		agentID string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "agent",
			Aliases:     []string{"a"},
			Usage:       "Agent ID to chat with (unknown ids fall back to default)",
			Value:       string(model.DefaultAgentID),
			Sources:     cli.EnvVars("BURROW_AGENT"),
			Destination: &agentID,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive document chat",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logging.With(ctx, logging.New(cfg.logLevel, os.Stderr))

			uc, err := newChatUseCase(ctx, &cfg)
			if err != nil {
				return err
			}

			rl, err := readline.New("> ")
			if err != nil {
				return goerr.Wrap(err, "failed to initialize readline")
			}
			defer rl.Close()

			fmt.Fprintf(c.Root().Writer, "Chat session started (agent: %s). Type 'exit' to quit.\n", agentID)

			var history []model.ConversationTurn
			for {
				line, err := rl.Readline()
				if err == readline.ErrInterrupt || err == io.EOF {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				message := strings.TrimSpace(line)
				if message == "exit" {
					break
				}
				if message == "" {
					continue
				}

				sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
				sp.Suffix = " thinking..."
				sp.Start()

				out, err := uc.Chat(ctx, chat.ChatInput{
					AgentID: model.AgentID(agentID),
					Message: message,
					History: history,
				})
				sp.Stop()

				if err != nil {
					fmt.Fprintf(c.Root().Writer, "Error: %v\n", err)
					continue
				}

				fmt.Fprintf(c.Root().Writer, "%s\n", out.Answer)
				printSources(c.Root().Writer, out.Sources)

				now := out.Timestamp
				history = append(history,
					model.ConversationTurn{Role: model.RoleUser, Content: message, Timestamp: now},
					model.ConversationTurn{Role: model.RoleAssistant, Content: out.Answer, Timestamp: now},
				)
			}

			fmt.Fprintf(c.Root().Writer, "\nChat session completed\n")
			return nil
		},
	}
}

// newChatUseCase wires the full chat pipeline from configuration
func newChatUseCase(ctx context.Context, cfg *config) (*chat.UseCase, error) {
	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, err
	}

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	gateway, err := cfg.newGateway(ctx, gemini)
	if err != nil {
		return nil, err
	}

	registry, err := cfg.newRegistry()
	if err != nil {
		return nil, err
	}

	return chat.New(repo, gateway, gemini, registry,
		chat.WithDefaultModel(cfg.generativeModel),
		chat.WithTokenBudget(int(cfg.tokenBudget)),
		chat.WithTopK(int(cfg.topK)),
		chat.WithChunking(int(cfg.chunkSize), int(cfg.chunkOverlap)),
	), nil
}

// printSources lists the retrieval results cited by an answer
func printSources(w io.Writer, sources []*model.RetrievalResult) {
	if len(sources) == 0 {
		return
	}

	fmt.Fprintf(w, "\nSOURCES:\n")
	for _, s := range sources {
		filename := s.Metadata.Filename
		if filename == "" {
			filename = "unknown"
		}
		fmt.Fprintf(w, "  - %s (chunk %s, distance %.4f)\n", filename, s.Metadata.ChunkID, s.Distance)
	}
}
