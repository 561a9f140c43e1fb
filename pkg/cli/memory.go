package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/utils/logging"
)

func memoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "memory",
		Usage: "Inspect and administer the memory store",
		Commands: []*cli.Command{
			memoryListCommand(),
			memoryShowCommand(),
			memoryDeleteCommand(),
			memoryClearCommand(),
		},
	}
}

func memoryListCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "list",
		Usage: "List all stored memories",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logging.With(ctx, logging.New(cfg.logLevel, os.Stderr))

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			memories, err := repo.ListMemories(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to list memories")
			}

			for _, m := range memories {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%s\t%s\n",
					m.ID, m.Metadata.Type, m.Metadata.Filename, snippet(m.Text, 60))
			}
			fmt.Fprintf(c.Root().Writer, "%d memories\n", len(memories))
			return nil
		},
	}
}

func memoryShowCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "show",
		Usage:     "Show one memory by ID",
		ArgsUsage: "<memory-id>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logging.With(ctx, logging.New(cfg.logLevel, os.Stderr))

			if c.Args().Len() != 1 {
				return goerr.Wrap(model.ErrInvalidArgument, "exactly one memory ID is required")
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			memory, err := repo.GetMemory(ctx, model.MemoryID(c.Args().First()))
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "ID:       %s\n", memory.ID)
			fmt.Fprintf(c.Root().Writer, "Type:     %s\n", memory.Metadata.Type)
			if memory.Metadata.Filename != "" {
				fmt.Fprintf(c.Root().Writer, "Filename: %s\n", memory.Metadata.Filename)
			}
			if memory.Metadata.AgentID != "" {
				fmt.Fprintf(c.Root().Writer, "Agent:    %s\n", memory.Metadata.AgentID)
			}
			fmt.Fprintf(c.Root().Writer, "Created:  %s\n", memory.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(c.Root().Writer, "\n%s\n", memory.Text)
			return nil
		},
	}
}

func memoryDeleteCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a memory by ID (deleting a missing ID is a no-op)",
		ArgsUsage: "<memory-id>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logging.With(ctx, logging.New(cfg.logLevel, os.Stderr))

			if c.Args().Len() != 1 {
				return goerr.Wrap(model.ErrInvalidArgument, "exactly one memory ID is required")
			}

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			id := model.MemoryID(c.Args().First())
			if err := repo.DeleteMemory(ctx, id); err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Deleted %s\n", id)
			return nil
		},
	}
}

func memoryClearCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "clear",
		Usage: "Delete all memories",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logging.With(ctx, logging.New(cfg.logLevel, os.Stderr))

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			if err := repo.DeleteAll(ctx); err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Memory store cleared\n")
			return nil
		},
	}
}

// snippet shortens text to at most n runes for list output
func snippet(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
