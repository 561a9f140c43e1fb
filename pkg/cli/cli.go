package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "burrow",
		Usage: "Private document chat agent with retrieval-augmented generation",
		Commands: []*cli.Command{
			ingestCommand(),
			chatCommand(),
			askCommand(),
			agentCommand(),
			memoryCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
