package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/burrow/pkg/usecase/ingest"
	"github.com/m-mizutani/burrow/pkg/utils/logging"
)

func ingestCommand() *cli.Command {
	var (
		cfg         config
		name        string
		fromArchive string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "name",
			Aliases:     []string{"n"},
			Usage:       "Label for text read from stdin or from the archive",
			Sources:     cli.EnvVars("BURROW_INGEST_NAME"),
			Destination: &name,
		},
		&cli.StringFlag{
			Name:        "from-archive",
			Usage:       "Re-ingest an archived upload by object key (e.g. uploads/report.txt); requires --bucket",
			Sources:     cli.EnvVars("BURROW_INGEST_FROM_ARCHIVE"),
			Destination: &fromArchive,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)
	flags = append(flags, archiveFlags(&cfg)...)

	return &cli.Command{
		Name:      "ingest",
		Usage:     "Chunk, embed and store text files (or stdin) in the memory store",
		ArgsUsage: "[file...]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logging.With(ctx, logging.New(cfg.logLevel, os.Stderr))

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			gateway, err := cfg.newGateway(ctx, gemini)
			if err != nil {
				return err
			}

			storage, err := cfg.newStorage(ctx)
			if err != nil {
				return err
			}

			opts := []ingest.Option{
				ingest.WithChunking(int(cfg.chunkSize), int(cfg.chunkOverlap)),
			}
			if storage != nil {
				opts = append(opts, ingest.WithStorage(storage))
			}
			uc := ingest.New(repo, gateway, opts...)

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
			sp.Suffix = " embedding and storing chunks..."
			sp.Start()
			defer sp.Stop()

			if fromArchive != "" {
				result, err := uc.Reingest(ctx, fromArchive, name)
				if err != nil {
					return err
				}

				sp.Stop()
				fmt.Fprintf(c.Root().Writer, "Stored %d chunks (%d characters)\n", result.ChunksStored, result.Characters)
				return nil
			}

			args := c.Args().Slice()
			if len(args) == 0 {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return goerr.Wrap(err, "failed to read stdin")
				}

				result, err := uc.Ingest(ctx, string(data), name)
				if err != nil {
					return err
				}

				sp.Stop()
				fmt.Fprintf(c.Root().Writer, "Stored %d chunks (%d characters)\n", result.ChunksStored, result.Characters)
				return nil
			}

			for _, arg := range args {
				data, err := os.ReadFile(arg)
				if err != nil {
					return goerr.Wrap(err, "failed to read file", goerr.V("path", arg))
				}

				result, err := uc.Ingest(ctx, string(data), filepath.Base(arg))
				if err != nil {
					return goerr.Wrap(err, "failed to ingest file", goerr.V("path", arg))
				}

				sp.Stop()
				fmt.Fprintf(c.Root().Writer, "%s: stored %d chunks (%d characters)\n",
					result.Filename, result.ChunksStored, result.Characters)
				sp.Start()
			}

			return nil
		},
	}
}
