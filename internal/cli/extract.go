package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"nugget-translator/internal/catalog"
	"nugget-translator/internal/config"
	"nugget-translator/internal/extract"
	"nugget-translator/internal/filewalker"
	"nugget-translator/internal/graph"
	"nugget-translator/internal/nugget"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type extractOptions struct {
	out   string
	store bool
	graph bool
}

func extractCmd() *cobra.Command {
	opts := extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract <src-dir>",
		Short: "Collect nugget messages from source files into a POT template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "messages.pot", `Output template path ("-" for stdout)`)
	cmd.Flags().BoolVar(&opts.store, "store", false, "Upsert the messages into PostgreSQL")
	cmd.Flags().BoolVar(&opts.graph, "graph", false, "Record message usage per file in Neo4j")

	return cmd
}

// runExtract handles the `extract` command.
func runExtract(stdout io.Writer, srcDir string, opts extractOptions) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()

	p, err := cfg.NewParser(nugget.SourceProcessing)
	if err != nil {
		return err
	}
	x, err := extract.New(p)
	if err != nil {
		return err
	}

	files, err := filewalker.NewWalker(cfg.SourceExtensions).Walk(srcDir)
	if err != nil {
		return fmt.Errorf("walk source directory: %w", err)
	}

	log.Info().Int("files", len(files)).Msg("Starting extraction")

	results := x.Files(ctx, srcDir, files, cfg.WorkerCount)
	if err := ctx.Err(); err != nil {
		return err
	}

	groups := make([][]extract.Message, len(results))
	for i, r := range results {
		groups[i] = r.Messages
	}
	entries := extract.Entries(extract.Merge(groups...))

	if err := writeCatalog(stdout, opts.out, "", entries); err != nil {
		return err
	}

	if opts.store {
		if err := storeMessages(ctx, cfg, entries); err != nil {
			return err
		}
	}

	if opts.graph {
		if err := recordUsage(ctx, cfg, results); err != nil {
			return err
		}
	}

	log.Info().
		Int("files", len(results)).
		Int("messages", len(entries)).
		Str("out", opts.out).
		Msg("Extraction complete")

	return nil
}

// writeCatalog writes entries as PO to path, or to stdout for "-".
func writeCatalog(stdout io.Writer, path, lang string, entries []catalog.Entry) error {
	if path == "-" {
		return catalog.WritePO(stdout, lang, entries)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := catalog.WritePO(f, lang, entries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func storeMessages(ctx context.Context, cfg *config.Config, entries []catalog.Entry) error {
	pgPool, store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pgPool.Close()

	_, err = store.UpsertMessages(ctx, entries)
	return err
}

func recordUsage(ctx context.Context, cfg *config.Config, results []extract.FileResult) error {
	driver, err := connectNeo4j(ctx, cfg)
	if err != nil {
		return err
	}
	defer driver.Close(ctx)

	usage := graph.NewUsageGraph(driver)
	if err := usage.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure graph schema: %w", err)
	}

	for _, r := range results {
		if err := usage.RecordFile(ctx, r); err != nil {
			log.Warn().Err(err).Str("file", r.Path).Msg("Failed to record file")
		}
	}

	log.Info().Int("files", len(results)).Msg("Usage graph updated")
	return nil
}
