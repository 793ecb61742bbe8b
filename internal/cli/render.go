package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"nugget-translator/internal/catalog"
	"nugget-translator/internal/config"
	"nugget-translator/internal/filewalker"
	"nugget-translator/internal/localize"
	"nugget-translator/internal/nugget"
	"nugget-translator/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func renderCmd() *cobra.Command {
	var poPath string

	cmd := &cobra.Command{
		Use:   "render <lang> <in-dir> <out-dir>",
		Short: "Write localized copies of text files, replacing every nugget",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(args[0], args[1], args[2], poPath)
		},
	}

	cmd.Flags().StringVar(&poPath, "po", "", "Read translations from this PO file instead of PostgreSQL")

	return cmd
}

// runRender handles the `render` command.
func runRender(langArg, inputDir, outputDir, poPath string) error {
	ctx, cancel := setupContext()
	defer cancel()

	lang, err := catalog.NormalizeLang(langArg)
	if err != nil {
		return err
	}

	cfg := config.Load()

	cat, err := loadCatalog(ctx, cfg, lang, poPath)
	if err != nil {
		return err
	}

	p, err := cfg.NewParser(nugget.ResponseProcessing)
	if err != nil {
		return err
	}
	localizer, err := localize.New(p, cat, lang)
	if err != nil {
		return err
	}

	files, err := filewalker.NewWalker(cfg.RenderExtensions).Walk(inputDir)
	if err != nil {
		return fmt.Errorf("walk input directory: %w", err)
	}

	inputAbs, err := filepath.Abs(inputDir)
	if err != nil {
		return fmt.Errorf("resolve input directory: %w", err)
	}
	outputAbs, err := filepath.Abs(outputDir)
	if err != nil {
		return fmt.Errorf("resolve output directory: %w", err)
	}
	if err := os.MkdirAll(outputAbs, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	log.Info().Int("files", len(files)).Str("lang", lang).Msg("Starting render")

	pool := worker.NewPool[filewalker.FileEntry, string]("render", cfg.WorkerCount, func(ctx context.Context, entry filewalker.FileEntry) (string, error) {
		content, err := filewalker.Read(entry)
		if err != nil {
			return "", err
		}

		relPath, err := filepath.Rel(inputAbs, entry.Path)
		if err != nil {
			return "", fmt.Errorf("compute relative path: %w", err)
		}
		outPath := filepath.Join(outputAbs, relPath)

		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
		if err := os.WriteFile(outPath, []byte(localizer.Localize(content)), 0644); err != nil {
			return "", fmt.Errorf("write %s: %w", outPath, err)
		}
		return outPath, nil
	})

	failed := 0
	for _, task := range pool.Execute(ctx, files) {
		if task.Err != nil {
			failed++
			log.Error().Err(task.Err).Str("file", task.Input.Path).Msg("Render failed")
			continue
		}
		log.Debug().Str("input", task.Input.Path).Str("output", task.Result).Msg("File rendered")
	}

	stats := localizer.Stats()
	log.Info().
		Int("files", len(files)).
		Int("failed", failed).
		Int64("translated", stats.Hits).
		Int64("missing", stats.Misses).
		Str("output", outputAbs).
		Msg("Render complete")

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to render", failed, len(files))
	}
	return ctx.Err()
}

// loadCatalog reads translations of lang from a PO file, or from PostgreSQL
// when poPath is empty.
func loadCatalog(ctx context.Context, cfg *config.Config, lang, poPath string) (*catalog.Catalog, error) {
	cat := catalog.New()

	if poPath != "" {
		entries, err := readCatalog(poPath)
		if err != nil {
			return nil, err
		}
		cat.Add(lang, entries)
		return cat, nil
	}

	pgPool, store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer pgPool.Close()

	if err := store.Preload(ctx, cat, lang); err != nil {
		return nil, err
	}
	return cat, nil
}
