package cli

import (
	"fmt"
	"io"
	"os"

	"nugget-translator/internal/catalog"
	"nugget-translator/internal/config"
	"nugget-translator/internal/rag"
	"nugget-translator/internal/translation"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	var embed bool

	cmd := &cobra.Command{
		Use:   "import <lang> <po-file>",
		Short: "Load the translations of a PO file into PostgreSQL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(args[0], args[1], embed)
		},
	}

	cmd.Flags().BoolVar(&embed, "embed", false, "Also embed the messages into the translation memory")

	return cmd
}

func autotranslateCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "autotranslate <lang>",
		Short: "Machine-translate messages that have no translation yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAutotranslate(args[0], limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Translate at most this many messages (0 for all)")

	return cmd
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <lang> <out.po>",
		Short: `Write the catalog of a language as a PO file ("-" for stdout)`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

// runImport handles the `import` command.
func runImport(langArg, poPath string, embed bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	lang, err := catalog.NormalizeLang(langArg)
	if err != nil {
		return err
	}

	entries, err := readCatalog(poPath)
	if err != nil {
		return err
	}

	cfg := config.Load()

	pgPool, store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pgPool.Close()

	stored, err := store.UpsertTranslations(ctx, lang, entries)
	if err != nil {
		return err
	}

	if embed {
		ec, vs, err := openVectorStore(ctx, cfg, pgPool)
		if err != nil {
			return err
		}

		msgIDs := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.Translated() {
				msgIDs = append(msgIDs, e.MsgID)
			}
		}
		if _, err := rag.NewIndexer(ec, vs).Index(ctx, msgIDs, cfg.BatchSize); err != nil {
			return fmt.Errorf("index translations: %w", err)
		}
	}

	log.Info().
		Str("lang", lang).
		Int("entries", len(entries)).
		Int("stored", stored).
		Msg("Import complete")

	return nil
}

// runAutotranslate handles the `autotranslate` command.
func runAutotranslate(langArg string, limit int) error {
	ctx, cancel := setupContext()
	defer cancel()

	lang, err := catalog.NormalizeLang(langArg)
	if err != nil {
		return err
	}

	cfg := config.Load()
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set")
	}
	tokens, err := cfg.Tokens()
	if err != nil {
		return err
	}

	pgPool, store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pgPool.Close()

	pending, err := store.Untranslated(ctx, lang)
	if err != nil {
		return err
	}
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	if len(pending) == 0 {
		log.Info().Str("lang", lang).Msg("Nothing to translate")
		return nil
	}

	log.Info().Str("lang", lang).Int("messages", len(pending)).Msg("Translation plan")

	var retriever translation.ContextRetriever
	var indexer *rag.Indexer
	ec, vs, err := openVectorStore(ctx, cfg, pgPool)
	if err != nil {
		log.Warn().Err(err).Msg("Translation memory unavailable, translating without context")
	} else {
		neighbors, closeGraph := neighborFinder(ctx, cfg)
		defer closeGraph()
		retriever = rag.NewRetriever(ec, vs, neighbors)
		indexer = rag.NewIndexer(ec, vs)
	}

	client := translation.NewGeminiClient(cfg.GeminiAPIKey, cfg.TranslationModel)
	translator := translation.NewTranslator(client, retriever, cfg.BatchSize, cfg.MaxConcurrentAPICalls)

	translated := translator.TranslateEntries(ctx, lang, tokens.Delimiter, pending)
	if err := ctx.Err(); err != nil {
		return err
	}

	stored, err := store.UpsertTranslations(ctx, lang, translated)
	if err != nil {
		return err
	}

	if indexer != nil {
		var msgIDs []string
		for _, e := range translated {
			if !e.Fuzzy {
				msgIDs = append(msgIDs, e.MsgID)
			}
		}
		if _, err := indexer.Index(ctx, msgIDs, cfg.BatchSize); err != nil {
			log.Warn().Err(err).Msg("Failed to index new translations")
		}
	}

	fuzzy := 0
	for _, e := range translated {
		if e.Fuzzy {
			fuzzy++
		}
	}

	log.Info().
		Str("lang", lang).
		Int("requested", len(pending)).
		Int("stored", stored).
		Int("fuzzy", fuzzy).
		Msg("Autotranslate complete")

	return nil
}

// runExport handles the `export` command.
func runExport(stdout io.Writer, langArg, outPath string) error {
	ctx, cancel := setupContext()
	defer cancel()

	lang, err := catalog.NormalizeLang(langArg)
	if err != nil {
		return err
	}

	cfg := config.Load()

	pgPool, store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pgPool.Close()

	entries, err := store.Entries(ctx, lang)
	if err != nil {
		return err
	}

	if err := writeCatalog(stdout, outPath, lang, entries); err != nil {
		return err
	}

	log.Info().Str("lang", lang).Int("entries", len(entries)).Str("out", outPath).Msg("Export complete")
	return nil
}

func readCatalog(path string) ([]catalog.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	entries, err := catalog.ReadPO(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return entries, nil
}
