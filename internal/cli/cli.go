package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"nugget-translator/internal/catalog"
	"nugget-translator/internal/config"
	"nugget-translator/internal/graph"
	"nugget-translator/internal/rag"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nuggets",
		Short: "Extract, translate and render [[[nugget]]] messages",
		Long: `Finds translatable [[[msgid|||param///comment]]] nuggets in source code,
keeps their translations in gettext catalogs and PostgreSQL, machine-translates
missing messages with translation-memory and usage-graph context, and renders
localized copies of text files.`,
		SilenceUsage: true,
	}

	verbose := rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if *verbose {
			level = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(level)
	}

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(autotranslateCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(inspectCmd())

	return rootCmd
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// connectPostgres opens and pings the PostgreSQL pool.
func connectPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}

	if err := pgPool.Ping(ctx); err != nil {
		pgPool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")

	return pgPool, nil
}

// connectNeo4j opens the Neo4j driver and verifies connectivity.
func connectNeo4j(ctx context.Context, cfg *config.Config) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		return nil, fmt.Errorf("connect Neo4j: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
	}
	log.Info().Msg("Connected to Neo4j")

	return driver, nil
}

// openStore connects to PostgreSQL and ensures the catalog schema.
func openStore(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, *catalog.Store, error) {
	pgPool, err := connectPostgres(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	store := catalog.NewStore(pgPool)
	if err := store.EnsureSchema(ctx); err != nil {
		pgPool.Close()
		return nil, nil, err
	}
	return pgPool, store, nil
}

// openVectorStore prepares the embedding client and the pgvector table.
func openVectorStore(ctx context.Context, cfg *config.Config, pgPool *pgxpool.Pool) (*rag.EmbeddingClient, *rag.VectorStore, error) {
	if cfg.EmbeddingAPIKey == "" {
		return nil, nil, fmt.Errorf("EMBEDDING_API_KEY is not set")
	}

	ec := rag.NewEmbeddingClient(cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingBaseURL, cfg.EmbeddingDimensions)
	vs := rag.NewVectorStore(pgPool)
	if err := vs.EnsureSchema(ctx, ec.Dimensions()); err != nil {
		return nil, nil, err
	}
	return ec, vs, nil
}

// neighborFinder connects to the usage graph when it is reachable. The
// returned close function is never nil.
func neighborFinder(ctx context.Context, cfg *config.Config) (rag.NeighborFinder, func()) {
	driver, err := connectNeo4j(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Usage graph unavailable, continuing without it")
		return nil, func() {}
	}
	return graph.NewQuerier(driver), func() { driver.Close(context.Background()) }
}
