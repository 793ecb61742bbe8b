package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"nugget-translator/internal/nugget"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	DatabaseURL   string
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	GeminiAPIKey     string
	TranslationModel string

	EmbeddingAPIKey     string
	EmbeddingBaseURL    string
	EmbeddingModel      string
	EmbeddingDimensions int

	WorkerCount           int
	BatchSize             int
	MaxConcurrentAPICalls int

	NuggetBegin      string
	NuggetEnd        string
	NuggetDelimiter  string
	NuggetComment    string
	NuggetParamBegin string
	NuggetParamEnd   string
	NuggetMaxDepth   int

	// SourceExtensions are scanned by `extract`.
	SourceExtensions []string
	// RenderExtensions are rewritten by `render`.
	RenderExtensions []string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	defaults := nugget.DefaultTokens()

	return &Config{
		DatabaseURL:           getEnv("DATABASE_URL", "postgres://localhost:5432/nuggets?sslmode=disable"),
		Neo4jURI:              getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:             getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:         getEnv("NEO4J_PASSWORD", "password"),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		TranslationModel:      getEnv("TRANSLATION_MODEL", "gemini-2.5-flash"),
		EmbeddingAPIKey:       getEnv("EMBEDDING_API_KEY", ""),
		EmbeddingBaseURL:      getEnv("EMBEDDING_BASE_URL", "https://api.openai.com/v1"),
		EmbeddingModel:        getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimensions:   getEnvInt("EMBEDDING_DIMENSIONS", 768),
		WorkerCount:           getEnvInt("WORKER_COUNT", 8),
		BatchSize:             getEnvInt("BATCH_SIZE", 20),
		MaxConcurrentAPICalls: getEnvInt("MAX_CONCURRENT_API_CALLS", 4),
		NuggetBegin:           getEnv("NUGGET_BEGIN", defaults.Begin),
		NuggetEnd:             getEnv("NUGGET_END", defaults.End),
		NuggetDelimiter:       getEnv("NUGGET_DELIMITER", defaults.Delimiter),
		NuggetComment:         getEnv("NUGGET_COMMENT", defaults.Comment),
		NuggetParamBegin:      getEnv("NUGGET_PARAM_BEGIN", defaults.ParamBegin),
		NuggetParamEnd:        getEnv("NUGGET_PARAM_END", defaults.ParamEnd),
		NuggetMaxDepth:        getEnvInt("NUGGET_MAX_DEPTH", nugget.DefaultMaxDepth),
		SourceExtensions:      getEnvList("SOURCE_EXTENSIONS", []string{".cs", ".cshtml", ".vbhtml", ".js", ".ts", ".html", ".sql", ".xml", ".resx"}),
		RenderExtensions:      getEnvList("RENDER_EXTENSIONS", []string{".html", ".htm", ".js", ".json", ".txt"}),
	}
}

// Tokens returns the configured nugget token set.
func (c *Config) Tokens() (nugget.Tokens, error) {
	t := nugget.Tokens{
		Begin:      c.NuggetBegin,
		End:        c.NuggetEnd,
		Delimiter:  c.NuggetDelimiter,
		Comment:    c.NuggetComment,
		ParamBegin: c.NuggetParamBegin,
		ParamEnd:   c.NuggetParamEnd,
	}
	if err := t.Validate(); err != nil {
		return nugget.Tokens{}, fmt.Errorf("nugget tokens from environment: %w", err)
	}
	return t, nil
}

// NewParser builds a nugget parser for ctx from the configured tokens.
func (c *Config) NewParser(ctx nugget.Context) (*nugget.Parser, error) {
	tokens, err := c.Tokens()
	if err != nil {
		return nil, err
	}
	return nugget.NewParser(tokens, ctx, nugget.WithMaxDepth(c.NuggetMaxDepth))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// getEnvList reads a comma-separated list of file extensions. Entries are
// lower-cased and given a leading dot.
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if !strings.HasPrefix(part, ".") {
			part = "." + part
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
