// Command myai3 serves the financial rates chat assistant.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	myai3 "github.com/shreyasd806-spec/myAI3"
	"github.com/shreyasd806-spec/myAI3/common_tools"
	"github.com/shreyasd806-spec/myAI3/ingest"
	"github.com/shreyasd806-spec/myAI3/models/gemini"
	"github.com/shreyasd806-spec/myAI3/models/openai"
	"github.com/shreyasd806-spec/myAI3/moderation"
	"github.com/shreyasd806-spec/myAI3/prompts"
	"github.com/shreyasd806-spec/myAI3/server"
	"github.com/shreyasd806-spec/myAI3/stores"
	"github.com/spf13/cobra"
	"google.golang.org/genai"
)

var (
	configPath  string
	chunkSize   int
	concurrency int
)

var rootCmd = &cobra.Command{
	Use:   "myai3",
	Short: "MyAI3 - financial rates chat assistant",
	Long: `MyAI3 answers questions about savings accounts, CDs, credit cards and
loan rates. Every message is moderated first; answers are grounded in a live
web rate search and an optional local knowledge base.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [paths...]",
	Short: "Embed .md and .txt files into the knowledge base",
	Long: `Splits each file into paragraph chunks, embeds them with the configured
Gemini embedding model and stores them for vectorDatabaseSearch.

Example:
  myai3 ingest ./knowledge`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the assembled system prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(cmd.OutOrStdout(), prompts.System())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file")
	ingestCmd.Flags().IntVar(&chunkSize, "chunk-size", ingest.DefaultChunkSize, "maximum characters per chunk")
	ingestCmd.Flags().IntVar(&concurrency, "concurrency", ingest.DefaultConcurrency, "files embedded in parallel")

	rootCmd.AddCommand(serveCmd, ingestCmd, promptCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging configures the global zerolog logger.
func setupLogging(cfg myai3.LogConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func loadConfig() (*myai3.Config, error) {
	cfg, err := myai3.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.Log)
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.CheckModeration(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var genaiClient *genai.Client
	if cfg.Gemini.APIKey != "" {
		genaiClient, err = gemini.NewClient(ctx, cfg.Gemini.APIKey)
		if err != nil {
			return err
		}
	}

	model, err := buildModel(cfg, genaiClient)
	if err != nil {
		return err
	}

	store, err := stores.NewStore(&cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	var traces stores.TraceStore
	if store != nil {
		defer store.Close()
		traceStore, err := stores.NewGORMTraceStore(store.DB())
		if err != nil {
			return err
		}
		traces = traceStore
	}

	if cfg.Exa.APIKey == "" {
		log.Warn().Msg("EXA_API_KEY is not set; rate searches will fail")
	}
	exa := common_tools.NewExaClient(cfg.Exa.APIKey)
	if cfg.Exa.BaseURL != "" {
		exa.BaseURL = cfg.Exa.BaseURL
	}

	vector, err := buildVectorSearch(cfg, genaiClient, store)
	if err != nil {
		return err
	}
	tools := common_tools.DefaultTools(exa, vector)

	agent := myai3.Create_Agent(model, prompts.System(), tools...)
	agent.MaxSteps = cfg.MaxSteps
	agent.Options = cfg.Generation

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(server.Options{
		Config: cfg,
		Agent:  agent,
		Gate:   buildGate(cfg),
		Store:  store,
		Traces: traces,
	})

	log.Info().
		Str("model", cfg.Model).
		Int("tools", len(tools)).
		Bool("moderation", cfg.Moderation.Enabled).
		Bool("persistence", store != nil).
		Msg("MyAI3 ready")
	return srv.Run(ctx)
}

func buildModel(cfg *myai3.Config, client *genai.Client) (myai3.Model, error) {
	provider, name, err := myai3.SplitModel(cfg.Model)
	if err != nil {
		return nil, err
	}
	switch provider {
	case "gemini":
		if client == nil {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
		return &gemini.Gemini_Model{Model: name, Client: client}, nil
	default:
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		return &openai.OpenAI_Model{Model: name, APIKey: cfg.OpenAI.APIKey, BaseURL: cfg.OpenAI.BaseURL}, nil
	}
}

func buildGate(cfg *myai3.Config) moderation.Gate {
	if !cfg.Moderation.Enabled {
		log.Warn().Msg("Moderation is disabled")
		return moderation.Disabled{}
	}
	gate := moderation.NewOpenAIGate(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		gate.BaseURL = cfg.OpenAI.BaseURL
	}
	if cfg.Moderation.Model != "" {
		gate.Model = cfg.Moderation.Model
	}
	return gate
}

// buildVectorSearch wires the knowledge base tool when it is enabled and
// both embeddings and a database are available.
func buildVectorSearch(cfg *myai3.Config, client *genai.Client, store stores.MessageStore) (*common_tools.VectorSearch, error) {
	if !cfg.Vector.Enabled {
		return nil, nil
	}
	if client == nil || store == nil {
		log.Warn().Msg("Vector search needs GEMINI_API_KEY and a database; vectorDatabaseSearch is disabled")
		return nil, nil
	}
	index, err := stores.NewGORMVectorStore(store.DB())
	if err != nil {
		return nil, err
	}
	return &common_tools.VectorSearch{
		Embedder: &gemini.Embedder{Client: client, Model: cfg.Gemini.EmbeddingModel},
		Index:    index,
		MinScore: cfg.Vector.MinScore,
	}, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := gemini.NewClient(ctx, cfg.Gemini.APIKey)
	if err != nil {
		return err
	}
	store, err := stores.NewStore(&cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	if store == nil {
		return fmt.Errorf("ingest needs a database; set DATABASE_TYPE and DATABASE_URL")
	}
	defer store.Close()

	index, err := stores.NewGORMVectorStore(store.DB())
	if err != nil {
		return err
	}

	in := &ingest.Ingester{
		Embedder:    &gemini.Embedder{Client: client, Model: cfg.Gemini.EmbeddingModel},
		Index:       index,
		ChunkSize:   chunkSize,
		Concurrency: concurrency,
	}
	res, err := in.Ingest(ctx, args)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d chunks from %d files\n", res.Chunks, res.Files)
	return nil
}
