// Package cli implements the command-line interface, wiring adapters
// to core services and exposing them as cobra commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/brightlyhq/brightly/internal/adapters/driven/config/file"
	"github.com/brightlyhq/brightly/internal/adapters/driven/embedding/failover"
	"github.com/brightlyhq/brightly/internal/adapters/driven/embedding/hashing"
	openaiembed "github.com/brightlyhq/brightly/internal/adapters/driven/embedding/openai"
	openaillm "github.com/brightlyhq/brightly/internal/adapters/driven/llm/openai"
	"github.com/brightlyhq/brightly/internal/adapters/driven/remote/local"
	"github.com/brightlyhq/brightly/internal/adapters/driven/remote/s3"
	"github.com/brightlyhq/brightly/internal/adapters/driven/storage/sqlite"
	"github.com/brightlyhq/brightly/internal/core/domain"
	"github.com/brightlyhq/brightly/internal/core/ports/driven"
	"github.com/brightlyhq/brightly/internal/core/services"
	"github.com/brightlyhq/brightly/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose   bool
	configDir string
)

// Wired services, populated by initServices before any command runs.
var (
	cfg       *file.ConfigStore
	store     *sqlite.Store
	remote    driven.RemoteStore
	embedder  driven.EmbeddingService
	llm       driven.LLMService
	index     *services.IndexService
	assistant *services.AssistantService
)

var rootCmd = &cobra.Command{
	Use:   "brightly",
	Short: "School assistant backend",
	Long: `Brightly is the ABC Senior Secondary School assistant: a
question-answering service over the school's document set with a
built-in math solver and a document management API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return initServices()
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		closeServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default ~/.brightly)")
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeServices()
		os.Exit(1)
	}
}

// initServices builds the full adapter and service graph.
func initServices() error {
	var err error
	cfg, err = file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	seedFromEnv(cfg)

	store, err = sqlite.NewStore(cfg.GetString("storage.data_dir"))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	remote, err = buildRemoteStore(cfg)
	if err != nil {
		return fmt.Errorf("connect remote store: %w", err)
	}

	embedder, err = buildEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("build embedder: %w", err)
	}

	llm = buildLLM(cfg)

	mirrorDir := cfg.GetString("mirror.dir")
	if mirrorDir == "" {
		mirrorDir = filepath.Join(filepath.Dir(store.Path()), "mirror")
	}
	mirror := services.NewMirrorService(remote, store.ManifestStore(), mirrorDir)
	index = services.NewIndexService(mirror, embedder, store.SnapshotStore())

	memory := services.NewSessionMemory(embedder)
	synth := services.NewSynthesizer(index, memory, llm)
	emotion := services.NewEmotionHandler(llm)

	// The meta handler reads the conversation log lazily so it can be
	// wired before the assistant exists.
	meta := services.NewMetaHandler(func() []domain.ConversationTurn {
		return assistant.History()
	})
	router := services.NewRouter(synth, emotion, meta)
	assistant = services.NewAssistantService(router, memory, index, store.SessionStore())

	return nil
}

func closeServices() {
	if assistant != nil {
		assistant.Close(context.Background())
	}
	if embedder != nil {
		_ = embedder.Close()
	}
	if llm != nil {
		_ = llm.Close()
	}
	if remote != nil {
		_ = remote.Close()
	}
	if store != nil {
		_ = store.Close()
	}
}

// seedFromEnv maps environment variables onto config keys without
// overwriting values already in the config file.
func seedFromEnv(cfg *file.ConfigStore) {
	env := map[string]string{
		"OPENAI_API_KEY":         "openai.api_key",
		"OPENAI_BASE_URL":        "openai.base_url",
		"BRIGHTLY_S3_ENDPOINT":   "remote.endpoint",
		"BRIGHTLY_S3_BUCKET":     "remote.bucket",
		"BRIGHTLY_S3_ACCESS_KEY": "remote.access_key",
		"BRIGHTLY_S3_SECRET_KEY": "remote.secret_key",
		"BRIGHTLY_REMOTE_DIR":    "remote.dir",
		"BRIGHTLY_ADDR":          "server.addr",
	}
	for name, key := range env {
		if value := os.Getenv(name); value != "" {
			cfg.SetDefault(key, value)
		}
	}
}

// buildRemoteStore picks the document store backend. An S3 bucket when
// configured, a plain directory otherwise.
func buildRemoteStore(cfg *file.ConfigStore) (driven.RemoteStore, error) {
	if bucket := cfg.GetString("remote.bucket"); bucket != "" {
		return s3.NewStore(s3.Config{
			Endpoint:  cfg.GetString("remote.endpoint"),
			AccessKey: cfg.GetString("remote.access_key"),
			SecretKey: cfg.GetString("remote.secret_key"),
			Bucket:    bucket,
			Prefix:    cfg.GetString("remote.prefix"),
			UseSSL:    cfg.GetBool("remote.use_ssl"),
		})
	}

	dir := cfg.GetString("remote.dir")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".brightly", "documents")
	}
	return local.NewStore(dir)
}

// buildEmbedder returns the OpenAI embedder with a deterministic
// hashing fallback, or the fallback alone when no API key is set.
func buildEmbedder(cfg *file.ConfigStore) (driven.EmbeddingService, error) {
	dimensions := cfg.GetInt("embedding.dimensions")
	if dimensions == 0 {
		dimensions = hashing.DefaultDimensions
	}
	fallback := hashing.NewEmbeddingService(dimensions)

	apiKey := cfg.GetString("openai.api_key")
	if apiKey == "" {
		logger.Warn("no OpenAI API key configured, using offline embeddings")
		return fallback, nil
	}

	primary, err := openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     apiKey,
		BaseURL:    cfg.GetString("openai.base_url"),
		Model:      cfg.GetString("embedding.model"),
		Dimensions: dimensions,
	})
	if err != nil {
		return nil, err
	}
	return failover.New(primary, fallback)
}

// buildLLM returns the OpenAI chat service, or a stub that always
// reports generation failure when no API key is set. The stub keeps
// the cascade running; the synthesizer degrades gracefully.
func buildLLM(cfg *file.ConfigStore) driven.LLMService {
	apiKey := cfg.GetString("openai.api_key")
	if apiKey == "" {
		logger.Warn("no OpenAI API key configured, generative answers disabled")
		return offlineLLM{}
	}

	svc, err := openaillm.NewLLMService(openaillm.Config{
		APIKey:  apiKey,
		BaseURL: cfg.GetString("openai.base_url"),
		Model:   cfg.GetString("llm.model"),
	})
	if err != nil {
		logger.Warn("LLM unavailable: %v", err)
		return offlineLLM{}
	}
	return svc
}

// offlineLLM stands in when no API key is configured.
type offlineLLM struct{}

var _ driven.LLMService = offlineLLM{}

func (offlineLLM) Complete(context.Context, string, string, driven.CompleteOptions) (string, error) {
	return "", fmt.Errorf("no API key configured: %w", domain.ErrGenerationFailed)
}

func (offlineLLM) ModelName() string { return "offline" }
func (offlineLLM) Close() error      { return nil }
