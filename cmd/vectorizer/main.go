// Package main is the vectorizer CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/docfold/vectorizer/internal/cli"
	"github.com/docfold/vectorizer/internal/config"
	"github.com/docfold/vectorizer/internal/embedding"
	"github.com/docfold/vectorizer/internal/models"
	"github.com/docfold/vectorizer/internal/pipeline"
	"github.com/docfold/vectorizer/internal/server"
	"github.com/docfold/vectorizer/internal/store"
	"github.com/docfold/vectorizer/internal/watcher"
	"github.com/docfold/vectorizer/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/vectorizer/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "vectorizer serve" from the project dir uses the
// project's config (including debug). Returns the config and the path that
// was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "ingest":
		runIngest()
	case "search":
		runSearch()
	case "stats":
		runStats()
	case "serve":
		runServe()
	case "watch":
		runWatch()
	case "version", "--version", "-v":
		fmt.Printf("vectorizer version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Store    store.VectorStore
	Embedder embedding.Embedder
	Pipeline *pipeline.Pipeline
}

func (c *Components) Close() {
	if c.Pipeline != nil {
		_ = c.Pipeline.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	var embedder embedding.Embedder
	onnxEmbedder, err := embedding.NewONNXEmbedder(
		cfg.Embedding.ModelPath,
		cfg.Embedding.ModelName,
		cfg.Embedding.Dimensions,
		cfg.Embedding.MaxTokens,
		cfg.Embedding.CacheSize,
	)
	if err != nil {
		logger.Warn("ONNX embedder unavailable, using mock embedder",
			zap.String("model_path", cfg.Embedding.ModelPath),
			zap.Error(err))
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	} else {
		embedder = onnxEmbedder
	}

	vectorStore, err := store.New(ctx, cfg, logger)
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	logger.Info("vector store initialized",
		zap.String("backend", vectorStore.Name()),
		zap.String("model", embedder.ModelName()),
		zap.Int("dimensions", embedder.Dimensions()))

	return &Components{
		Store:    vectorStore,
		Embedder: embedder,
		Pipeline: pipeline.New(vectorStore, embedder, logger),
	}, nil
}

func setup(configPath string) (*config.Config, *zap.Logger, *Components) {
	cfg, resolvedPath, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolvedPath))
	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, logger, components
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	recursive := fs.Bool("recursive", false, "walk subdirectories when ingesting a directory")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	// Positional path overrides the configured source directory.
	path := cfg.Ingest.SourceDir
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	walkSubdirs := *recursive || cfg.Ingest.RecursiveOrDefault()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	if info.IsDir() {
		results, failed, err := components.Pipeline.ProcessDirectory(ctx, path, cfg.Ingest.Extensions, walkSubdirs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteIngestResults(os.Stdout, results, failed, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	result, err := components.Pipeline.ProcessDocument(ctx, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteIngestResults(os.Stdout, []*models.IngestResult{result}, 0, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// buildSearchQuery joins all positional args with spaces so multi-word
// queries work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the
// query to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: vectorizer search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  vectorizer search machine learning
  vectorizer search "machine learning"       # same as above
  vectorizer search --type pdf quarterly report
  vectorizer search --top-k 10 --output json your query
`)
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	topK := fs.Int("top-k", 0, "number of results (default from config)")
	fileType := fs.String("type", "", "restrict results to one file type: pdf, txt, or docx")
	outputFormat := fs.String("output", "text", "output format: text (human-readable), compact (one result per line), or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	if fs.NArg() < 1 {
		printSearchUsage(fs)
		os.Exit(1)
	}
	query := buildSearchQuery(fs.Args())
	if query == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	var fileTypeFilter models.FileType
	if *fileType != "" {
		ft, err := models.ParseFileType(*fileType)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fileTypeFilter = ft
	}

	cfg, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	k := *topK
	if k <= 0 {
		k = cfg.Search.DefaultTopK
	}
	if k > cfg.Search.MaxTopK {
		k = cfg.Search.MaxTopK
	}

	results, err := components.Pipeline.Search(context.Background(), query, k, fileTypeFilter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, query, results, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	_, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	stats := components.Pipeline.Statistics(context.Background())
	if err := cli.WriteStatistics(os.Stdout, stats, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	srv := server.NewServer(components.Pipeline, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	syncExisting := fs.Bool("sync-existing", false, "ingest files already present in the source directory on startup")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(*configPath)
	defer logger.Sync()
	defer components.Close()

	if *syncExisting {
		results, failed, err := components.Pipeline.ProcessDirectory(
			context.Background(),
			cfg.Ingest.SourceDir,
			cfg.Ingest.Extensions,
			cfg.Ingest.RecursiveOrDefault(),
		)
		if err != nil {
			logger.Warn("initial sync failed", zap.Error(err))
		} else {
			logger.Info("initial sync complete",
				zap.Int("processed", len(results)),
				zap.Int("failed", failed))
		}
	}

	w := watcher.NewWatcher(
		cfg.Ingest.SourceDir,
		cfg.Ingest.Extensions,
		cfg.Ingest.RecursiveOrDefault(),
		func(path string) {
			if _, err := components.Pipeline.ProcessDocument(context.Background(), path); err != nil {
				logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
			}
		},
		logger,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := w.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	defer w.Stop()
	logger.Info("watching for documents", zap.String("dir", cfg.Ingest.SourceDir))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down...")
}

func printUsage() {
	fmt.Println(`vectorizer - Document embedding and similarity search

Usage:
  vectorizer ingest [flags] [path]    Process documents into the vector store
  vectorizer search [flags] <query>   Similarity search over stored chunks
  vectorizer stats [flags]            Show corpus statistics
  vectorizer serve [flags]            Start the HTTP server
  vectorizer watch [flags]            Watch the source directory and ingest changes
  vectorizer version                  Show version
  vectorizer help                     Show this help

Ingest Flags:
  --config string     Config file path (default: /usr/local/etc/vectorizer/config.yaml)
  --recursive         Walk subdirectories when ingesting a directory
  --output string     Output format: text or json (default: text)

Search Flags:
  --config string     Config file path
  --top-k int         Number of results (default from config)
  --type string       Restrict results to one file type: pdf, txt, or docx
  --output string     Output format: text, compact, or json (default: text)

Stats Flags:
  --config string     Config file path
  --output string     Output format: text or json (default: text)

Watch Flags:
  --config string     Config file path
  --sync-existing     Ingest files already present on startup

Examples:
  vectorizer ingest ./documents
  vectorizer ingest --recursive
  vectorizer search "machine learning algorithms"
  vectorizer search --type pdf quarterly report
  vectorizer search --output json "query"   # structured JSON for other apps
  vectorizer stats
  vectorizer serve
  vectorizer watch --sync-existing`)
}
