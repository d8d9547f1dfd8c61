// Package main is the yomu CLI entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/yomu/internal/cli"
	"github.com/hyperjump/yomu/internal/config"
	"github.com/hyperjump/yomu/internal/embedding"
	"github.com/hyperjump/yomu/internal/reader"
	"github.com/hyperjump/yomu/internal/storage"
	"github.com/hyperjump/yomu/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/yomu/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used instead.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				return config.Load(fallback)
			}
		}
	}
	return config.Load(path)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch command := os.Args[1]; command {
	case "ask":
		runAsk()
	case "version", "--version", "-v":
		fmt.Printf("yomu version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	question := fs.String("question", "", "question to ask (required)")
	format := fs.String("format", "text", "output format: text or json")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	if *question == "" || fs.NArg() == 0 {
		fmt.Println("Usage: yomu ask -question \"...\" [flags] document.txt [more.txt ...]")
		fs.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	documents, err := readDocuments(fs.Args())
	if err != nil {
		logger.Fatal("failed to read documents", zap.Error(err))
	}

	r, cleanup, err := buildReader(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build reader", zap.Error(err))
	}
	defer cleanup()

	ctx := context.Background()
	readerCfg := cfg.Reader.ReaderConfiguration()
	answers, err := r.GetAnswersFromDocuments(ctx, readerCfg, documents, *question)
	if err != nil {
		logger.Fatal("failed to answer question", zap.Error(err))
	}

	if err := cli.WriteAnswers(os.Stdout, *question, answers.Collect(), cli.AnswerOutputFormat(*format)); err != nil {
		logger.Fatal("failed to write answers", zap.Error(err))
	}
}

// buildReader wires model, optional persistent store, cache, and reader from
// config. The returned cleanup closes whatever was opened.
func buildReader(cfg *config.Config, logger *zap.Logger) (*reader.MachineReader, func(), error) {
	model, err := embedding.NewModel(cfg.Model.Backend, cfg.Model.EncoderPath, cfg.Model.ScorerPath,
		cfg.Model.Dimensions, cfg.Model.MaxTokens)
	if err != nil {
		return nil, nil, err
	}

	var store embedding.Store
	var sqlStore *storage.SQLiteStore
	if cfg.Cache.DatabasePath != "" {
		sqlStore, err = storage.NewSQLiteStore(cfg.Cache.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		store = sqlStore
		logger.Debug("embedding persistence enabled", zap.String("path", cfg.Cache.DatabasePath))
	}

	cache := embedding.NewDocumentCache(model, cfg.Cache.Size, store)
	cleanup := func() {
		if sqlStore != nil {
			_ = sqlStore.Close()
		}
		if closer, ok := model.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}
	return reader.New(model, cache, logger), cleanup, nil
}

// readDocuments reads each path as one plain-text document.
func readDocuments(paths []string) ([]string, error) {
	documents := make([]string, len(paths))
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read document %s: %w", path, err)
		}
		documents[i] = string(data)
	}
	return documents, nil
}

func printUsage() {
	fmt.Println(`yomu - machine reading over text documents

Usage:
  yomu ask -question "..." [flags] document.txt [more.txt ...]
  yomu version
  yomu help

Ask flags:
  -config string    config file path (default ` + defaultConfigPath + `)
  -question string  question to ask (required)
  -format string    output format: text or json (default "text")
  -debug            enable debug logging`)
}
