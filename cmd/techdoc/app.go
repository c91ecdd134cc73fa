package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"techdoc/internal/config"
	"techdoc/internal/docgen"
	"techdoc/internal/embedder"
	"techdoc/internal/indexer"
	"techdoc/internal/llm"
	"techdoc/internal/scanner"
	"techdoc/internal/storage"
	"techdoc/internal/vecindex"
)

// app holds the wired pipeline shared by every command. Logs go to
// stderr; stdout carries command output (and the MCP protocol).
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	store *storage.SQLiteStorage
	embed embedder.Embedder
	index *vecindex.Index
	ix    *indexer.Indexer
}

func newApp() (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	log := newLogger(cfg.Log.Level)

	if err := os.MkdirAll(cfg.DataPath(), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}

	emb, err := embedder.New(embedder.Config{
		Provider:  cfg.Embedding.Provider,
		APIKey:    cfg.Embedding.APIKey,
		CacheSize: cfg.Embedding.CacheSize,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("configure embedder: %w", err)
	}

	index, err := vecindex.Load(cfg.IndexDir(), emb.Dimension(), log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load vector index: %w", err)
	}

	sc, err := scanner.New(cfg.Root, scanner.Config{
		Extensions:       cfg.Scan.Extensions,
		IgnorePatterns:   cfg.Scan.Ignores,
		RespectGitignore: cfg.Scan.Gitignore,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("configure scanner: %w", err)
	}

	ix := indexer.New(indexer.Config{
		Workers:    cfg.Index.Workers,
		PersistDir: cfg.IndexDir(),
	}, sc, store, emb, index, log)

	return &app{
		cfg:   cfg,
		log:   log,
		store: store,
		embed: emb,
		index: index,
		ix:    ix,
	}, nil
}

func (a *app) Close() {
	_ = a.embed.Close()
	_ = a.store.Close()
}

// docGenerator wires the documentation generator, or returns an error
// when no LLM backend can be configured.
func (a *app) docGenerator() (*docgen.Generator, error) {
	chat, err := llm.New(llm.Config{
		Provider:  a.cfg.LLM.Provider,
		APIKey:    a.cfg.LLM.APIKey,
		Model:     a.cfg.LLM.Model,
		OllamaURL: a.cfg.LLM.Host,
	})
	if err != nil {
		return nil, fmt.Errorf("configure llm: %w", err)
	}

	return docgen.New(docgen.Options{
		ProjectRoot: a.cfg.Root,
		OutputDir:   a.cfg.OutputDir(),
	}, a.store, a.index, a.embed, chat, a.log), nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}
