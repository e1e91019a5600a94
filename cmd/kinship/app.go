package main

import (
	"fmt"
	"log/slog"

	"github.com/kittclouds/kinship/internal/config"
	"github.com/kittclouds/kinship/internal/logging"
	"github.com/kittclouds/kinship/internal/session"
	"github.com/kittclouds/kinship/internal/store"
	"github.com/kittclouds/kinship/pkg/family"
	"github.com/kittclouds/kinship/pkg/textmetrics"
)

// app is everything one CLI invocation works on: the config, the SQLite
// database holding the tree and the log journal, and a session over the tree.
type app struct {
	cfg     *config.Config
	kv      *store.SQLiteStore
	journal *logging.Journal
	log     *slog.Logger
	sess    *session.Session
}

// openApp loads the config, opens the database and restores the tree.
// dataPath overrides the configured database when non-empty.
func openApp(configPath, dataPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dataPath != "" {
		cfg.DataPath = dataPath
	}

	kv, err := store.NewSQLiteStoreWithDSN(cfg.DataPath)
	if err != nil {
		return nil, err
	}

	journal := logging.NewJournal(kv, cfg.Log.JournalSize)
	journalErr := journal.Load()

	logger := logging.New(cfg.Log, journal)
	log := logger.With("component", "CLI")
	if journalErr != nil {
		log.Warn("Discarding unreadable journal", "error", journalErr)
	}

	metrics := cfg.Node.Metrics()
	if m, err := textmetrics.New(); err != nil {
		log.Warn("Text measurement unavailable, using base node width", "error", err)
	} else {
		metrics.Measurer = m
	}

	sess := session.New(family.NewTree(logger), session.Options{
		Store:   kv,
		Metrics: metrics,
		Style:   cfg.Style,
		Width:   float64(cfg.Canvas.Width),
		Height:  float64(cfg.Canvas.Height),
		Logger:  logger,
	})
	if _, err := sess.Load(); err != nil {
		kv.Close()
		return nil, fmt.Errorf("failed to load tree from %s: %w", cfg.DataPath, err)
	}

	return &app{cfg: cfg, kv: kv, journal: journal, log: log, sess: sess}, nil
}

// Close closes the database. Every mutation has already been saved.
func (a *app) Close() error {
	if err := a.journal.Err(); err != nil {
		a.log.Warn("Journal could not be saved", "error", err)
	}
	return a.kv.Close()
}

// person resolves an id argument.
func (a *app) person(id string) (*family.Person, error) {
	p, ok := a.sess.Tree().Person(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", session.ErrUnknownPerson, id)
	}
	return p, nil
}
