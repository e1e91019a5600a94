// Package logging provides structured logging for kinship.
//
// Every component logs through a *slog.Logger handed to it by its owner,
// tagged with a "component" attribute:
//
//	log := logger.With("component", "FamilyTree")
//	log.Info("Person created", "id", id)
//
// New fans records out to stderr (text or JSON) and, when given one, to a
// Journal: a bounded ring of recent entries persisted in the key-value store
// so the log can be exported after a restart. The journal files each entry
// under the record's component as its category.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// =============================================================================
// Configuration
// =============================================================================

// Config configures New. A zero Config logs Info and above to stderr as text.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL" validate:"omitempty,oneof=debug info warn error"`

	// JSON switches stderr output to JSON.
	JSON bool `yaml:"json" env:"JSON"`

	// Quiet disables stderr output; the journal still records.
	Quiet bool `yaml:"quiet" env:"QUIET"`

	// JournalSize caps the persisted journal.
	JournalSize int `yaml:"journal_size" env:"JOURNAL_SIZE" validate:"gte=0"`

	// Output replaces stderr, mainly for tests.
	Output io.Writer `yaml:"-"`
}

// ParseLevel maps a level name to slog. Unknown names are Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger writing to stderr and, if j is non-nil, to j.
func New(config Config, j *Journal) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(config.Level)}

	var handlers []slog.Handler
	if !config.Quiet {
		out := config.Output
		if out == nil {
			out = os.Stderr
		}
		if config.JSON {
			handlers = append(handlers, slog.NewJSONHandler(out, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(out, opts))
		}
	}
	if j != nil {
		handlers = append(handlers, NewJournalHandler(j, opts.Level))
	}

	switch len(handlers) {
	case 0:
		return Discard()
	case 1:
		return slog.New(handlers[0])
	default:
		return slog.New(&multiHandler{handlers: handlers})
	}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// =============================================================================
// Multi-Handler (Internal)
// =============================================================================

// multiHandler fans out log records to multiple slog handlers.
type multiHandler struct {
	handlers []slog.Handler
}

// Enabled returns true if any handler is enabled for the level.
func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle sends the record to all enabled handlers.
func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
