package logging

import (
	"context"
	"log/slog"
	"slices"
)

// CategoryKey is the attribute that becomes an entry's category.
const CategoryKey = "component"

// JournalHandler is a slog.Handler that appends records to a Journal.
type JournalHandler struct {
	journal *Journal
	level   slog.Leveler
	attrs   []slog.Attr // already prefixed with their groups
	groups  []string
}

// NewJournalHandler records everything at or above level into j.
func NewJournalHandler(j *Journal, level slog.Leveler) *JournalHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &JournalHandler{journal: j, level: level}
}

func (h *JournalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *JournalHandler) Handle(_ context.Context, r slog.Record) error {
	e := Entry{
		Timestamp: r.Time,
		Level:     r.Level.String(),
		Message:   r.Message,
	}

	add := func(a slog.Attr) {
		if a.Key == CategoryKey {
			e.Category = a.Value.String()
			return
		}
		if e.Data == nil {
			e.Data = make(map[string]any)
		}
		e.Data[a.Key] = jsonValue(a.Value)
	}

	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		for _, flat := range flatten(h.groups, a) {
			add(flat)
		}
		return true
	})

	h.journal.Append(e)
	return nil
}

func (h *JournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = slices.Clone(h.attrs)
	for _, a := range attrs {
		next.attrs = append(next.attrs, flatten(h.groups, a)...)
	}
	return &next
}

func (h *JournalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(slices.Clone(h.groups), name)
	return &next
}

// flatten resolves a and expands groups into dotted keys.
func flatten(groups []string, a slog.Attr) []slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return nil
	}
	if a.Value.Kind() == slog.KindGroup {
		sub := groups
		if a.Key != "" {
			sub = append(slices.Clone(groups), a.Key)
		}
		var out []slog.Attr
		for _, child := range a.Value.Group() {
			out = append(out, flatten(sub, child)...)
		}
		return out
	}
	if len(groups) > 0 {
		key := ""
		for _, g := range groups {
			key += g + "."
		}
		a.Key = key + a.Key
	}
	return []slog.Attr{a}
}

// jsonValue converts a resolved slog value into something encoding/json
// renders sensibly.
func jsonValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time()
	default:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return v.Any()
	}
}
