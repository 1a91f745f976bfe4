package telemetry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// EventsFile is the name of the JSONL stream inside the artifacts directory.
const EventsFile = "events.jsonl"

// Recorder appends one JSON object per event to <dir>/events.jsonl.
// A nil or disabled Recorder drops every event.
type Recorder struct {
	mu     sync.Mutex
	file   *os.File
	events zerolog.Logger
}

// Open creates the artifacts directory and opens the events file for append.
func Open(dir string) (*Recorder, error) {
	if dir == "" {
		dir = ".agent"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("telemetry: mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, EventsFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	zl := zerolog.New(f).With().Timestamp().Logger()
	return &Recorder{file: f, events: zl}, nil
}

// Enabled reports whether events are written anywhere.
func (r *Recorder) Enabled() bool { return r != nil && r.file != nil }

// Emit writes a single event line with the event name, the turn ID from ctx
// when present, and fields. Callers must never pass raw message text.
func (r *Recorder) Emit(ctx context.Context, name string, fields map[string]any) {
	if !r.Enabled() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ev := r.events.Log().Str("event", name)
	if id, ok := TurnIDFromContext(ctx); ok {
		ev = ev.Str("turn_id", id)
	}
	ev.Fields(fields).Send()
}

// Close flushes and closes the events file.
func (r *Recorder) Close() error {
	if !r.Enabled() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.file.Close()
	r.file = nil
	return err
}
