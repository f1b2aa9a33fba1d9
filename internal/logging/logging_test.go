package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	mu      sync.Mutex
	entries []models.SystemLog
	err     error
}

func (s *memorySink) WriteLogs(entries []models.SystemLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entries...)
	return nil
}

func (s *memorySink) snapshot() []models.SystemLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SystemLog(nil), s.entries...)
}

type failingHandler struct{ calls int }

func (f *failingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (f *failingHandler) Handle(context.Context, slog.Record) error {
	f.calls++
	return errors.New("boom")
}
func (f *failingHandler) WithAttrs([]slog.Attr) slog.Handler { return f }
func (f *failingHandler) WithGroup(string) slog.Handler      { return f }

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestPGHandlerMapsAttributes(t *testing.T) {
	sink := &memorySink{}
	h := NewPGHandler(sink, time.Hour)
	defer h.Stop()

	logger := slog.New(h).With("request_id", "req-1")
	logger.Info("ignored")
	logger.Error("favorite toggle failed", "user_id", "u-1", "route", "/api/favorites", "error", "db down", "property_id", "p-9")
	h.Flush()

	entries := sink.snapshot()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "favorite toggle failed", e.Message)
	assert.Equal(t, "ERROR", e.Level)
	assert.Equal(t, "req-1", e.RequestID)
	require.NotNil(t, e.UserID)
	assert.Equal(t, "u-1", *e.UserID)
	assert.Equal(t, "/api/favorites", e.Route)
	assert.Equal(t, "db down", e.Error)
	assert.JSONEq(t, `{"property_id":"p-9"}`, string(e.Extra))
}

func TestPGHandlerFlushFailureDropsBatch(t *testing.T) {
	sink := &memorySink{err: errors.New("unavailable")}
	h := NewPGHandler(sink, time.Hour)
	defer h.Stop()

	slog.New(h).Error("first")
	h.Flush()

	sink.mu.Lock()
	sink.err = nil
	sink.mu.Unlock()
	h.Flush()

	assert.Empty(t, sink.snapshot())
}

func TestMultiHandlerContinuesAfterFailure(t *testing.T) {
	var buf bytes.Buffer
	bad := &failingHandler{}
	m := NewMultiHandler(bad, slog.NewJSONHandler(&buf, nil))

	slog.New(m).Info("listing published", "property_id", "p-1")

	assert.Equal(t, 1, bad.calls)
	assert.Contains(t, buf.String(), "listing published")
}

type stubPurger struct {
	cutoff  time.Time
	deleted int64
}

func (p *stubPurger) PurgeBefore(cutoff time.Time) (int64, error) {
	p.cutoff = cutoff
	return p.deleted, nil
}

func TestRunCleanupUsesRetention(t *testing.T) {
	p := &stubPurger{deleted: 4}
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)

	runCleanup(p, 30*24*time.Hour, now)

	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), p.cutoff)
}
