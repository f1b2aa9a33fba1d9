package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const batchSize = 50

// Sink persists a batch of log records.
type Sink interface {
	WriteLogs(entries []models.SystemLog) error
}

// PGHandler is an slog.Handler that batches ERROR+ records into a Sink.
type PGHandler struct {
	sink   Sink
	attrs  []slog.Attr
	state  *bufferState
	ticker *time.Ticker
	done   chan struct{}
}

type bufferState struct {
	mu     sync.Mutex
	buffer []models.SystemLog
}

func NewPGHandler(sink Sink, interval time.Duration) *PGHandler {
	h := &PGHandler{
		sink:   sink,
		state:  &bufferState{buffer: make([]models.SystemLog, 0, batchSize)},
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go h.flushLoop()
	return h
}

func (h *PGHandler) flushLoop() {
	for {
		select {
		case <-h.ticker.C:
			h.Flush()
		case <-h.done:
			h.Flush()
			return
		}
	}
}

// Flush writes whatever is buffered.
func (h *PGHandler) Flush() {
	h.state.mu.Lock()
	if len(h.state.buffer) == 0 {
		h.state.mu.Unlock()
		return
	}
	batch := h.state.buffer
	h.state.buffer = make([]models.SystemLog, 0, batchSize)
	h.state.mu.Unlock()

	if err := h.sink.WriteLogs(batch); err != nil {
		// Not slog.Default: it fans out back into this handler.
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Warn("failed to flush system logs", "error", err, "count", len(batch))
	}
}

func (h *PGHandler) Stop() {
	h.ticker.Stop()
	close(h.done)
}

// Enabled only handles ERROR and above.
func (h *PGHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}

func (h *PGHandler) Handle(_ context.Context, record slog.Record) error {
	entry := models.SystemLog{
		ID:        uuid.New(),
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
	}

	extra := make(map[string]interface{})
	apply := func(a slog.Attr) bool {
		switch a.Key {
		case "request_id":
			entry.RequestID = a.Value.String()
		case "user_id":
			s := a.Value.String()
			entry.UserID = &s
		case "route", "path":
			entry.Route = a.Value.String()
		case "error":
			entry.Error = a.Value.String()
		default:
			extra[a.Key] = a.Value.Any()
		}
		return true
	}
	for _, a := range h.attrs {
		apply(a)
	}
	record.Attrs(apply)

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	h.state.mu.Lock()
	h.state.buffer = append(h.state.buffer, entry)
	needFlush := len(h.state.buffer) >= batchSize
	h.state.mu.Unlock()

	if needFlush {
		go h.Flush()
	}
	return nil
}

func (h *PGHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &PGHandler{sink: h.sink, attrs: merged, state: h.state, ticker: h.ticker, done: h.done}
}

func (h *PGHandler) WithGroup(name string) slog.Handler {
	return h
}
