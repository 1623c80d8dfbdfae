package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const pgBatchSize = 50

// pgSink owns the buffer shared by a PGHandler and its WithAttrs children.
type pgSink struct {
	db       *gorm.DB
	fallback *slog.Logger
	mu       sync.Mutex
	buffer   []models.SystemLog
	ticker   *time.Ticker
	done     chan struct{}
	stopped  sync.WaitGroup
	stopOnce sync.Once
}

// PGHandler is an slog.Handler that batches ERROR+ logs to PostgreSQL.
// Flush failures are reported on the fallback logger so they never re-enter
// this handler.
type PGHandler struct {
	sink   *pgSink
	attrs  []groupedAttr
	prefix string
}

// groupedAttr remembers the group an attribute was added under.
type groupedAttr struct {
	prefix string
	attr   slog.Attr
}

func NewPGHandler(db *gorm.DB, fallback slog.Handler) *PGHandler {
	s := &pgSink{
		db:       db,
		fallback: slog.New(fallback),
		buffer:   make([]models.SystemLog, 0, pgBatchSize),
		ticker:   time.NewTicker(5 * time.Second),
		done:     make(chan struct{}),
	}
	s.stopped.Add(1)
	go s.flushLoop()
	return &PGHandler{sink: s}
}

func (s *pgSink) flushLoop() {
	defer s.stopped.Done()
	for {
		select {
		case <-s.ticker.C:
			s.flush()
		case <-s.done:
			s.flush()
			return
		}
	}
}

func (s *pgSink) flush() {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.buffer
	s.buffer = make([]models.SystemLog, 0, pgBatchSize)
	s.mu.Unlock()

	if err := s.db.CreateInBatches(batch, pgBatchSize).Error; err != nil {
		s.fallback.Error("failed to flush system logs to DB", "error", err, "count", len(batch))
	}
}

// Stop flushes what is buffered and waits for the flush loop to exit.
func (h *PGHandler) Stop() {
	h.sink.stopOnce.Do(func() {
		h.sink.ticker.Stop()
		close(h.sink.done)
	})
	h.sink.stopped.Wait()
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

	extra := make(map[string]any)
	for _, a := range h.attrs {
		h.apply(&entry, extra, a.prefix, a.attr)
	}
	record.Attrs(func(a slog.Attr) bool {
		h.apply(&entry, extra, h.prefix, a)
		return true
	})

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Extra = datatypes.JSON(b)
		}
	}

	h.sink.mu.Lock()
	h.sink.buffer = append(h.sink.buffer, entry)
	needFlush := len(h.sink.buffer) >= pgBatchSize
	h.sink.mu.Unlock()

	if needFlush {
		go h.sink.flush()
	}
	return nil
}

// apply lifts top-level moderation keys into columns and flattens everything
// else into extra, with group names joined by dots.
func (h *PGHandler) apply(entry *models.SystemLog, extra map[string]any, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range v.Group() {
			h.apply(entry, extra, prefix, ga)
		}
		return
	}

	if prefix == "" {
		val := v.String()
		switch a.Key {
		case "event":
			entry.Event = val
			return
		case "requestid", "request_id":
			entry.RequestID = val
			return
		case "review_id":
			entry.ReviewID = &val
			return
		case "report_id":
			entry.ReportID = &val
			return
		case "image_id":
			entry.ImageID = &val
			return
		case "error":
			entry.Error = val
			return
		}
	}
	extra[prefix+a.Key] = v.Any()
}

func (h *PGHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]groupedAttr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		merged = append(merged, groupedAttr{prefix: h.prefix, attr: a})
	}
	return &PGHandler{sink: h.sink, attrs: merged, prefix: h.prefix}
}

func (h *PGHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &PGHandler{sink: h.sink, attrs: h.attrs, prefix: h.prefix + name + "."}
}
