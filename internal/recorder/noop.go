package recorder

import (
	"time"

	"ETFDesk/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAnalysis(_ *model.Analysis) error { return nil }
func (n *NoopRecorder) Prune(_ time.Time) (int64, error)       { return 0, nil }
func (n *NoopRecorder) Close() error                           { return nil }
