package recorder

import (
	"time"

	"ETFDesk/internal/model"
)

// Recorder journals completed analyses for later review. The journal is
// write-only from the dashboard's point of view; sessions never read it.
type Recorder interface {
	RecordAnalysis(a *model.Analysis) error
	Prune(before time.Time) (int64, error)
	Close() error
}
