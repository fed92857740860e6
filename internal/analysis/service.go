package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ETFDesk/internal/calculator"
	"ETFDesk/internal/collector"
	"ETFDesk/internal/instrument"
	"ETFDesk/internal/metrics"
	"ETFDesk/internal/model"
	"ETFDesk/internal/recorder"
	"ETFDesk/internal/session"
	"ETFDesk/internal/strategy"
)

// Service runs the fetch and compute pipeline for one code.
type Service struct {
	Collector  *collector.Collector
	Bands      calculator.BandParams
	Engine     *strategy.Engine
	Recorder   recorder.Recorder
	HistoryCap int
	Now        func() time.Time
}

// NewService creates a Service. A nil rec disables journaling.
func NewService(c *collector.Collector, bands calculator.BandParams, engine *strategy.Engine, rec recorder.Recorder, historyCap int) *Service {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Service{
		Collector:  c,
		Bands:      bands,
		Engine:     engine,
		Recorder:   rec,
		HistoryCap: historyCap,
		Now:        time.Now,
	}
}

// Run resolves code, fetches its quote and history, and derives bands, tiers
// and the signal. Any failure aborts the whole run.
func (s *Service) Run(ctx context.Context, code string) (*model.Analysis, error) {
	begin := time.Now()
	a, err := s.run(ctx, code)
	metrics.AnalysisDuration.Observe(time.Since(begin).Seconds())
	metrics.Analyses.WithLabelValues(Outcome(err)).Inc()
	if err != nil {
		zap.L().Warn("analysis failed",
			zap.String("code", code),
			zap.String("kind", string(KindOf(err))),
			zap.Error(err))
		return nil, err
	}

	if err := s.Recorder.RecordAnalysis(a); err != nil {
		zap.L().Error("record analysis", zap.String("code", code), zap.Error(err))
	}
	zap.L().Info("analysis done",
		zap.String("code", a.Instrument.Code),
		zap.String("market", string(a.Instrument.Market)),
		zap.Float64("price", a.Quote.Price),
		zap.Float64("upper", a.Bands.Upper),
		zap.Float64("lower", a.Bands.Lower),
		zap.String("signal", string(a.Signal)),
		zap.Duration("took", time.Since(begin)))
	return a, nil
}

func (s *Service) run(ctx context.Context, code string) (*model.Analysis, error) {
	series, err := s.Collector.Collect(ctx, code)
	if err != nil {
		return nil, err
	}

	bands, err := calculator.CalculateBands(calculator.ExtractCloses(series.Bars), s.Bands)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", series.Instrument.QuoteKey(), err)
	}
	tiers, signal := s.Engine.Evaluate(series.Quote.Price, bands)

	return &model.Analysis{
		ID:         uuid.NewString(),
		Instrument: series.Instrument,
		Quote:      series.Quote,
		Bars:       series.Bars,
		Bands:      bands,
		Tiers:      tiers,
		Signal:     signal,
		CreatedAt:  s.Now(),
	}, nil
}

// View is what one action produces for display: either a complete analysis
// or an error message, never a mix.
type View struct {
	Code     string
	Analysis *model.Analysis
	Kind     Kind
	Message  string
}

// Failed reports whether the action produced an error view.
func (v View) Failed() bool { return v.Analysis == nil }

// Handle is the action handler behind every surface. It records a well-formed
// code in the returned state whether or not the fetch succeeds.
func (s *Service) Handle(ctx context.Context, st session.State, code string) (session.State, View) {
	code = instrument.Normalize(code)
	if instrument.ValidateCode(code) == nil {
		st = st.Remember(code, s.HistoryCap)
	}
	st.Current = code

	a, err := s.Run(ctx, code)
	if err != nil {
		return st, View{Code: code, Kind: KindOf(err), Message: ErrorMessage(err)}
	}
	return st, View{Code: code, Analysis: a}
}
