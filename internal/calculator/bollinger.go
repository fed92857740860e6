package calculator

import (
	"errors"
	"fmt"

	"ETFDesk/internal/model"

	"gonum.org/v1/gonum/stat"
)

// BandParams configures the Bollinger envelope. The same window is used for
// the moving average and the standard deviation.
type BandParams struct {
	Window int
	K      float64
}

// DefaultBandParams is the classic 20-period, 2-sigma envelope.
var DefaultBandParams = BandParams{Window: 20, K: 2}

// Validate checks the parameters.
func (p BandParams) Validate() error {
	if p.Window < 2 {
		return errors.New("band window must be at least 2")
	}
	if p.K <= 0 {
		return errors.New("band multiplier must be positive")
	}
	return nil
}

// CalculateBands computes the envelope over the trailing window ending at the last close.
// Standard deviation is the sample (n-1) estimator.
func CalculateBands(closes []float64, p BandParams) (model.BandSnapshot, error) {
	if err := p.Validate(); err != nil {
		return model.BandSnapshot{}, err
	}
	ma, err := CalculateSMA(closes, p.Window)
	if err != nil {
		return model.BandSnapshot{}, fmt.Errorf("bollinger: %w", err)
	}
	std := stat.StdDev(closes[len(closes)-p.Window:], nil)
	return model.BandSnapshot{
		MovingAverage: ma,
		StdDev:        std,
		Upper:         ma + p.K*std,
		Lower:         ma - p.K*std,
		Window:        p.Window,
		K:             p.K,
	}, nil
}

// BandSeries computes the envelope at every point that has a full window.
// The i-th snapshot ends at closes[i+p.Window-1].
func BandSeries(closes []float64, p BandParams) ([]model.BandSnapshot, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(closes) < p.Window {
		return nil, fmt.Errorf("bollinger: %w: need %d closes, have %d",
			model.ErrInsufficientHistory, p.Window, len(closes))
	}
	series := make([]model.BandSnapshot, 0, len(closes)-p.Window+1)
	for end := p.Window; end <= len(closes); end++ {
		snap, err := CalculateBands(closes[:end], p)
		if err != nil {
			return nil, err
		}
		series = append(series, snap)
	}
	return series, nil
}
