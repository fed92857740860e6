package dashboard

import (
	"fmt"
	"math"
	"strings"

	"ETFDesk/internal/calculator"
	"ETFDesk/internal/format"
	"ETFDesk/internal/model"
)

// Chart is an inline SVG rendering of closes against the rolling bands.
// Point lists are ready for a polyline "points" attribute.
type Chart struct {
	Width, Height float64
	Close         string
	Upper         string
	Middle        string
	Lower         string
	High, Low     string
	From, To      string
}

const chartPad = 8.0

// BuildChart plots every bar's close and the bands from the first full window on.
func BuildChart(bars []model.DailyBar, p calculator.BandParams, width, height float64) (*Chart, error) {
	closes := calculator.ExtractCloses(bars)
	series, err := calculator.BandSeries(closes, p)
	if err != nil {
		return nil, err
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range closes {
		lo, hi = math.Min(lo, c), math.Max(hi, c)
	}
	for _, s := range series {
		lo, hi = math.Min(lo, s.Lower), math.Max(hi, s.Upper)
	}
	if hi == lo {
		hi, lo = hi+0.5, lo-0.5
	}

	n := len(closes)
	x := func(i int) float64 {
		if n == 1 {
			return width / 2
		}
		return chartPad + float64(i)*(width-2*chartPad)/float64(n-1)
	}
	y := func(v float64) float64 {
		return chartPad + (hi-v)*(height-2*chartPad)/(hi-lo)
	}

	var cl, up, mid, low strings.Builder
	for i, c := range closes {
		fmt.Fprintf(&cl, "%.1f,%.1f ", x(i), y(c))
	}
	offset := p.Window - 1
	for i, s := range series {
		xi := x(i + offset)
		fmt.Fprintf(&up, "%.1f,%.1f ", xi, y(s.Upper))
		fmt.Fprintf(&mid, "%.1f,%.1f ", xi, y(s.MovingAverage))
		fmt.Fprintf(&low, "%.1f,%.1f ", xi, y(s.Lower))
	}

	return &Chart{
		Width:  width,
		Height: height,
		Close:  strings.TrimSpace(cl.String()),
		Upper:  strings.TrimSpace(up.String()),
		Middle: strings.TrimSpace(mid.String()),
		Lower:  strings.TrimSpace(low.String()),
		High:   format.Price(hi),
		Low:    format.Price(lo),
		From:   bars[0].Date.Format("2006-01-02"),
		To:     bars[n-1].Date.Format("2006-01-02"),
	}, nil
}
