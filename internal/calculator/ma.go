package calculator

import (
	"errors"
	"fmt"

	"ETFDesk/internal/model"

	"gonum.org/v1/gonum/stat"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, fmt.Errorf("%w: need %d closes, have %d", model.ErrInsufficientHistory, period, len(prices))
	}
	return stat.Mean(prices[len(prices)-period:], nil), nil
}

// ExtractCloses returns the closing prices of bars in order.
func ExtractCloses(bars []model.DailyBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
