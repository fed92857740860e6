package dashboard

import (
	"strings"
	"testing"

	"ETFDesk/internal/calculator"
	"ETFDesk/internal/collector"
)

func TestBuildChart(t *testing.T) {
	bars := collector.GenerateMockBars(4, 30)
	chart, err := BuildChart(bars, calculator.DefaultBandParams, 720, 280)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(strings.Fields(chart.Close)); n != 30 {
		t.Errorf("expected 30 close points, got %d", n)
	}
	if n := len(strings.Fields(chart.Upper)); n != 11 {
		t.Errorf("expected 11 band points, got %d", n)
	}
	if chart.From != bars[0].Date.Format("2006-01-02") {
		t.Errorf("unexpected range start %s", chart.From)
	}
}

func TestBuildChart_ShortHistory(t *testing.T) {
	if _, err := BuildChart(collector.GenerateMockBars(4, 10), calculator.DefaultBandParams, 720, 280); err == nil {
		t.Error("expected error for short history")
	}
}
