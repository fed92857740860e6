package instrument

import (
	"errors"
	"testing"

	"ETFDesk/internal/model"
)

func TestResolve_Heuristic(t *testing.T) {
	r := NewResolver(nil)
	tests := []struct {
		code   string
		market model.Market
		key    string
		secid  string
	}{
		{"510300", model.MarketShanghai, "sh510300", "1.510300"},
		{"588000", model.MarketShanghai, "sh588000", "1.588000"},
		{"159915", model.MarketShenzhen, "sz159915", "0.159915"},
		{" 159919 ", model.MarketShenzhen, "sz159919", "0.159919"},
	}
	for _, tt := range tests {
		inst, err := r.Resolve(tt.code)
		if err != nil {
			t.Fatalf("resolve %q: %v", tt.code, err)
		}
		if inst.Market != tt.market {
			t.Errorf("%q: expected market %s, got %s", tt.code, tt.market, inst.Market)
		}
		if inst.QuoteKey() != tt.key {
			t.Errorf("%q: expected quote key %s, got %s", tt.code, tt.key, inst.QuoteKey())
		}
		if inst.SecID() != tt.secid {
			t.Errorf("%q: expected secid %s, got %s", tt.code, tt.secid, inst.SecID())
		}
	}
}

func TestResolve_Override(t *testing.T) {
	r := NewResolver(map[string]model.Market{"600000": model.MarketShanghai})
	inst, err := r.Resolve("600000")
	if err != nil {
		t.Fatal(err)
	}
	if inst.Market != model.MarketShanghai {
		t.Errorf("override ignored: got %s", inst.Market)
	}
}

func TestResolve_InvalidCodes(t *testing.T) {
	r := NewResolver(nil)
	for _, code := range []string{"", "51030", "5103000", "51030a", "-51030", "5103.0"} {
		if _, err := r.Resolve(code); !errors.Is(err, model.ErrInvalidCode) {
			t.Errorf("%q: expected ErrInvalidCode, got %v", code, err)
		}
	}
}
