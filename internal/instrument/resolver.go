package instrument

import (
	"fmt"
	"strings"

	"ETFDesk/internal/model"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Resolver maps fund codes to instruments.
//
// Without an override the market is guessed from the first digit: codes starting
// with '5' are Shanghai funds, everything else is treated as Shenzhen. The guess
// is not checked against any registry, so misclassified codes need an override.
type Resolver struct {
	Overrides map[string]model.Market
}

// NewResolver creates a Resolver with the given per-code market overrides.
func NewResolver(overrides map[string]model.Market) *Resolver {
	return &Resolver{Overrides: overrides}
}

// Normalize trims surrounding whitespace from user input.
func Normalize(code string) string {
	return strings.TrimSpace(code)
}

// ValidateCode checks that code is exactly six digits.
func ValidateCode(code string) error {
	if err := validate.Var(code, "required,len=6,numeric"); err != nil {
		return fmt.Errorf("%w: %q must be 6 digits", model.ErrInvalidCode, code)
	}
	// "numeric" accepts signs and decimal points.
	for _, r := range code {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: %q must be 6 digits", model.ErrInvalidCode, code)
		}
	}
	return nil
}

// Resolve validates code and determines its market.
func (r *Resolver) Resolve(code string) (model.Instrument, error) {
	code = Normalize(code)
	if err := ValidateCode(code); err != nil {
		return model.Instrument{}, err
	}
	if m, ok := r.Overrides[code]; ok {
		return model.Instrument{Code: code, Market: m}, nil
	}
	return model.Instrument{Code: code, Market: GuessMarket(code)}, nil
}

// GuessMarket applies the first-digit heuristic.
func GuessMarket(code string) model.Market {
	if strings.HasPrefix(code, "5") {
		return model.MarketShanghai
	}
	return model.MarketShenzhen
}
