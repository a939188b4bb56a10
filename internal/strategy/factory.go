package strategy

import (
	"fmt"
	"strings"

	"signaljob/internal/errs"
	"signaljob/internal/signal"
)

// Strategy turns a series of closes into per-row signals.
type Strategy interface {
	Apply(closes []float64) (signal.Series, error)
	Name() string
	Window() int
}

// Params expresses tunable knobs required by strategy constructors.
type Params struct {
	Window int
}

// Build returns a strategy implementation matching the configured mode.
func Build(mode string, params Params) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "sma", "close_above_mean":
		return NewCloseAboveMean(params.Window), nil
	default:
		return nil, errs.New(errs.ErrValidation, fmt.Sprintf("unknown strategy mode %q", mode))
	}
}
