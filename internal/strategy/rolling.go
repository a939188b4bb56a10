package strategy

import (
	"fmt"
	"math"

	"signaljob/internal/errs"
	"signaljob/internal/signal"
)

// RollingMean returns the trailing simple moving average of values over
// window rows, inclusive of the current row. The first window-1 entries, and
// any entry whose window holds a missing (NaN) value, are NaN.
func RollingMean(values []float64, window int) ([]float64, error) {
	if window < 1 {
		return nil, errs.New(errs.ErrValidation, fmt.Sprintf("window must be a positive integer, got %d", window))
	}

	out := make([]float64, len(values))
	for i := range values {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		// plain per-window sum, not a running total
		var sum float64
		for _, v := range values[i-window+1 : i+1] {
			sum += v
		}
		out[i] = sum / float64(window)
	}
	return out, nil
}

// Signals compares each value with its mean. A comparison against an undefined
// (NaN) mean is false, so those rows are Flat rather than missing.
func Signals(values, means []float64) []signal.Value {
	out := make([]signal.Value, len(values))
	for i, v := range values {
		if i < len(means) && v > means[i] {
			out[i] = signal.Long
		}
	}
	return out
}

// CloseAboveMean goes long whenever the close trades above its rolling mean.
type CloseAboveMean struct {
	window int
}

// NewCloseAboveMean builds the strategy over a rolling window of closes.
func NewCloseAboveMean(window int) *CloseAboveMean {
	return &CloseAboveMean{window: window}
}

// Name returns the configured identifier for logging.
func (c *CloseAboveMean) Name() string { return "close_above_mean" }

// Window returns the rolling window size.
func (c *CloseAboveMean) Window() int { return c.window }

// Apply computes the rolling mean and the signal for every close.
func (c *CloseAboveMean) Apply(closes []float64) (signal.Series, error) {
	means, err := RollingMean(closes, c.window)
	if err != nil {
		return signal.Series{}, err
	}
	return signal.Series{
		Close:       closes,
		RollingMean: means,
		Signal:      Signals(closes, means),
	}, nil
}
