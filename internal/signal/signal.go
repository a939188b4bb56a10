// Package signal standardizes the series shared between the transform and reporting layers.
package signal

// Value is a binary trading indicator for one row.
type Value int

const (
	// Flat means no signal for the row.
	Flat Value = 0
	// Long means the close traded above its rolling mean.
	Long Value = 1
)

// Series holds the per-row outputs of a strategy, aligned 1:1 with the input.
type Series struct {
	Close       []float64
	RollingMean []float64 // NaN where undefined
	Signal      []Value
}

// Len returns the number of rows in the series.
func (s Series) Len() int { return len(s.Signal) }

// Rate returns the fraction of rows signalled Long. Every row counts toward
// the denominator, including rows with no rolling mean.
func (s Series) Rate() float64 {
	if len(s.Signal) == 0 {
		return 0
	}
	var total int
	for _, v := range s.Signal {
		total += int(v)
	}
	return float64(total) / float64(len(s.Signal))
}
