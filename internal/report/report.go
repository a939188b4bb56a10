// Package report builds the job result documents and writes them to disk and stdout.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultVersion is stamped on every failure document.
	DefaultVersion = "v1"
	// MetricSignalRate names the single metric the job reports.
	MetricSignalRate = "signal_rate"

	StatusSuccess = "success"
	StatusError   = "error"

	ratePlaces = 4
)

// Metrics is the success document. Field order is the serialized order.
type Metrics struct {
	Version       string `json:"version"`
	RowsProcessed int    `json:"rows_processed"`
	Metric        string `json:"metric"`
	Value         Rate   `json:"value"`
	LatencyMs     int64  `json:"latency_ms"`
	Seed          int64  `json:"seed"`
	Status        string `json:"status"`
}

// NewMetrics assembles a success document for the signal rate metric.
func NewMetrics(version string, rows int, value Rate, latencyMs, seed int64) *Metrics {
	return &Metrics{
		Version:       version,
		RowsProcessed: rows,
		Metric:        MetricSignalRate,
		Value:         value,
		LatencyMs:     latencyMs,
		Seed:          seed,
		Status:        StatusSuccess,
	}
}

// Failure is the error document. Its version never comes from the job config.
type Failure struct {
	Version      string `json:"version"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// NewFailure wraps err into a failure document.
func NewFailure(err error) *Failure {
	return &Failure{Version: DefaultVersion, Status: StatusError, ErrorMessage: err.Error()}
}

// Rate is a metric value already rounded for output.
type Rate struct{ d decimal.Decimal }

// RoundRate rounds x half-to-even on its exact binary value, so 1/32 becomes
// 0.0312 while 0.12345 (stored slightly above the tie) becomes 0.1235.
func RoundRate(x float64) Rate {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Rate{}
	}
	exact, err := decimal.NewFromString(new(big.Float).SetFloat64(x).Text('f', 1100))
	if err != nil {
		return Rate{d: decimal.NewFromFloat(x).RoundBank(ratePlaces)}
	}
	return Rate{d: exact.RoundBank(ratePlaces)}
}

// Float64 returns the rounded value.
func (r Rate) Float64() float64 {
	f, _ := r.d.Float64()
	return f
}

// String formats the rate as a float literal, keeping one decimal on whole numbers.
func (r Rate) String() string {
	if r.d.Equal(r.d.Truncate(0)) {
		return r.d.StringFixed(1)
	}
	return r.d.String()
}

// MarshalJSON emits the rate as a bare JSON number.
func (r Rate) MarshalJSON() ([]byte, error) {
	return []byte(r.String()), nil
}

// Latency returns whole milliseconds elapsed between start and now, truncated.
func Latency(start, now time.Time) int64 {
	return now.Sub(start).Milliseconds()
}

// Marshal renders a document with four-space indentation.
func Marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return data, nil
}

// Emit overwrites path with the document and then prints the same text to
// stdout. Nothing is printed when the file cannot be written.
func Emit(path string, stdout io.Writer, v any) error {
	data, err := Marshal(v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write file %s: %w", path, err)
	}
	return writeLine(stdout, data)
}

// Print writes the document to w only.
func Print(w io.Writer, v any) error {
	data, err := Marshal(v)
	if err != nil {
		return err
	}
	return writeLine(w, data)
}

func writeLine(w io.Writer, data []byte) error {
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("write stdout: %w", err)
	}
	return nil
}
