package job

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"signaljob/internal/errs"
	"signaljob/internal/report"
)

func writeInputs(t *testing.T, cfg, csv string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	csvPath := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(csvPath, []byte(csv), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return cfgPath, csvPath
}

func fixedClock(step time.Duration) func() time.Time {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func TestRunComputesSignalRate(t *testing.T) {
	cfgPath, csvPath := writeInputs(t,
		"seed: 42\nwindow: 3\nversion: v1\n",
		"timestamp,close\n1,1\n2,2\n3,3\n4,4\n5,5\n")

	var buf bytes.Buffer
	j := New(cfgPath, csvPath, zerolog.New(&buf))
	j.Now = fixedClock(7 * time.Millisecond)

	result, err := j.Run(nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.RowsProcessed != 5 {
		t.Fatalf("expected 5 rows, got %d", result.RowsProcessed)
	}
	if result.Value.String() != "0.6" {
		t.Fatalf("expected signal rate 0.6, got %s", result.Value)
	}
	if result.LatencyMs != 7 {
		t.Fatalf("expected latency 7ms, got %d", result.LatencyMs)
	}
	if result.Seed != 42 || result.Version != "v1" || result.Status != "success" || result.Metric != "signal_rate" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if j.Stage() != MetricsEmitted {
		t.Fatalf("expected metrics_emitted stage, got %s", j.Stage())
	}

	out := buf.String()
	for _, msg := range []string{"Job started", "Config loaded", "Data loaded", "Rolling mean calculated", "Signals generated", "Metrics", "Job completed successfully"} {
		if !strings.Contains(out, msg) {
			t.Fatalf("expected log to include %q, got %s", msg, out)
		}
	}
	if !strings.Contains(out, `"signal_rate":"0.6"`) {
		t.Fatalf("expected rounded rate in log, got %s", out)
	}
}

func TestRunIsRepeatable(t *testing.T) {
	cfgPath, csvPath := writeInputs(t,
		"seed: 1\nwindow: 2\nversion: v3\n",
		"close\n3\n1\n4\n1\n5\n9\n2\n6\n")

	first, err := New(cfgPath, csvPath, zerolog.Nop()).Run(nil)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := New(cfgPath, csvPath, zerolog.Nop()).Run(nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	first.LatencyMs, second.LatencyMs = 0, 0
	a, _ := report.Marshal(first)
	b, _ := report.Marshal(second)
	if !bytes.Equal(a, b) {
		t.Fatalf("runs differ:\n%s\n%s", a, b)
	}
	// 4, 5, 9 and 6 close above their two-row mean
	if first.Value.String() != "0.5" {
		t.Fatalf("expected rate 0.5, got %s", first.Value)
	}
}

func TestRunFailures(t *testing.T) {
	cases := []struct {
		name  string
		cfg   string
		csv   string
		kind  error
		msg   string
		stage Stage
	}{
		{"missing key", "seed: 1\nversion: v1\n", "close\n1\n", errs.ErrValidation, "Missing required config field: window", Start},
		{"seed range", "seed: -1\nwindow: 2\nversion: v1\n", "close\n1\n", errs.ErrValidation, "Seed must be between 0 and 4294967295, got -1", Start},
		{"empty input", "seed: 1\nwindow: 2\nversion: v1\n", "timestamp,close\n", errs.ErrEmptyInput, "Input CSV file is empty.", ConfigLoaded},
		{"missing column", "seed: 1\nwindow: 2\nversion: v1\n", "timestamp,price\n1,2\n", errs.ErrMissingColumn, "Required column 'close' is missing.", ConfigLoaded},
		{"bad window", "seed: 1\nwindow: 0\nversion: v1\n", "close\n1\n2\n", errs.ErrValidation, "window must be a positive integer, got 0", DataLoaded},
		{"fractional window", "seed: 1\nwindow: 2.5\nversion: v1\n", "close\n1\n2\n", errs.ErrParse, `Invalid config field window: expected an integer, got "2.5"`, Start},
		{"fractional seed", "seed: 1.9\nwindow: 2\nversion: v1\n", "close\n1\n2\n", errs.ErrParse, `Invalid config field seed: expected an integer, got "1.9"`, Start},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfgPath, csvPath := writeInputs(t, tc.cfg, tc.csv)
			var buf bytes.Buffer
			j := New(cfgPath, csvPath, zerolog.New(&buf))

			result, err := j.Run(nil)
			if result != nil {
				t.Fatalf("expected no result on failure, got %+v", result)
			}
			if !errors.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
			if err.Error() != tc.msg {
				t.Fatalf("unexpected message: %q", err.Error())
			}
			if j.Stage() != Failed {
				t.Fatalf("expected failed stage, got %s", j.Stage())
			}
			out := buf.String()
			if !strings.Contains(out, `"level":"error"`) || !strings.Contains(out, `"stage":"`+tc.stage.String()+`"`) {
				t.Fatalf("expected error log at stage %s, got %s", tc.stage, out)
			}
		})
	}
}

func TestRunMissingInput(t *testing.T) {
	cfgPath, _ := writeInputs(t, "seed: 1\nwindow: 2\nversion: v1\n", "close\n1\n")
	_, err := New(cfgPath, filepath.Join(t.TempDir(), "nope.csv"), zerolog.Nop()).Run(nil)
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found message, got %q", err.Error())
	}
}

func TestRunPublishFailureIsNotCompletion(t *testing.T) {
	cfgPath, csvPath := writeInputs(t, "seed: 1\nwindow: 2\nversion: v1\n", "close\n1\n2\n3\n")

	var buf bytes.Buffer
	j := New(cfgPath, csvPath, zerolog.New(&buf))
	writeErr := errors.New("write file metrics.json: permission denied")
	var published *report.Metrics
	result, err := j.Run(func(m *report.Metrics) error {
		published = m
		return writeErr
	})
	if !errors.Is(err, writeErr) || result != nil {
		t.Fatalf("expected publish error and no result, got %v %+v", err, result)
	}
	if published == nil || published.RowsProcessed != 3 {
		t.Fatalf("expected the finished result to be published, got %+v", published)
	}
	if j.Stage() != Failed {
		t.Fatalf("expected failed stage, got %s", j.Stage())
	}

	out := buf.String()
	if strings.Contains(out, "Job completed successfully") || strings.Contains(out, `"message":"Metrics"`) {
		t.Fatalf("failed publish must not log completion:\n%s", out)
	}
	if !strings.Contains(out, `"stage":"transformed"`) || !strings.Contains(out, "permission denied") {
		t.Fatalf("expected run-scoped error line, got %s", out)
	}
	if strings.Count(out, `"run_id":"`) != strings.Count(out, "\n") {
		t.Fatalf("every line should carry the run id:\n%s", out)
	}
}

func TestRunPublishesBeforeCompletion(t *testing.T) {
	cfgPath, csvPath := writeInputs(t, "seed: 1\nwindow: 2\nversion: v1\n", "close\n1\n2\n3\n")

	var buf bytes.Buffer
	var logAtPublish string
	_, err := New(cfgPath, csvPath, zerolog.New(&buf)).Run(func(*report.Metrics) error {
		logAtPublish = buf.String()
		return nil
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if strings.Contains(logAtPublish, "Job completed successfully") {
		t.Fatalf("completion logged before publish:\n%s", logAtPublish)
	}
	if !strings.Contains(buf.String(), "Job completed successfully") {
		t.Fatalf("expected completion after publish, got %s", buf.String())
	}
}
