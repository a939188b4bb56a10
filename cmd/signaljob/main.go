// Binary signaljob computes the close-above-rolling-mean signal rate of a CSV
// and writes a JSON metrics report.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"signaljob/internal/config"
	"signaljob/internal/job"
	"signaljob/internal/metrics"
	"signaljob/internal/report"
	"signaljob/internal/util"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type options struct {
	input   string
	config  string
	output  string
	logFile string
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func execute(args []string, stdout, stderr io.Writer) int {
	code := exitOK
	cmd := newRootCmd(stdout, stderr, &code)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n%s", err, cmd.UsageString())
		return exitUsage
	}
	return code
}

func newRootCmd(stdout, stderr io.Writer, code *int) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "signaljob",
		Short:         "Compute the rolling-mean signal rate of a price CSV",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			*code = run(opts, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringVar(&opts.input, "input", "", "Input CSV with a close column")
	flags.StringVar(&opts.config, "config", "", "YAML config with seed, window and version")
	flags.StringVar(&opts.output, "output", "", "Path of the JSON metrics report")
	flags.StringVar(&opts.logFile, "log-file", "", "Path of the job log (appended)")
	for _, name := range []string{"input", "config", "output", "log-file"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func run(opts options, stdout, stderr io.Writer) int {
	env := config.LoadEnv()

	log, closer, err := util.NewFileLogger(opts.logFile, env.LogLevel)
	if err != nil {
		log = util.NewLogger(util.PlainWriter(stderr), env.LogLevel)
		log.Warn().Err(err).Msg("log file unavailable, logging to stderr")
	} else {
		defer closer.Close()
	}
	defer exportMetrics(env.MetricsFile, log)

	_, err = job.New(opts.config, opts.input, log).Run(func(m *report.Metrics) error {
		return report.Emit(opts.output, stdout, m)
	})
	if err == nil {
		return exitOK
	}

	failure := report.NewFailure(err)
	if emitErr := report.Emit(opts.output, stdout, failure); emitErr != nil {
		log.Error().Err(emitErr).Msg("write error report")
		_ = report.Print(stdout, failure)
	}
	return exitError
}

func exportMetrics(path string, log zerolog.Logger) {
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("write metrics textfile")
	}
}
