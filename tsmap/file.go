// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// flags communs extract / crawl
type runFlags struct {
	local                 bool
	detect                bool
	makeDirectory         bool
	dangerouslyWritePaths bool
	verbose               bool

	configPath      string
	userAgent       string
	timeout         time.Duration
	proxy           string
	insecure        bool
	concurrency     int
	guessMap        bool
	metricsTextfile string
}

func (f *runFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.BoolVar(&f.makeDirectory, "make-directory", false, "Make the output directory if it doesn't exist")
	fs.BoolVar(&f.dangerouslyWritePaths, "dangerously-write-paths", false,
		"Write full paths. Accepted for compatibility: writes always stay inside the output directory")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Log every processed source")
	fs.StringVar(&f.configPath, "config", "", "YAML config file")
	fs.StringVar(&f.userAgent, "user-agent", "", "User-Agent header")
	fs.DurationVar(&f.timeout, "timeout", 0, "HTTP timeout (default 25s)")
	fs.StringVar(&f.proxy, "proxy", "", "Proxy URL (e.g. http://127.0.0.1:8080)")
	fs.BoolVar(&f.insecure, "insecure", false, "Skip TLS verification, useful with burpsuite")
	fs.StringVar(&f.metricsTextfile, "metrics-textfile", "", "Write run counters in Prometheus text format to this file")
}

func (f *runFlags) registerDetect(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.concurrency, "concurrency", 0, "Parallel script downloads during detection (default 4)")
	fs.BoolVar(&f.guessMap, "guess-map", false, "Try <script>.map when a script names no sourcemap")
}

// flags modifiés > fichier de config > défauts
func (f *runFlags) config(cmd *cobra.Command) (Config, error) {
	cfg := DefaultConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = LoadConfig(f.configPath); err != nil {
			return Config{}, err
		}
	}
	fs := cmd.Flags()
	if fs.Changed("user-agent") {
		cfg.UserAgent = f.userAgent
	}
	if fs.Changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if fs.Changed("proxy") {
		cfg.Proxy = f.proxy
	}
	if fs.Changed("insecure") {
		cfg.Insecure = f.insecure
	}
	if fs.Changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if fs.Changed("guess-map") {
		cfg.GuessMap = f.guessMap
	}
	if fs.Changed("metrics-textfile") {
		cfg.MetricsTextfile = f.metricsTextfile
	}
	return cfg, cfg.Validate()
}

func (f *runFlags) options(cmd *cobra.Command, target, outDir string) (Options, error) {
	cfg, err := f.config(cmd)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Target:                target,
		OutputDir:             outDir,
		Local:                 f.local,
		Detect:                f.detect,
		MakeDirectory:         f.makeDirectory,
		DangerouslyWritePaths: f.dangerouslyWritePaths,
		Verbose:               f.verbose,
		Config:                cfg,
	}, nil
}

func runExtraction(cmd *cobra.Command, opts Options) error {
	log := NewLogger(cmd.ErrOrStderr(), opts.Verbose)
	reporter := NewReporter(cmd.OutOrStdout(), !color.NoColor)
	runner, err := NewRunner(opts, log, reporter)
	if err != nil {
		return err
	}
	summary, err := runner.Run(cmd.Context())
	reporter.Summary(summary)
	return err
}

// ---------- extract ----------
func NewExtractCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "extract [flags] <uri_or_file> <output_directory>",
		Short: "Extract sources from a .map file or URI",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			return runExtraction(cmd, opts)
		},
	}
	cmd.Flags().BoolVarP(&f.local, "local", "l", false, "uri_or_file is a local file")
	cmd.Flags().BoolVarP(&f.detect, "detect", "d", false, "Attempt to detect sourcemaps from JS assets in retrieved HTML")
	f.register(cmd)
	f.registerDetect(cmd)
	return cmd
}
