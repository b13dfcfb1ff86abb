// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"

	"github.com/sirupsen/logrus"
)

type Summary struct {
	Documents       int
	DocumentsFailed int
	Bytes           int64
	counts          map[OutcomeKind]int
}

func (s *Summary) add(outcomes []Outcome) {
	if s.counts == nil {
		s.counts = make(map[OutcomeKind]int)
	}
	for _, o := range outcomes {
		s.counts[o.Kind]++
		if o.Kind == Written {
			s.Bytes += int64(o.Bytes)
		}
	}
}

// page ou document sans extraction
func (s *Summary) failed() {
	s.Documents++
	s.DocumentsFailed++
}

func (s *Summary) Count(kind OutcomeKind) int {
	return s.counts[kind]
}

func (s *Summary) Skipped() int {
	n := 0
	for k, c := range s.counts {
		if k != Written {
			n += c
		}
	}
	return n
}

// un seul PathSanitiser par exécution
type Runner struct {
	opts      Options
	log       logrus.FieldLogger
	reporter  *Reporter
	metrics   *Metrics
	get       Getter
	scanner   *Scanner
	extractor *Extractor
	sanitiser *PathSanitiser
}

func NewRunner(opts Options, log *logrus.Logger, reporter *Reporter) (*Runner, error) {
	if log == nil {
		log = discardLogger()
	}
	if reporter == nil {
		reporter = NewReporter(io.Discard, false)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	ps, err := NewPathSanitiser(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	metrics := NewMetrics()
	fetcher, err := NewFetcher(opts.Config, log, metrics)
	if err != nil {
		return nil, err
	}

	if opts.DangerouslyWritePaths {
		log.Warn("--dangerously-write-paths has no effect, writes stay confined to the output directory")
	}
	if !opts.Local && !opts.Detect {
		if u, err := url.Parse(opts.Target); err == nil && path.Ext(u.Path) != ".map" {
			log.WithField("uri", opts.Target).Warn("URI does not have .map extension, and --detect is not flagged")
		}
	}

	return &Runner{
		opts:      opts,
		log:       log,
		reporter:  reporter,
		metrics:   metrics,
		get:       fetcher,
		scanner:   NewScanner(fetcher, log, opts.Config.Concurrency, opts.Config.GuessMap),
		extractor: NewExtractor(log, metrics),
		sanitiser: ps,
	}, nil
}

// erreur seulement si l'exécution elle-même échoue
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	if r.opts.MakeDirectory {
		if err := r.sanitiser.EnsureRoot(); err != nil {
			return summary, fmt.Errorf("create output directory: %w", err)
		}
	}

	switch {
	case r.opts.Local:
		r.extractLocal(r.opts.Target, summary)
	case r.opts.Detect:
		if err := r.detect(ctx, r.opts.Target, summary); err != nil {
			return summary, err
		}
	default:
		r.extractRemote(ctx, r.opts.Target, summary)
	}

	if p := r.opts.Config.MetricsTextfile; p != "" {
		if err := r.metrics.WriteTextfile(p); err != nil {
			return summary, fmt.Errorf("write metrics: %w", err)
		}
	}
	return summary, nil
}

func (r *Runner) extractLocal(file string, summary *Summary) {
	data, err := os.ReadFile(file)
	if err != nil {
		summary.failed()
		r.log.WithError(err).WithField("map", file).Error("read sourcemap")
		r.reporter.DocumentFailed(file, err)
		return
	}
	r.extract(file, data, summary)
}

func (r *Runner) extractRemote(ctx context.Context, uri string, summary *Summary) {
	data, err := r.get.Fetch(ctx, uri)
	if err != nil {
		summary.failed()
		r.log.WithError(err).WithField("uri", shortURI(uri)).Warn("could not retrieve sourcemap")
		r.reporter.DocumentFailed(shortURI(uri), err)
		return
	}
	r.extract(shortURI(uri), []byte(data), summary)
}

func (r *Runner) detect(ctx context.Context, page string, summary *Summary) error {
	pageHTML, err := r.get.Fetch(ctx, page)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		summary.failed()
		r.log.WithError(err).WithField("uri", page).Warn("could not retrieve page")
		r.reporter.DocumentFailed(page, err)
		return nil
	}

	r.reporter.StartProgress(fmt.Sprintf("Detecting sourcemaps in HTML at %s", page))
	uris, err := r.scanner.DiscoverSourceMapURIs(ctx, pageHTML, page)
	r.reporter.StopProgress()
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		summary.failed()
		r.log.WithError(err).WithField("uri", page).Error("sourcemap detection failed")
		r.reporter.DocumentFailed(page, err)
		return nil
	}

	for _, uri := range uris {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.extractRemote(ctx, uri, summary)
	}
	return nil
}

func (r *Runner) extract(target string, data []byte, summary *Summary) {
	summary.Documents++
	outcomes, err := r.extractor.ExtractDocument(data, r.sanitiser)
	if err != nil {
		summary.DocumentsFailed++
		r.log.WithError(err).WithField("map", target).Error("failed to extract sourcemap")
		r.reporter.DocumentFailed(target, err)
		return
	}
	for _, o := range outcomes {
		r.reporter.Outcome(o, r.sanitiser.Root())
	}
	summary.add(outcomes)
}
