// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

var reSourceMapComment = regexp.MustCompile(`//[#@]\s*sourceMappingURL=(.*)$`)

func NewCrawlCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "crawl [flags] <url> <output_directory>",
		Short: "Crawl a page, find JS and extract .map sources",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.detect = true
			opts, err := f.options(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			return runExtraction(cmd, opts)
		},
	}
	f.register(cmd)
	f.registerDetect(cmd)
	return cmd
}

// *Fetcher satisfait Getter
type Getter interface {
	Fetch(ctx context.Context, uri string) (string, error)
}

type Scanner struct {
	get         Getter
	log         logrus.FieldLogger
	concurrency int
	guessMap    bool
}

// guessMap : sans marqueur, on tente <script>.map
func NewScanner(get Getter, log logrus.FieldLogger, concurrency int, guessMap bool) *Scanner {
	if log == nil {
		log = discardLogger()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Scanner{get: get, log: log, concurrency: concurrency, guessMap: guessMap}
}

// résultats dans l'ordre du document ; script injoignable = ignoré
func (s *Scanner) DiscoverSourceMapURIs(ctx context.Context, htmlText, baseURI string) ([]string, error) {
	base, err := url.Parse(baseURI)
	if err != nil {
		return nil, fmt.Errorf("invalid page URI: %w", err)
	}
	scripts, err := parseScriptsHTML(htmlText, base)
	if err != nil {
		return nil, err
	}
	if len(scripts) == 0 {
		s.log.WithField("uri", baseURI).Info("no external script src found on page")
		return nil, nil
	}

	found := make([]string, len(scripts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, scriptURL := range scripts {
		i, scriptURL := i, scriptURL
		g.Go(func() error {
			found[i] = s.scriptMapURI(gctx, scriptURL)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []string
	for _, u := range found {
		if u != "" {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Scanner) scriptMapURI(ctx context.Context, scriptURL *url.URL) string {
	log := s.log.WithField("script", scriptURL.String())
	js, err := s.get.Fetch(ctx, scriptURL.String())
	if err != nil {
		log.WithError(err).Warn("failed to fetch script")
		return ""
	}
	if ref, ok := sourceMappingRef(js); ok {
		mapURI := resolveMapURI(scriptURL, ref)
		log.WithField("map", shortURI(mapURI)).Info("detected sourcemap")
		return mapURI
	}
	if s.guessMap {
		guess := *scriptURL
		guess.Path += ".map"
		guess.RawPath = ""
		guess.RawQuery = ""
		guess.Fragment = ""
		log.WithField("map", guess.String()).Debug("no sourceMappingURL, guessing map location")
		return guess.String()
	}
	log.Debug("no sourceMappingURL on last line")
	return ""
}

// src absolus, dédoublonnés, ordre du document
func parseScriptsHTML(src string, base *url.URL) ([]*url.URL, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("could not parse HTML at %s: %w", base, err)
	}
	doc := goquery.NewDocumentFromNode(root)

	seen := make(map[string]bool)
	var out []*url.URL
	doc.Find("script[src]").Each(func(_ int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.AttrOr("src", ""))
		if raw == "" {
			return
		}
		u, err := url.Parse(raw)
		if err != nil {
			return
		}
		abs := base.ResolveReference(u)
		if seen[abs.String()] {
			return
		}
		seen[abs.String()] = true
		out = append(out, abs)
	})
	return out, nil
}

// uniquement la dernière ligne non vide
func sourceMappingRef(js string) (string, bool) {
	js = strings.TrimRight(js, "\r\n\t ")
	line := js
	if i := strings.LastIndexByte(js, '\n'); i >= 0 {
		line = js[i+1:]
	}
	m := reSourceMapComment.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	ref := strings.Trim(strings.TrimSpace(m[1]), `"'`)
	if ref == "" {
		return "", false
	}
	return ref, true
}

// ref sans schéma : scheme://host + dossier du script + "/" + ref
func resolveMapURI(scriptURL *url.URL, ref string) string {
	if strings.HasPrefix(ref, "data:") {
		return ref
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		return ref
	}
	dir := path.Dir(scriptURL.Path)
	if dir == "." {
		dir = ""
	}
	return scriptURL.Scheme + "://" + scriptURL.Host + strings.TrimSuffix(dir, "/") + "/" + ref
}
