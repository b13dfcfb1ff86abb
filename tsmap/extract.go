// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

const (
	documentExtracted       = "extracted"
	documentParseError      = "parse_error"
	documentValidationError = "validation_error"
)

type Extractor struct {
	log     logrus.FieldLogger
	metrics *Metrics
}

func NewExtractor(log logrus.FieldLogger, metrics *Metrics) *Extractor {
	if log == nil {
		log = discardLogger()
	}
	return &Extractor{log: log, metrics: metrics}
}

// ExtractDocument parses, validates and extracts one document. Parse and
// validation errors abort this document only; nothing is written for it.
func (e *Extractor) ExtractDocument(data []byte, ps *PathSanitiser) ([]Outcome, error) {
	sm, err := Parse(data)
	if err != nil {
		e.metrics.document(documentParseError)
		return nil, err
	}
	if err := sm.Validate(); err != nil {
		e.metrics.document(documentValidationError)
		return nil, err
	}
	e.metrics.document(documentExtracted)
	return e.Extract(sm, ps), nil
}

// préfixe commun seulement si les longueurs diffèrent
func (e *Extractor) Extract(sm *SourceMap, ps *PathSanitiser) []Outcome {
	if sm.LengthMismatch() {
		e.log.WithFields(logrus.Fields{
			"sources":        len(sm.Sources),
			"sourcesContent": len(sm.SourcesContent),
		}).Warn("sources != sourcesContent, filenames may not match content")
	}
	n := sm.Pairs()
	outcomes := make([]Outcome, 0, n)
	for i := 0; i < n; i++ {
		o := e.extractPair(sm.Sources[i], sm.SourcesContent[i], ps)
		e.metrics.outcome(o)
		outcomes = append(outcomes, o)
	}
	return outcomes
}

func (e *Extractor) extractPair(source string, content *string, ps *PathSanitiser) Outcome {
	log := e.log.WithField("source", source)

	dir, name, external := splitSource(source)
	if external {
		log.Warn("external source not supported, skipping")
		return Outcome{Kind: SkippedExternal, Source: source}
	}
	if content == nil {
		log.Debug("no content embedded, skipping")
		return Outcome{Kind: SkippedNoContent, Source: source}
	}
	if name == "" {
		// source = dossier, il faut quand même un fichier
		name = ps.SanitizeSegment(name)
	}

	path, err := ps.ResolveUnderRoot(dir, name)
	if err != nil {
		log.WithError(err).Warn("path blocked")
		return Outcome{Kind: SkippedEscapedRoot, Source: source, Err: err}
	}

	if err := writeSource(path, *content); err != nil {
		log.WithError(err).WithField("path", path).Error("write failed")
		return Outcome{Kind: WriteFailed, Source: source, Path: path, Err: err}
	}
	log.WithField("path", path).Debug("written")
	return Outcome{Kind: Written, Source: source, Path: path, Bytes: len(*content)}
}

// path vient toujours de ResolveUnderRoot
func writeSource(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}
