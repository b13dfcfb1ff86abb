// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"encoding/json"
	"fmt"
	"strings"
)

// seules ces deux clés sont lues ; slice nil = clé absente ou null
type SourceMap struct {
	Sources        []string  `json:"sources"`
	SourcesContent []*string `json:"sourcesContent"`
}

type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid sourcemap JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("sourcemap does not contain %s, cannot extract", strings.Join(e.Missing, " and "))
}

func Parse(data []byte) (*SourceMap, error) {
	var sm SourceMap
	if err := json.Unmarshal(data, &sm); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &sm, nil
}

func (sm *SourceMap) Validate() error {
	var missing []string
	if sm.Sources == nil {
		missing = append(missing, "sources")
	}
	if sm.SourcesContent == nil {
		missing = append(missing, "sourcesContent")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

func (sm *SourceMap) LengthMismatch() bool {
	return len(sm.Sources) != len(sm.SourcesContent)
}

func (sm *SourceMap) Pairs() int {
	return min(len(sm.Sources), len(sm.SourcesContent))
}

// ---------- résultat par paire ----------
type OutcomeKind int

const (
	Written OutcomeKind = iota
	SkippedExternal
	SkippedEscapedRoot
	SkippedNoContent
	WriteFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case Written:
		return "written"
	case SkippedExternal:
		return "skipped_external"
	case SkippedEscapedRoot:
		return "skipped_escaped_root"
	case SkippedNoContent:
		return "skipped_no_content"
	case WriteFailed:
		return "write_failed"
	}
	return fmt.Sprintf("outcome(%d)", int(k))
}

type Outcome struct {
	Kind   OutcomeKind
	Source string
	// Path : Written et WriteFailed seulement
	Path  string
	Bytes int
	Err   error
}
