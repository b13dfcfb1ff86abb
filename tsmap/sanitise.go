// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"golang.org/x/text/unicode/norm"
)

// ErrEscapedRoot is returned when a path cannot be proven to stay under the
// output root.
var ErrEscapedRoot = errors.New("path escapes output root")

const placeholderName = "empty"

// PathSanitiser converts untrusted path hints into paths under a fixed root.
//
// The placeholder counter belongs to the instance: create one sanitiser per
// extraction run. A PathSanitiser is not safe for concurrent use.
type PathSanitiser struct {
	root  string
	empty int
}

// NewPathSanitiser returns a sanitiser rooted at the absolute form of root.
// The directory itself is created on the first write.
func NewPathSanitiser(root string) (*PathSanitiser, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("output root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve output root: %w", err)
	}
	return &PathSanitiser{root: abs}, nil
}

// Root returns the absolute output root.
func (p *PathSanitiser) Root() string {
	return p.root
}

// EnsureRoot creates the output root if it does not exist yet.
func (p *PathSanitiser) EnsureRoot() error {
	return os.MkdirAll(p.root, 0755)
}

// SanitizeSegment returns a single safe path component for raw.
//
// The input is NFKD-normalised and everything outside ASCII is dropped,
// separators become '_', and only letters, digits and "-_.() " survive. A
// result without any letter or digit ("", ".", "..", "...", "-") is replaced
// by a fresh "empty_<N>" placeholder.
func (p *PathSanitiser) SanitizeSegment(raw string) string {
	var b strings.Builder
	hasAlnum := false
	for _, r := range norm.NFKD.String(raw) {
		if isSeparator(r) {
			r = '_'
		}
		if !isAllowed(r) {
			continue
		}
		if isAlnum(r) {
			hasAlnum = true
		}
		b.WriteRune(r)
	}
	if !hasAlnum {
		name := fmt.Sprintf("%s_%d", placeholderName, p.empty)
		p.empty++
		return name
	}
	return b.String()
}

// SanitizeRelativePath sanitises each component of raw on its own and joins
// the results with the OS separator. Both '/' and '\' split components.
func (p *PathSanitiser) SanitizeRelativePath(raw string) string {
	parts := splitComponents(raw)
	for i, part := range parts {
		parts[i] = p.SanitizeSegment(part)
	}
	return filepath.Join(parts...)
}

// ResolveUnderRoot joins the sanitised relativePath and filename onto the root
// and returns the absolute result. An empty filename resolves the directory
// only. Symlinks already present under the root are resolved scoped to it,
// then the result is checked component by component against the root.
func (p *PathSanitiser) ResolveUnderRoot(relativePath, filename string) (string, error) {
	var parts []string
	if rel := p.SanitizeRelativePath(relativePath); rel != "" {
		parts = append(parts, rel)
	}
	if filename != "" {
		parts = append(parts, p.SanitizeSegment(filename))
	}
	joined := filepath.Join(parts...)

	resolved, err := securejoin.SecureJoin(p.root, joined)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrEscapedRoot, joined, err)
	}
	resolved, err = filepath.Abs(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrEscapedRoot, joined, err)
	}
	if !isUnder(p.root, resolved) {
		return "", fmt.Errorf("%w: %s", ErrEscapedRoot, resolved)
	}
	return resolved, nil
}

// isUnder reports whether every component of parent is a leading component
// of child. "/out-evil" is not under "/out".
func isUnder(parent, child string) bool {
	pc := pathComponents(parent)
	cc := pathComponents(child)
	if len(pc) > len(cc) {
		return false
	}
	for i := range pc {
		if pc[i] != cc[i] {
			return false
		}
	}
	return true
}

func pathComponents(p string) []string {
	p = filepath.Clean(p)
	vol := filepath.VolumeName(p)
	out := []string{vol}
	for _, c := range strings.Split(p[len(vol):], string(filepath.Separator)) {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func splitComponents(p string) []string {
	return strings.FieldsFunc(p, isSeparator)
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\' || r == filepath.Separator
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isAllowed(r rune) bool {
	if isAlnum(r) {
		return true
	}
	switch r {
	case '-', '_', '.', '(', ')', ' ':
		return true
	}
	return false
}
