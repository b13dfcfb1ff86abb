// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"path/filepath"
	"unicode/utf8"
)

// ------------------------------------------------------------------
// Small utilities: display paths and URIs
// ------------------------------------------------------------------

func relTo(root, p string) string {
	if rel, err := filepath.Rel(root, p); err == nil {
		return rel
	}
	return p
}

// shortURI keeps inline data: URIs readable in logs.
func shortURI(uri string) string {
	const limit = 48
	if len(uri) <= limit {
		return uri
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(uri[cut]) {
		cut--
	}
	return uri[:cut] + "..."
}
