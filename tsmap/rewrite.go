// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import "strings"

const (
	webpackScheme  = "webpack:///"
	externalMarker = "external"
)

// chaînes opaques, pas des URI validées
type rewriteRule struct {
	prefix   string
	replace  string
	collapse bool
}

// dans l'ordre, chacune au plus une fois
var directoryRules = []rewriteRule{
	{prefix: "./"},
	{prefix: "../", replace: "parent_dir/"},
	{prefix: ".", collapse: true},
}

func rewriteDirectory(dir string) string {
	for _, r := range directoryRules {
		if !strings.HasPrefix(dir, r.prefix) {
			continue
		}
		if r.collapse {
			dir = ""
			continue
		}
		dir = r.replace + dir[len(r.prefix):]
	}
	return dir
}

func splitSource(source string) (dir, name string, external bool) {
	s := strings.TrimPrefix(source, webpackScheme)
	if first, _, _ := strings.Cut(s, " "); first == externalMarker {
		return "", "", true
	}
	if i := strings.LastIndexAny(s, `/\`); i >= 0 {
		dir, name = s[:i], s[i+1:]
	} else {
		name = s
	}
	return rewriteDirectory(dir), name, false
}
