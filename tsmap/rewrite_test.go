// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSource(t *testing.T) {
	cases := []struct {
		source   string
		dir      string
		name     string
		external bool
	}{
		{source: "webpack:///a/b.js", dir: "a", name: "b.js"},
		{source: "webpack:///c.js", name: "c.js"},
		{source: "webpack:///./src/index.js", dir: "src", name: "index.js"},
		{source: "./weird file?.js", name: "weird file?.js"},
		{source: "webpack:///../lib/x.js", dir: "parent_dir/lib", name: "x.js"},
		{source: "webpack:///../../secret", dir: "parent_dir/..", name: "secret"},
		{source: "webpack:///./../up.js", name: "up.js"},
		{source: "webpack:///.hidden/x.js", name: "x.js"},
		{source: "/etc/passwd", dir: "/etc", name: "passwd"},
		{source: `..\..\windows\x`, name: "x"},
		{source: "webpack:///src/", dir: "src"},
		{source: "webpack:///webpack:///a.js", dir: "webpack://", name: "a.js"},
		{source: `external "react"`, external: true},
		{source: "webpack:///external \"react-dom\"", external: true},
		{source: "external", external: true},
		{source: "webpack:///externals/a.js", dir: "externals", name: "a.js"},
	}
	for _, tc := range cases {
		dir, name, external := splitSource(tc.source)
		assert.Equal(t, tc.external, external, "source %q", tc.source)
		assert.Equal(t, tc.dir, dir, "source %q", tc.source)
		assert.Equal(t, tc.name, name, "source %q", tc.source)
	}
}

func TestRewriteDirectory_RulesApplyInOrder(t *testing.T) {
	assert.Equal(t, "", rewriteDirectory("."))
	assert.Equal(t, "", rewriteDirectory(".."))
	assert.Equal(t, "src", rewriteDirectory("./src"))
	assert.Equal(t, "parent_dir/src", rewriteDirectory("../src"))
	assert.Equal(t, "", rewriteDirectory("./.git"))
	assert.Equal(t, "node_modules/x", rewriteDirectory("node_modules/x"))
}
