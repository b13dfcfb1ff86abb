// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSanitiser(t *testing.T) *PathSanitiser {
	t.Helper()
	ps, err := NewPathSanitiser(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	return ps
}

func TestSanitizeSegment(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain", raw: "index.js", want: "index.js"},
		{name: "allowed punctuation", raw: "my-file_(1) v2.ts", want: "my-file_(1) v2.ts"},
		{name: "question mark dropped", raw: "weird file?.js", want: "weird file.js"},
		{name: "slash", raw: "a/b.js", want: "a_b.js"},
		{name: "backslash", raw: `a\b.js`, want: "a_b.js"},
		{name: "accents decomposed", raw: "café.js", want: "cafe.js"},
		{name: "ligature", raw: "\ufb01le.js", want: "file.js"},
		{name: "non ascii dropped", raw: "日本.js", want: ".js"},
		{name: "shell metacharacters", raw: "$(rm -rf x);.js", want: "(rm -rf x).js"},
		{name: "nul byte", raw: "a\x00b", want: "ab"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ps := newTestSanitiser(t)
			assert.Equal(t, tc.want, ps.SanitizeSegment(tc.raw))
		})
	}
}

func TestSanitizeSegment_Placeholders(t *testing.T) {
	ps := newTestSanitiser(t)
	inputs := []string{"", ".", "..", "...", "-", "日本", "\uff0e\uff0e", "  ", "/", `\`}
	for i, raw := range inputs {
		assert.Equal(t, "empty_"+strconv.Itoa(i), ps.SanitizeSegment(raw), "input %q", raw)
	}
}

func TestSanitizeSegment_CounterIsPerInstance(t *testing.T) {
	a := newTestSanitiser(t)
	b := newTestSanitiser(t)

	assert.Equal(t, "empty_0", a.SanitizeSegment(".."))
	assert.Equal(t, "empty_1", a.SanitizeSegment(".."))
	assert.Equal(t, "empty_0", b.SanitizeSegment(".."))
}

func TestSanitizeSegment_Idempotent(t *testing.T) {
	ps := newTestSanitiser(t)
	for _, raw := range []string{"index.js", "weird file?.js", "café", "a/b", "..a", "x (copy).txt"} {
		once := ps.SanitizeSegment(raw)
		assert.Equal(t, once, ps.SanitizeSegment(once), "input %q", raw)
	}
}

func TestSanitizeRelativePath(t *testing.T) {
	sep := string(filepath.Separator)
	cases := []struct {
		raw  string
		want string
	}{
		{raw: "", want: ""},
		{raw: "src/components", want: "src" + sep + "components"},
		{raw: "a//b///", want: "a" + sep + "b"},
		{raw: "/etc", want: "etc"},
		{raw: "../../etc", want: "empty_0" + sep + "empty_1" + sep + "etc"},
		{raw: `..\..\windows`, want: "empty_0" + sep + "empty_1" + sep + "windows"},
		{raw: "a/./b", want: "a" + sep + "empty_0" + sep + "b"},
		{raw: "C:/Windows", want: "C" + sep + "Windows"},
	}
	for _, tc := range cases {
		ps := newTestSanitiser(t)
		assert.Equal(t, tc.want, ps.SanitizeRelativePath(tc.raw), "input %q", tc.raw)
	}
}

func TestResolveUnderRoot(t *testing.T) {
	ps := newTestSanitiser(t)
	root := ps.Root()

	got, err := ps.ResolveUnderRoot("src/app", "main.js")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src", "app", "main.js"), got)

	got, err = ps.ResolveUnderRoot("", "")
	require.NoError(t, err)
	assert.Equal(t, root, got)

	got, err = ps.ResolveUnderRoot("only/dirs", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "only", "dirs"), got)
}

func TestResolveUnderRoot_Adversarial(t *testing.T) {
	inputs := []struct{ dir, name string }{
		{"../../..", "passwd"},
		{"../../../etc", "passwd"},
		{`..\..\windows`, "x"},
		{"/etc", "passwd"},
		{"", ".."},
		{"..", ".."},
		{"\uff0e\uff0e/\uff0e\uff0e", "x"},
		{"a/../../..", "b"},
		{"%2e%2e/%2e%2e", "x"},
	}
	for _, in := range inputs {
		ps := newTestSanitiser(t)
		got, err := ps.ResolveUnderRoot(in.dir, in.name)
		require.NoError(t, err, "input %+v", in)
		assert.True(t, isUnder(ps.Root(), got), "input %+v resolved to %s", in, got)
		assert.NotEqual(t, ps.Root(), got, "input %+v", in)
	}
}

func TestResolveUnderRoot_SymlinkStaysInRoot(t *testing.T) {
	outside := t.TempDir()
	root := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))

	ps, err := NewPathSanitiser(root)
	require.NoError(t, err)

	got, err := ps.ResolveUnderRoot("link", "x.js")
	require.NoError(t, err)
	assert.True(t, isUnder(root, got), "resolved to %s", got)
	assert.False(t, strings.HasPrefix(got, outside+string(filepath.Separator)), "resolved to %s", got)
}

func TestIsUnder(t *testing.T) {
	cases := []struct {
		parent, child string
		want          bool
	}{
		{"/out", "/out", true},
		{"/out", "/out/a/b.js", true},
		{"/out/", "/out/a", true},
		{"/out", "/out-evil", false},
		{"/out", "/out-evil/a.js", false},
		{"/out", "/", false},
		{"/out/a", "/out", false},
		{"/out", "/other/out", false},
	}
	for _, tc := range cases {
		parent := filepath.FromSlash(tc.parent)
		child := filepath.FromSlash(tc.child)
		assert.Equal(t, tc.want, isUnder(parent, child), "isUnder(%q, %q)", tc.parent, tc.child)
	}
}

func TestNewPathSanitiser_RejectsEmptyRoot(t *testing.T) {
	_, err := NewPathSanitiser("  ")
	require.Error(t, err)
}

func TestEnsureRoot(t *testing.T) {
	ps := newTestSanitiser(t)
	require.NoError(t, ps.EnsureRoot())
	fi, err := os.Stat(ps.Root())
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}
