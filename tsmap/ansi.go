// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"fmt"
	"io"
	"time"

	"github.com/InVisionApp/tabular"
	"github.com/briandowns/spinner"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// couleurs via fatih/color, coupées hors TTY
type Reporter struct {
	out         io.Writer
	interactive bool
	spin        *spinner.Spinner

	red, grn, yel, cyn *color.Color
}

func NewReporter(out io.Writer, interactive bool) *Reporter {
	return &Reporter{
		out:         out,
		interactive: interactive,
		red:         color.New(color.FgRed),
		grn:         color.New(color.FgGreen),
		yel:         color.New(color.FgYellow),
		cyn:         color.New(color.FgCyan),
	}
}

func (r *Reporter) StartProgress(message string) {
	if !r.interactive {
		fmt.Fprintln(r.out, message)
		return
	}
	r.spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(r.out))
	r.spin.Suffix = " " + message
	r.spin.Start()
}

func (r *Reporter) StopProgress() {
	if r.spin != nil {
		r.spin.Stop()
		r.spin = nil
	}
}

// chemins affichés relatifs à root
func (r *Reporter) Outcome(o Outcome, root string) {
	switch o.Kind {
	case Written:
		fmt.Fprintf(r.out, "%s: %s\n", r.grn.Sprint("Written"), relTo(root, o.Path))
	case SkippedExternal:
		fmt.Fprintf(r.out, "%s (external): %s\n", r.yel.Sprint("Skipped"), o.Source)
	case SkippedEscapedRoot:
		fmt.Fprintf(r.out, "%s (path blocked): %s\n", r.yel.Sprint("Skipped"), o.Source)
	case SkippedNoContent:
		fmt.Fprintf(r.out, "%s (no content): %s\n", r.yel.Sprint("Skipped"), o.Source)
	case WriteFailed:
		fmt.Fprintf(r.out, "%s: %s: %v\n", r.red.Sprint("Error"), relTo(root, o.Path), o.Err)
	}
}

func (r *Reporter) DocumentFailed(target string, err error) {
	fmt.Fprintf(r.out, "%s %s: %v\n", r.red.Sprint("Error:"), target, err)
}

// ---------- résumé ----------
func (r *Reporter) Summary(s *Summary) {
	tab := tabular.New()
	tab.Col("what", "Outcome", 22)
	tab.ColRJ("n", "Count", 7)
	table := tab.Parse("what", "n")

	fmt.Fprintf(r.out, "\n%s: %d written (%s), %d skipped, %d of %d documents failed\n",
		r.cyn.Sprint("Summary"), s.Count(Written), humanize.Bytes(uint64(s.Bytes)),
		s.Skipped(), s.DocumentsFailed, s.Documents)
	fmt.Fprintln(r.out, table.Header)
	fmt.Fprintln(r.out, table.SubHeader)
	for _, k := range []OutcomeKind{Written, SkippedExternal, SkippedEscapedRoot, SkippedNoContent, WriteFailed} {
		fmt.Fprintf(r.out, table.Format, k.String(), s.Count(k))
	}
}
