// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sourcemap-extract.safepic.fr/tsmap"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sourcemap-extract",
		Short: "Recover original sources embedded in webpack source maps",
		Long: `sourcemap-extract - extractor and crawler

Reads source maps and writes the embedded, un-compiled sources into a
directory tree for review. Paths from the map are untrusted: every file
is written inside the output directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(tsmap.NewExtractCmd())
	root.AddCommand(tsmap.NewCrawlCmd())
	return root
}

// ---------- main ----------
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		color.New(color.FgRed).Fprint(os.Stderr, "Error: ")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
