package main

import (
	"fmt"
	"os"
	"strings"

	"footnote/internal/directive"
	"footnote/internal/format"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// scanCmd lists the directives of Go files
var scanCmd = &cobra.Command{
	Use:   "scan FILE...",
	Short: "List comment directives the formatter would rewrite",
	Long: `Prints one line per directive comment:

  file:line  prefix  template  [args]

Comments whose prefix the configured formatter does not handle are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	eng, err := newEngine(nil)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	total := 0
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, sp := range directive.Directives(string(src)) {
			d := sp.Directive
			if !format.Accepts(eng.Formatter(), d.Prefix) {
				continue
			}
			fmt.Fprintf(out, "%s:%d\t%s\t%s\t[%s]\n", path, sp.Line, d.Prefix, d.Template, strings.Join(d.Args, ", "))
			total++
		}
	}
	if logger != nil {
		logger.Debug("scan complete", zap.Int("files", len(args)), zap.Int("directives", total))
	}
	return nil
}
