package main

import (
	"context"
	"errors"
	"fmt"

	"footnote/internal/codegen"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	rewriteInPlace bool
	outDir         string
)

// rewriteCmd runs the build-stage rewrite
var rewriteCmd = &cobra.Command{
	Use:   "rewrite FILE...",
	Short: "Rewrite marked functions into plain Go source",
	Long: `Replaces the directive comments of every function marked with
// @<engine>.inject by formatter code, removes the marker line and fixes
imports. Results go to stdout unless -w or --out is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRewrite,
}

func runRewrite(cmd *cobra.Command, args []string) error {
	dir := outDir
	if dir == "" {
		dir = currentConfig().Codegen.OutDir
	}
	if rewriteInPlace && outDir != "" {
		return errors.New("--write and --out are mutually exclusive")
	}

	eng, err := newEngine(nil)
	if err != nil {
		return err
	}

	switch {
	case rewriteInPlace:
		return eng.RewriteFiles(context.Background(), args, codegen.WriteInPlace())
	case dir != "":
		return eng.RewriteFiles(context.Background(), args, codegen.WriteTo(dir))
	}

	// stdout keeps argument order
	out := cmd.OutOrStdout()
	for _, path := range args {
		r, err := eng.RewriteFile(path)
		if err != nil {
			return err
		}
		if len(args) > 1 {
			fmt.Fprintf(out, "// %s\n", path)
		}
		if _, err := out.Write(r.Source); err != nil {
			return err
		}
		if logger != nil {
			logger.Debug("rewrote", zap.String("file", path), zap.Strings("functions", r.Functions))
		}
	}
	return nil
}
