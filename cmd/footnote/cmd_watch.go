package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"footnote/internal/codegen"
	"footnote/internal/watch"
	"footnote/pkg/footnote"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// watchCmd regenerates rewritten files as sources change
var watchCmd = &cobra.Command{
	Use:   "watch DIR",
	Short: "Rewrite Go files of DIR into --out whenever they change",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	src := args[0]
	dst := outDir
	if dst == "" {
		dst = currentConfig().Codegen.OutDir
	}
	if err := checkWatchDirs(src, dst); err != nil {
		return err
	}

	eng, err := newEngine(nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rewriteDir(ctx, eng, src, dst); err != nil {
		return err
	}

	w, err := watch.New(watchHandler(eng, dst), currentConfig().GetWatchDebounce(), src)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "watching %s -> %s (ctrl-c to stop)\n", src, dst)

	<-ctx.Done()
	w.Stop()

	stats := w.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "rewrote %d files, %d errors\n", stats.Handled, stats.Errors)
	return nil
}

// checkWatchDirs rejects an output directory that is, or lies inside, the
// watched directory; writes there would trigger the watcher again.
func checkWatchDirs(src, dst string) error {
	if dst == "" {
		return errors.New("watch needs an output directory (--out or codegen.out_dir)")
	}
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(absSrc, absDst)
	if err == nil && (rel == "." || !strings.HasPrefix(rel, "..")) {
		return fmt.Errorf("output directory %s must be outside %s", dst, src)
	}
	return nil
}

// watchHandler rewrites one changed file into dst.
func watchHandler(eng *footnote.Engine, dst string) watch.Handler {
	write := codegen.WriteTo(dst)
	return func(ctx context.Context, path string) error {
		res, err := eng.RewriteFile(path)
		if err != nil {
			return err
		}
		if logger != nil {
			logger.Info("regenerated", zap.String("file", path), zap.Int("directives", res.Directives))
		}
		return write(path, res)
	}
}

// rewriteDir does the initial pass over the .go files of src.
func rewriteDir(ctx context.Context, eng *footnote.Engine, src, dst string) error {
	matches, err := filepath.Glob(filepath.Join(src, "*.go"))
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return nil
	}
	return eng.RewriteFiles(ctx, matches, codegen.WriteTo(dst))
}
