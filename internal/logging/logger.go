// Package logging provides config-driven categorized logging for footnote.
// Every category is a named child of one zap logger. Logging is off unless
// debug mode is enabled; a disabled category hands out a no-op logger.
package logging

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/subsystem
type Category string

const (
	CategoryBoot      Category = "boot"      // CLI startup, config loading
	CategoryDirective Category = "directive" // Comment directive parsing
	CategoryPipeline  Category = "pipeline"  // Text transform stages
	CategoryBinder    Category = "binder"    // Recompile and rebind
	CategorySpread    Category = "spread"    // Class projection
	CategoryCapture   Category = "capture"   // Go source capture
	CategoryCodegen   Category = "codegen"   // Build-stage file rewriting
	CategoryWatch     Category = "watch"     // Filesystem watcher
)

// Options mirrors config.LoggingConfig to avoid an import cycle.
type Options struct {
	DebugMode  bool
	Level      string          // debug, info, warn, error
	Format     string          // json, console
	Categories map[string]bool // per-category toggles, nil enables all
	Outputs    []string        // zap output paths, default stderr
}

// Logger is a printf-style logger bound to one category.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu      sync.RWMutex
	opts    Options
	base    = zap.NewNop()
	loggers = make(map[Category]*Logger)
)

// Configure rebuilds the base logger from opts. Loggers handed out before the
// call keep writing to the previous core.
func Configure(o Options) error {
	mu.Lock()
	defer mu.Unlock()

	opts = o
	loggers = make(map[Category]*Logger)

	if !o.DebugMode {
		base = zap.NewNop()
		return nil
	}

	level, err := zapcore.ParseLevel(o.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	cfg := zap.NewDevelopmentConfig()
	if o.Format == "json" {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	if len(o.Outputs) > 0 {
		cfg.OutputPaths = o.Outputs
	}

	l, err := cfg.Build()
	if err != nil {
		base = zap.NewNop()
		return fmt.Errorf("failed to build logger: %w", err)
	}
	base = l
	return nil
}

// UseCore installs an existing zap core, enabling every category. Tests use it
// with zaptest/observer.
func UseCore(core zapcore.Core) {
	mu.Lock()
	defer mu.Unlock()
	opts = Options{DebugMode: true}
	base = zap.New(core)
	loggers = make(map[Category]*Logger)
}

// IsDebugMode returns whether debug logging is enabled
func IsDebugMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return opts.DebugMode
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return categoryEnabled(category)
}

func categoryEnabled(category Category) bool {
	if !opts.DebugMode {
		return false
	}
	if opts.Categories == nil {
		return true
	}
	enabled, exists := opts.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	l := &Logger{category: category, sugar: zap.NewNop().Sugar()}
	if categoryEnabled(category) {
		l.sugar = base.Named(string(category)).Sugar()
	}
	loggers[category] = l
	return l
}

// Zap exposes the underlying structured logger.
func (l *Logger) Zap() *zap.Logger {
	return l.sugar.Desugar()
}

func (l *Logger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// With returns a logger carrying structured key-value context.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// Sync flushes the base logger.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if err := base.Sync(); err != nil && opts.DebugMode {
		fmt.Fprintf(os.Stderr, "[logging] sync: %v\n", err)
	}
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// =============================================================================

func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }

func DirectiveDebug(format string, args ...interface{}) { Get(CategoryDirective).Debug(format, args...) }

func PipelineDebug(format string, args ...interface{}) { Get(CategoryPipeline).Debug(format, args...) }

func CaptureDebug(format string, args ...interface{}) { Get(CategoryCapture).Debug(format, args...) }

func Codegen(format string, args ...interface{})      { Get(CategoryCodegen).Info(format, args...) }
func CodegenDebug(format string, args ...interface{}) { Get(CategoryCodegen).Debug(format, args...) }

func Watch(format string, args ...interface{})      { Get(CategoryWatch).Info(format, args...) }
func WatchDebug(format string, args ...interface{}) { Get(CategoryWatch).Debug(format, args...) }
func WatchError(format string, args ...interface{}) { Get(CategoryWatch).Error(format, args...) }
