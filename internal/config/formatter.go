package config

import "fmt"

// ValidFormatters lists the built-in formatter kinds.
var ValidFormatters = []string{"printf", "zap"}

// FormatterConfig selects and configures the directive formatter.
type FormatterConfig struct {
	Kind string `yaml:"kind"` // printf, zap

	// Prefixes restricts which directive prefixes are rewritten. Empty means all.
	Prefixes []string `yaml:"prefixes"`

	// WriterVar names the io.Writer binding used by the printf formatter.
	WriterVar string `yaml:"writer_var"`

	// LoggerVar names the *zap.SugaredLogger binding used by the zap formatter.
	LoggerVar string `yaml:"logger_var"`
}

// Validate checks the formatter kind and binding names.
func (f *FormatterConfig) Validate() error {
	valid := false
	for _, k := range ValidFormatters {
		if f.Kind == k {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid formatter: %s (valid: %v)", f.Kind, ValidFormatters)
	}
	if f.WriterVar != "" && !isIdent(f.WriterVar) {
		return fmt.Errorf("invalid writer_var %q", f.WriterVar)
	}
	if f.LoggerVar != "" && !isIdent(f.LoggerVar) {
		return fmt.Errorf("invalid logger_var %q", f.LoggerVar)
	}
	return nil
}
