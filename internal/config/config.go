package config

import (
	"slices"
	"strings"

	"github.com/ossyrian/carc/internal/errdefs"
	"github.com/ossyrian/carc/internal/fileaccess"
)

// Config holds app configuration
type Config struct {
	// SourcePath is the directory to archive for create/append, or the
	// archive file for extract/info/list/verify.
	SourcePath string `mapstructure:"source"`
	// DestinationPath is the archive file for create/append, or the
	// directory to extract into.
	DestinationPath string `mapstructure:"destination"`

	// Compress enables run-length encoding. It must match the archive's
	// setting when appending.
	Compress bool `mapstructure:"compress"`

	// RetryAttempts is how many times a file open is tried (1-10)
	RetryAttempts int `mapstructure:"retry_attempts"`
	// RetryWait is the number of seconds between open attempts (1-10)
	RetryWait int `mapstructure:"retry_wait"`

	LogLevel     string `mapstructure:"log_level"`
	LogOutputDir string `mapstructure:"log_output_dir"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		RetryAttempts: fileaccess.DefaultAttempts,
		RetryWait:     fileaccess.DefaultWait,
		LogLevel:      "info",
	}
}

// LogLevels are the accepted values of LogLevel. "fatal" logs at error
// level.
var LogLevels = []string{"debug", "info", "warn", "error", "fatal"}

// RetryPolicy validates the retry settings and converts them.
func (c Config) RetryPolicy() (fileaccess.RetryPolicy, error) {
	return fileaccess.NewRetryPolicy(c.RetryAttempts, c.RetryWait)
}

// Validate checks the settings every command shares. Path checks depend
// on the command and are done by the caller.
func (c Config) Validate() error {
	if _, err := c.RetryPolicy(); err != nil {
		return err
	}
	if c.LogLevel != "" && !slices.Contains(LogLevels, c.LogLevel) {
		return errdefs.Invalid("log level", c.LogLevel,
			"must be one of "+strings.Join(LogLevels, ", ")+" (empty means info)")
	}
	return nil
}
