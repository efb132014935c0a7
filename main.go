package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ossyrian/carc/internal/config"
	"github.com/ossyrian/carc/internal/engine"
	"github.com/ossyrian/carc/internal/errdefs"
	"github.com/ossyrian/carc/internal/logging"
)

var (
	cfgFile   string
	cfg       *config.Config
	eng       *engine.Engine
	logCloser io.Closer
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "carc",
	Short: "Create, append to, extract and inspect custom archives",
	Long: `carc packs a directory tree into a single archive file, optionally
run-length encoding every file. Archives can later be appended to,
extracted, or inspected. Only one operation runs per invocation.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")

	// i/o
	rootCmd.PersistentFlags().StringP("source", "s", "", "source directory (create, append) or archive file (extract, info, list, verify)")
	rootCmd.PersistentFlags().StringP("destination", "d", "", "archive file (create, append) or target directory (extract)")

	// archive settings
	rootCmd.PersistentFlags().BoolP("compress", "r", false, "run-length encode file contents (create, append)")
	rootCmd.PersistentFlags().IntP("retry-attempts", "n", 1, "number of attempts to open a file (1-10)")
	rootCmd.PersistentFlags().IntP("retry-wait", "w", 1, "seconds to wait between attempts to open a file (1-10)")

	// other opts
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().String("log-output-dir", "", "directory to write log files (if set, logs are written to both stderr and file)")

	viper.BindPFlag("source", rootCmd.PersistentFlags().Lookup("source"))
	viper.BindPFlag("destination", rootCmd.PersistentFlags().Lookup("destination"))
	viper.BindPFlag("compress", rootCmd.PersistentFlags().Lookup("compress"))
	viper.BindPFlag("retry_attempts", rootCmd.PersistentFlags().Lookup("retry-attempts"))
	viper.BindPFlag("retry_wait", rootCmd.PersistentFlags().Lookup("retry-wait"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_output_dir", rootCmd.PersistentFlags().Lookup("log-output-dir"))

	rootCmd.AddCommand(createCmd, appendCmd, extractCmd, infoCmd, listCmd, verifyCmd)
}

// initConfig reads in config file and environment variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "carc"))
		}
		viper.AddConfigPath("/etc/carc")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("CARC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setup validates the configuration and builds the logger and engine
// shared by every subcommand.
func setup(cmd *cobra.Command, args []string) error {
	c := config.Default()
	if err := viper.Unmarshal(&c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = &c

	logger, closer, err := logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogOutputDir)
	if err != nil {
		return fmt.Errorf("could not set up logging: %w", err)
	}
	logCloser = closer

	policy, err := cfg.RetryPolicy()
	if err != nil {
		return err
	}

	eng, err = engine.New(engine.Options{
		Compression: cfg.Compress,
		Retry:       policy,
		Logger:      logger,
	})
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)

		var ve *errdefs.ValidationError
		if errors.As(err, &ve) {
			fmt.Fprintln(os.Stderr, "Run 'carc --help' for usage.")
		}
		os.Exit(1)
	}
}
