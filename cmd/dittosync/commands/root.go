// Package commands implements the dittosync command line.
package commands

import (
	"fmt"

	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/pkg/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "dittosync",
	Short: "DittoSync: restore archived files from NFS list files",
	Long: `DittoSync reads container objects from a source, applies the path and
POSIX metadata recorded in a list file, and writes the restored files to a
target.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/dittosync/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCASCmd())
}

// loadConfig loads the configuration and applies the logging section. The
// returned function closes the log file, if any.
func loadConfig() (*config.Config, func(), error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
		if err := config.Validate(cfg); err != nil {
			return nil, nil, err
		}
	}

	out, closeLog, err := logger.Open(cfg.Logging.Output)
	if err != nil {
		return nil, nil, err
	}
	logger.SetOutput(out)
	logger.SetFormat(cfg.Logging.Format)
	logger.SetLevel(cfg.Logging.Level)

	return cfg, func() {
		if err := closeLog(); err != nil {
			fmt.Printf("failed to close log output: %v\n", err)
		}
	}, nil
}
