package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"certaudit/internal/config"
	"certaudit/internal/infrastructure"
	"certaudit/pkg/contracts"
)

// cli holds what the persistent pre-run loads for every command.
type cli struct {
	configFile string
	logLevel   string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "certaudit",
		Short:         "Audit certidão spreadsheets",
		Long:          "certaudit checks certidão tables for duplicates, bad dates, expired validity and inconsistent tax IDs, and writes the error reports.",
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd.ErrOrStderr())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			infrastructure.CloseLogFile()
		},
	}
	addGlobalFlags(root.PersistentFlags(), c)

	root.AddCommand(
		newAuditCmd(c),
		newFetchCmd(c),
		newScoreCmd(c),
		newServeCmd(c),
		newVersionCmd(),
	)
	return root
}

func addGlobalFlags(fs *pflag.FlagSet, c *cli) {
	fs.StringVar(&c.configFile, "config", "", "YAML configuration file (default certaudit.yaml or $CERTAUDIT_CONFIG)")
	fs.StringVar(&c.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
}

func (c *cli) load(stderr io.Writer) error {
	var (
		cfg *config.Config
		err error
	)
	if c.configFile != "" {
		cfg, err = config.LoadFile(c.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
	}

	// logs go to stderr so command output stays parseable
	logger, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	c.cfg = cfg
	c.logger = logger
	return nil
}

// folders returns the command arguments, or the configured folders when
// none were given.
func (c *cli) folders(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(c.cfg.Source.Folders) > 0 {
		return c.cfg.Source.Folders, nil
	}
	return nil, fmt.Errorf("no folders given and none configured (CERTAUDIT_SOURCE_FOLDERS)")
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
