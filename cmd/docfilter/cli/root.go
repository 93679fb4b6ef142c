package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/docfilter/internal/config"
	"github.com/rebeliceyang/docfilter/internal/editor"
	"github.com/rebeliceyang/docfilter/internal/logging"
)

// VersionInfo is stamped into the binary at build time
type VersionInfo struct {
	Version string
	Commit  string
}

// runtime is what PersistentPreRunE prepares for every subcommand
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
}

// editorOptions builds controller options from the config. Debouncing is
// turned off: the CLI works on whole rule lists, never on keystrokes.
func (rt *runtime) editorOptions() editor.Options {
	opts := editor.OptionsFromConfig(rt.cfg.Editor, rt.logger)
	opts.TextDebounce, opts.ValueDebounce = 0, 0
	return opts
}

func NewRootCommand(info VersionInfo) *cobra.Command {
	var (
		path     string
		logLevel string
	)
	rt := &runtime{}

	cmd := &cobra.Command{
		Use:           config.AppName,
		Short:         "Document filter rule editor",
		Long:          "Decode, encode, compare and store document filter rule lists, including custom field queries.",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(path)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, closeLog, err := logging.New(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			rt.cfg, rt.logger, rt.closeLog = cfg, logger, closeLog
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if rt.closeLog == nil {
				return nil
			}
			return rt.closeLog()
		},
	}

	cmd.PersistentFlags().StringVar(&path, "config", "", "config file (default is $XDG_CONFIG_HOME/docfilter/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cmd.Version = fmt.Sprintf("%s.%s", info.Version, info.Commit)

	cmd.AddCommand(newVersionCommand(info))
	cmd.AddCommand(newRulesCommand(rt))
	cmd.AddCommand(newQueryCommand(rt))
	cmd.AddCommand(newViewCommand(rt))
	cmd.AddCommand(newItemsCommand(rt))

	return cmd
}

func newVersionCommand(info VersionInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", config.AppName, info.Version, info.Commit)
			return err
		},
	}
}
