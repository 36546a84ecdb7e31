package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koustreak/colsuggest/internal/config"
	"github.com/koustreak/colsuggest/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "colsuggest",
		Short:         "Autocomplete suggestions for PFrame columns.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to the YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(opts),
		newResolveCmd(opts),
		newCheckCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// load reads the config and builds the logger every subcommand uses.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	logCfg := cfg.Log
	logCfg.Output = cmd.ErrOrStderr()
	return cfg, logger.New(&logCfg), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "colsuggest", version)
		},
	}
}
