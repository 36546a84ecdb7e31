package main

import (
	"github.com/spf13/cobra"

	"github.com/koustreak/colsuggest/internal/backend"
	"github.com/koustreak/colsuggest/internal/diag"
	"github.com/koustreak/colsuggest/internal/logger"
	"github.com/koustreak/colsuggest/internal/metrics"
	"github.com/koustreak/colsuggest/internal/server"
	"github.com/koustreak/colsuggest/internal/suggest"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the suggestion HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := root.load(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx := cmd.Context()

			b, err := backend.Open(ctx, cfg.Backend, log.Component("backend"))
			if err != nil {
				return err
			}
			defer b.Close()

			m := metrics.New()
			resolver := suggest.NewResolver(suggest.WithSink(diag.Multi(
				logger.Sink(log.Component("suggest")),
				m.Sink(),
			)))

			srv, err := server.New(server.Options{
				Config:       cfg.Server,
				DefaultLimit: cfg.Suggest.DefaultLimit,
				Driver:       b.Driver,
				Resolver:     resolver,
				Log:          log.Component("http"),
				Metrics:      m,
			})
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "override server.addr")
	return cmd
}
