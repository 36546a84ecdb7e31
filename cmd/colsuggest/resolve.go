package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/koustreak/colsuggest/internal/backend"
	"github.com/koustreak/colsuggest/internal/logger"
	"github.com/koustreak/colsuggest/internal/pframe"
	"github.com/koustreak/colsuggest/internal/suggest"
)

type resolveOptions struct {
	frame       string
	column      string
	axis        int
	limit       int
	search      string
	searchValue string
	lenient     bool
}

func newResolveCmd(root *rootOptions) *cobra.Command {
	opts := &resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve suggestions for one column and print them as JSON",
		Example: `  colsuggest resolve -c colsuggest.yaml --frame pbmc --column cell-type --q "t c"
  colsuggest resolve -c colsuggest.yaml --frame pbmc --column cell-type --axis 1 --limit 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := root.load(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			b, err := backend.Open(ctx, cfg.Backend, log.Component("backend"))
			if err != nil {
				return err
			}
			defer b.Close()

			req := suggest.Request{
				ColumnID:         pframe.ObjectID(opts.column),
				Limit:            opts.limit,
				SearchQuery:      opts.search,
				SearchQueryValue: opts.searchValue,
			}
			if cmd.Flags().Changed("axis") {
				axis := opts.axis
				req.AxisIdx = &axis
			}

			r := suggest.NewResolver(suggest.WithSink(logger.Sink(log.Component("suggest"))))
			pc := pframe.Context{Handle: pframe.Handle(opts.frame), Driver: b.Driver}

			var res *suggest.Result
			if opts.lenient {
				if req.Limit <= 0 {
					req.Limit = cfg.Suggest.DefaultLimit
				}
				res = r.Suggest(ctx, pc, req)
			} else if res, err = r.Resolve(ctx, pc, req); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.frame, "frame", "", "frame handle")
	f.StringVar(&opts.column, "column", "", "column id")
	f.IntVar(&opts.axis, "axis", 0, "axis index; resolves the axis instead of the column values")
	f.IntVar(&opts.limit, "limit", 0, "maximum number of suggestions (0 = no limit)")
	f.StringVar(&opts.search, "q", "", "search labels (or values when the axis has no labels)")
	f.StringVar(&opts.searchValue, "qv", "", "search raw values")
	f.BoolVar(&opts.lenient, "lenient", false, "print an empty list instead of failing")
	_ = cmd.MarkFlagRequired("frame")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}
