package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koustreak/colsuggest/internal/backend"
	"github.com/koustreak/colsuggest/internal/errs"
	"github.com/koustreak/colsuggest/internal/pframe"
	"github.com/koustreak/colsuggest/internal/pframe/sqlframe"
	"github.com/koustreak/colsuggest/internal/schema"
)

func newCheckCmd(root *rootOptions) *cobra.Command {
	var frame string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that the data tables of a SQL frame have the expected columns",
		Args:  cobra.NoArgs,
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

			sf, ok := b.Driver.(*sqlframe.Driver)
			if !ok {
				return errs.Newf(errs.ErrKindInvalidInput, "check needs a SQL backend, got %q", cfg.Backend.Kind)
			}
			tables, err := sf.Layout(ctx, pframe.Handle(frame))
			if err != nil {
				return err
			}
			problems, err := schema.Check(ctx, schema.NewReader(b.DB), tables)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range problems {
				fmt.Fprintln(out, p.String())
			}
			if len(problems) > 0 {
				return errs.Newf(errs.ErrKindInvalidInput, "frame %q: %d layout problem(s)", frame, len(problems))
			}
			fmt.Fprintf(out, "frame %q: %d data table(s) ok\n", frame, len(tables))
			return nil
		},
	}
	cmd.Flags().StringVar(&frame, "frame", "", "frame handle")
	_ = cmd.MarkFlagRequired("frame")
	return cmd
}
