package suggest

import (
	"context"

	"github.com/koustreak/colsuggest/internal/diag"
	"github.com/koustreak/colsuggest/internal/pframe"
)

// DefaultSuggestLimit bounds Suggest when the request sets no limit.
const DefaultSuggestLimit = 300

// Suggest is the lenient form of Resolve used by interactive callers. It
// never fails: a missing driver yields an empty list and any error is
// reported to the sink and degrades to an empty list.
func (r *Resolver) Suggest(ctx context.Context, pc pframe.Context, req Request) *Result {
	if pc.Driver == nil {
		return emptyResult()
	}
	if req.Limit <= 0 {
		req.Limit = DefaultSuggestLimit
	}

	res, err := r.Resolve(ctx, pc, req)
	if err != nil {
		r.sink.Emit(diag.Event{
			Level:    diag.LevelError,
			Op:       OpSuggest,
			Message:  "suggestion lookup failed",
			ColumnID: string(req.ColumnID),
			Err:      err,
			Fields:   map[string]any{"search": req.SearchQuery, "search_value": req.SearchQueryValue},
		})
		return emptyResult()
	}
	return res
}
