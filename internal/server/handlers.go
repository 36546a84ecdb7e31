package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/koustreak/colsuggest/internal/errs"
	"github.com/koustreak/colsuggest/internal/pframe"
	"github.com/koustreak/colsuggest/internal/suggest"
)

type columnResponse struct {
	ID   pframe.ObjectID   `json:"id"`
	Spec pframe.ColumnSpec `json:"spec"`
}

type columnsResponse struct {
	Columns []columnResponse `json:"columns"`
}

type filterOptionsResponse struct {
	Options []suggest.FilterOption `json:"options"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// findColumns handles GET /v1/frames/{handle}/columns.
//
// Query: name, type, source and not_empty may repeat; annotation=key=value
// may repeat; strict=true asks for strict compatibility with the sources.
func (s *Server) findColumns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	p := suggest.FindParams{
		Names:               q["name"],
		AnnotationsNotEmpty: q["not_empty"],
	}
	for _, t := range q["type"] {
		p.Types = append(p.Types, pframe.ValueType(t))
	}
	for _, src := range q["source"] {
		p.SelectedSources = append(p.SelectedSources, pframe.ObjectID(src))
	}
	for _, kv := range q["annotation"] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			writeError(w, r, errs.Newf(errs.ErrKindInvalidInput, "annotation filter %q is not key=value", kv))
			return
		}
		if p.Annotations == nil {
			p.Annotations = map[string]string{}
		}
		p.Annotations[k] = v
	}
	strict, err := boolParam(q.Get("strict"), "strict")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p.StrictlyCompatible = strict

	hits, err := s.resolver.FindColumns(r.Context(), s.frameContext(r), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := columnsResponse{Columns: make([]columnResponse, len(hits))}
	for i, h := range hits {
		resp.Columns[i] = columnResponse{ID: h.ColumnID, Spec: h.Spec}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// columnSpec handles GET /v1/frames/{handle}/columns/{columnID}/spec.
func (s *Server) columnSpec(w http.ResponseWriter, r *http.Request) {
	id := pframe.ObjectID(chi.URLParam(r, "columnID"))
	spec, err := s.resolver.ColumnSpec(r.Context(), s.frameContext(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if spec == nil {
		writeError(w, r, errs.Newf(errs.ErrKindNotFound, "column %q not found", id))
		return
	}
	writeJSON(w, r, http.StatusOK, columnResponse{ID: id, Spec: *spec})
}

// suggestions handles GET /v1/frames/{handle}/columns/{columnID}/suggestions.
//
// Query: axis (index into the column axes), limit, q (label search),
// qv (value search), lenient=true to degrade errors to an empty list.
func (s *Server) suggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := suggest.Request{
		ColumnID:         pframe.ObjectID(chi.URLParam(r, "columnID")),
		SearchQuery:      q.Get("q"),
		SearchQueryValue: q.Get("qv"),
	}

	if v := q.Get("axis"); v != "" {
		idx, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, errs.Wrap(errs.ErrKindInvalidInput, "axis must be an integer", err))
			return
		}
		req.AxisIdx = &idx
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, errs.Wrap(errs.ErrKindInvalidInput, "limit must be an integer", err))
			return
		}
		req.Limit = limit
	}
	lenient, err := boolParam(q.Get("lenient"), "lenient")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var res *suggest.Result
	if lenient {
		if req.Limit <= 0 {
			req.Limit = s.defaultLimit
		}
		res = s.resolver.Suggest(r.Context(), s.frameContext(r), req)
	} else {
		res, err = s.resolver.Resolve(r.Context(), s.frameContext(r), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}
	s.metrics.ObserveResult(string(res.Source), res.Overflow)
	writeJSON(w, r, http.StatusOK, res)
}

// filterOptions handles GET /v1/frames/{handle}/filter-options?anchor=.
func (s *Server) filterOptions(w http.ResponseWriter, r *http.Request) {
	anchor := r.URL.Query().Get("anchor")
	if anchor == "" {
		writeError(w, r, errs.New(errs.ErrKindInvalidInput, "anchor is required"))
		return
	}
	opts, err := s.resolver.AnchorFilterOptions(r.Context(), s.frameContext(r), pframe.ObjectID(anchor))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if opts == nil {
		opts = []suggest.FilterOption{}
	}
	writeJSON(w, r, http.StatusOK, filterOptionsResponse{Options: opts})
}

func boolParam(v, name string) (bool, error) {
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errs.Wrap(errs.ErrKindInvalidInput, name+" must be a boolean", err)
	}
	return b, nil
}
