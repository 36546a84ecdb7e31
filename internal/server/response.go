package server

import (
	"encoding/json"
	"net/http"

	"github.com/koustreak/colsuggest/internal/errs"
	"github.com/koustreak/colsuggest/internal/logger"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Op    string `json:"op,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).ErrorWith("encode response", err, nil)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, r, statusOf(err), errorBody{
		Error: err.Error(),
		Kind:  errs.KindOf(err).String(),
		Op:    errs.OpOf(err),
	})
}

// statusOf maps an error kind onto an HTTP status. Backend failures are
// reported as a bad gateway: the resolver itself did not fail.
func statusOf(err error) int {
	switch errs.KindOf(err) {
	case errs.ErrKindInvalidInput:
		return http.StatusBadRequest
	case errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindPermissionDenied:
		return http.StatusForbidden
	case errs.ErrKindTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrKindConnectionFailed, errs.ErrKindQueryFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
