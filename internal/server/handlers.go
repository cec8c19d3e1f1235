package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/salmonumbrella/braindump/internal/enhance"
	"github.com/salmonumbrella/braindump/internal/materialize"
	"github.com/salmonumbrella/braindump/internal/outline"
	"github.com/salmonumbrella/braindump/internal/store"
)

type textRequest struct {
	Text   string `json:"text"`
	Format string `json:"format"`
}

type importRequest struct {
	Text     string `json:"text"`
	Format   string `json:"format"`
	ParentID string `json:"parent_id"`
	Enhance  bool   `json:"enhance"`
	OnError  string `json:"on_error"`
}

type importResponse struct {
	materialize.Result
	Error string `json:"error,omitempty"`
}

// handleEnhance handles POST /api/enhance.
func (s *Server) handleEnhance(w http.ResponseWriter, r *http.Request) {
	if s.enhancer == nil {
		writeError(w, http.StatusServiceUnavailable, enhance.ErrDisabled.Error())
		return
	}
	var req textRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	enh, err := s.enhancer.Enhance(r.Context(), req.Text)
	if err != nil {
		s.logger.Warn("enhance failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, enh)
}

// handleParse handles POST /api/outline/parse.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeBody(w, r, &req) {
		return
	}
	forest, err := outline.ParseFormat(req.Text, req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": outline.Count(forest),
		"nodes": forest,
	})
}

// handleImport handles POST /api/outline/import.
// 201 when every record was created, 207 when the batch stopped or lost records.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !decodeBody(w, r, &req) {
		return
	}
	forest, err := outline.ParseFormat(req.Text, req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	policy, err := materialize.ParsePolicy(req.OnError)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Enhance && s.enhancer == nil {
		writeError(w, http.StatusServiceUnavailable, enhance.ErrDisabled.Error())
		return
	}

	opts := []materialize.Option{
		materialize.WithPolicy(policy),
		materialize.WithDefaults(s.defaults),
		materialize.WithLogger(s.logger),
	}
	if req.Enhance {
		opts = append(opts, materialize.WithEnhancer(enhance.Func(s.enhancer)))
	}

	res, err := materialize.New(s.store.Create, opts...).Run(r.Context(), forest, req.ParentID)
	if err != nil {
		var partial *materialize.PartialError
		if errors.As(err, &partial) {
			writeJSON(w, http.StatusMultiStatus, importResponse{Result: res, Error: err.Error()})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, importResponse{Result: res})
}

// handleListRecords handles GET /api/records.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	opts := store.ListOptions{Parent: r.URL.Query().Get("parent")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		opts.Limit = limit
	}

	recs, err := s.store.List(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": recs})
}

// handleGetRecord handles GET /api/records/{id}.
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
