package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atomicstack/vault-browser/internal/api"
	"github.com/atomicstack/vault-browser/internal/db"
	"github.com/atomicstack/vault-browser/internal/tree"
)

const maxPageSize = 1000

type listResponse struct {
	Results []tree.Node `json:"results"`
	Next    *string     `json:"next"`
}

type createRequest struct {
	Name     string `json:"name"`
	NodeType string `json:"node_type"`
	Parent   string `json:"parent"`
}

var mutableFields = map[string]struct{}{"name": {}, "parent": {}}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

func collectionURL(r *http.Request) string {
	return baseURL(r) + "/api/" + api.ResourceTreeNodes + "/"
}

func (s *Server) withURL(r *http.Request, n tree.Node) tree.Node {
	n.URL = collectionURL(r) + url.PathEscape(n.ID) + "/"
	return n
}

func (s *Server) discover(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		api.ResourceTreeNodes: collectionURL(r),
	})
}

func (s *Server) listNodes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := defaultPageSize
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxPageSize)
	}
	offset := 0
	if raw := q.Get("cursor"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid cursor")
			return
		}
		offset = n
	}
	ordering := q.Get("ordering")
	if !db.ValidOrdering(ordering) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown ordering %q", ordering))
		return
	}

	nodes, more, err := s.store.List(r.Context(), db.ListQuery{
		Parent:   q.Get("parent"),
		Ordering: ordering,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	resp := listResponse{Results: make([]tree.Node, 0, len(nodes))}
	for _, n := range nodes {
		resp.Results = append(resp.Results, s.withURL(r, n))
	}
	if more {
		next := url.Values{}
		next.Set("parent", q.Get("parent"))
		next.Set("limit", strconv.Itoa(limit))
		if ordering != "" {
			next.Set("ordering", ordering)
		}
		next.Set("cursor", strconv.Itoa(offset+limit))
		link := collectionURL(r) + "?" + next.Encode()
		resp.Next = &link
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getNode(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.withURL(r, n))
}

func (s *Server) createNode(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.NodeType == "" || req.Parent == "" {
		writeError(w, http.StatusBadRequest, "node_type and parent are required")
		return
	}
	typ, err := tree.ParseType(req.NodeType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := s.store.Create(r.Context(), req.Name, typ, req.Parent)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.withURL(r, n))
}

func (s *Server) patchNode(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	var patch db.Patch
	for field, raw := range body {
		if _, ok := mutableFields[field]; !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("field %q is not mutable", field))
			return
		}
		v, err := decodeString(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: %v", field, err))
			return
		}
		switch field {
		case "name":
			patch.Name = &v
		case "parent":
			patch.Parent = &v
		}
	}
	n, err := s.store.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.withURL(r, n))
}

func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeString accepts a JSON string or number. Integer ids from other
// servers arrive as numbers.
func decodeString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", errors.New("expected a string")
	}
	return n.String(), nil
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var illegal *tree.IllegalMoveError
	switch {
	case errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, db.ErrNameConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &illegal),
		errors.Is(err, db.ErrEmptyName),
		errors.Is(err, db.ErrParentRequired),
		errors.Is(err, db.ErrParentNotFound),
		errors.Is(err, db.ErrCreateType),
		errors.Is(err, db.ErrBadParent),
		errors.Is(err, db.ErrNotDeletable):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("store failure", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
