package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/pinchviz/internal/source"
)

// DefaultRowLimit caps the rows returned when no limit is given.
const DefaultRowLimit = 100

// TablesHandler serves the table catalogue and table rows.
type TablesHandler struct {
	source source.Source
}

// NewTablesHandler creates a TablesHandler over src.
func NewTablesHandler(src source.Source) *TablesHandler {
	return &TablesHandler{source: src}
}

type listTablesResponse struct {
	Tables []string `json:"tables"`
}

type rowsResponse struct {
	Table string          `json:"table"`
	Total int             `json:"total"`
	Rows  []source.Record `json:"rows"`
}

// ServeHTTP routes /api/tables and /api/tables/{name}/rows.
func (h *TablesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/tables")
	path = strings.Trim(path, "/")

	if path == "" {
		h.list(w, r)
		return
	}

	name, rest, _ := strings.Cut(path, "/")
	if rest != "rows" || name == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	h.rows(w, r, name)
}

// list handles GET /api/tables.
func (h *TablesHandler) list(w http.ResponseWriter, r *http.Request) {
	tables, err := h.source.ListTables(r.Context())
	if err != nil {
		log.Printf("Error listing tables: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list tables")
		return
	}
	if tables == nil {
		tables = []string{}
	}
	writeJSON(w, http.StatusOK, listTablesResponse{Tables: tables})
}

// rows handles GET /api/tables/{name}/rows?limit=N.
func (h *TablesHandler) rows(w http.ResponseWriter, r *http.Request, name string) {
	limit := DefaultRowLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.source.FetchAll(r.Context(), name)
	if errors.Is(err, source.ErrUnknownTable) {
		writeError(w, http.StatusNotFound, "unknown table")
		return
	}
	if err != nil {
		log.Printf("Error fetching %s: %v", name, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch rows")
		return
	}

	resp := rowsResponse{Table: name, Total: len(records), Rows: records}
	if len(resp.Rows) > limit {
		resp.Rows = resp.Rows[:limit]
	}
	if resp.Rows == nil {
		resp.Rows = []source.Record{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// RelationshipsHandler serves the foreign keys between tables.
type RelationshipsHandler struct {
	source source.Source
}

// NewRelationshipsHandler creates a RelationshipsHandler over src.
func NewRelationshipsHandler(src source.Source) *RelationshipsHandler {
	return &RelationshipsHandler{source: src}
}

type relationshipsResponse struct {
	Relationships []source.Relationship `json:"relationships"`
}

// ServeHTTP handles GET /api/relationships.
func (h *RelationshipsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rels, err := h.source.ListRelationships(r.Context())
	if err != nil {
		log.Printf("Error listing relationships: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list relationships")
		return
	}
	if rels == nil {
		rels = []source.Relationship{}
	}
	writeJSON(w, http.StatusOK, relationshipsResponse{Relationships: rels})
}
