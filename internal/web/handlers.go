package web

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"

	"github.com/hpungsan/memo/internal/config"
	"github.com/hpungsan/memo/internal/ops"
	"github.com/hpungsan/memo/internal/safety"
)

// Handlers contains HTTP route handlers for the viewer.
type Handlers struct {
	db         *sql.DB
	cfg        *config.Config
	classifier *safety.Classifier
	renderer   *Renderer
}

// NewHandlers wires the route handlers. A nil classifier uses the built-in rules.
func NewHandlers(db *sql.DB, cfg *config.Config, classifier *safety.Classifier, renderer *Renderer) *Handlers {
	if classifier == nil {
		classifier = safety.Default()
	}
	return &Handlers{db: db, cfg: cfg, classifier: classifier, renderer: renderer}
}

// HandleList handles GET /memos: the most recent entries, optionally filtered by q.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	result, err := ops.List(r.Context(), h.db, h.cfg, ops.ListInput{
		Query: query,
		Limit: parseIntParam(r, "limit", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	rows := make([]Row, 0, len(result.Items))
	for _, item := range result.Items {
		row := Row{Item: item}
		if rule, ok := h.classifier.Match(item.Cmd); ok {
			row.Rule = rule.Name
		}
		rows = append(rows, row)
	}

	h.renderer.renderPage(w, "list", ListPageData{
		PageData: PageData{
			Title:   "Memos",
			Version: h.renderer.version,
		},
		Rows:  rows,
		Query: query,
		Limit: result.Limit,
	})
}

// HandleDetail handles GET /memos/{index}: one entry by relative index.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	index, err := ops.ParseIndex(r.PathValue("index"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	e, err := ops.Resolve(r.Context(), h.db, index)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	item := e.ToItem(index)
	rule, dangerous := h.classifier.Match(e.Cmd)

	if wantsJSON(r) {
		resp := map[string]any{"item": item, "dangerous": dangerous}
		if dangerous {
			resp["rule"] = rule.Name
		}
		renderJSON(w, http.StatusOK, resp)
		return
	}

	h.renderer.renderPage(w, "detail", DetailPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Memo %d", index),
			Version: h.renderer.version,
		},
		Item:         item,
		Rule:         rule.Name,
		RenderedHTML: renderCommand(e.Cmd),
	})
}

// parseIntParam parses an integer query parameter with a default value.
// Negative values fall back to the default.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	return v
}
