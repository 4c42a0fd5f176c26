// internal/api/keywords.go
package api

import (
	"net/http"

	"service-directory/internal/models"
)

type keywordsResponse struct {
	Keywords []models.Keyword `json:"keywords"`
}

type homePageResponse struct {
	Categories []models.CategoryKeywordGroup `json:"categories"`
}

// handleListKeywords serves GET /api/keywords, optionally filtered with
// ?category=.
func (h *Handlers) handleListKeywords(w http.ResponseWriter, r *http.Request) {
	keywords, err := h.taxonomy.ListKeywords(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if keywords == nil {
		keywords = []models.Keyword{}
	}
	writeJSON(w, http.StatusOK, keywordsResponse{Keywords: keywords})
}

// handleHomePage serves GET /api/homepage: the categories and keywords the
// landing page renders as browse links.
func (h *Handlers) handleHomePage(w http.ResponseWriter, r *http.Request) {
	groups, err := h.taxonomy.HomePageGroups(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if groups == nil {
		groups = []models.CategoryKeywordGroup{}
	}
	writeJSON(w, http.StatusOK, homePageResponse{Categories: groups})
}
