package handler

import (
	"net/http"

	"strand/internal/catalog"
	"strand/internal/httputil"
)

// ModelsHandler serves the static model catalog.
type ModelsHandler struct {
	registry *catalog.Registry
}

// NewModelsHandler creates a models handler.
func NewModelsHandler(registry *catalog.Registry) *ModelsHandler {
	return &ModelsHandler{registry: registry}
}

// ListModels returns every model in catalog order.
// GET /api/models
func (h *ModelsHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"models": h.registry.List(),
	})
}
