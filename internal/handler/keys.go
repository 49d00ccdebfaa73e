package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"strand/internal/domain"
	"strand/internal/domain/models"
	"strand/internal/domain/repositories"
	"strand/internal/httputil"
)

// KeysHandler manages user-supplied provider API keys. Key material is
// write-only: it is encrypted at rest and never returned.
type KeysHandler struct {
	store  repositories.ChatStore
	logger *slog.Logger
}

// NewKeysHandler creates a keys handler.
func NewKeysHandler(store repositories.ChatStore, logger *slog.Logger) *KeysHandler {
	return &KeysHandler{store: store, logger: logger}
}

// ListKeys returns metadata for the caller's stored keys.
// GET /api/keys
func (h *KeysHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	entries, err := h.store.ListKeyEntries(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}
	if entries == nil {
		entries = []models.APIKeyEntry{}
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"keys": entries})
}

type putKeyRequest struct {
	Key  string `json:"key"`
	Mode string `json:"mode"`
}

func (req *putKeyRequest) validate() error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Key, validation.Required.Error("key is required")),
		validation.Field(&req.Mode, validation.In("", models.KeyModePriority, models.KeyModeFallback).
			Error("mode must be priority or fallback")),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", err.Error(), domain.ErrValidation)
	}
	return nil
}

// PutKey stores or replaces the caller's key for a provider.
// PUT /api/keys/{provider}
func (h *KeysHandler) PutKey(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	provider, ok := PathParam(w, r, "provider", "Provider")
	if !ok {
		return
	}

	var req putKeyRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		handleError(w, err)
		return
	}
	if req.Mode == "" {
		req.Mode = models.KeyModeFallback
	}

	if err := h.store.PutKey(r.Context(), userID, provider, req.Key, req.Mode); err != nil {
		handleError(w, err)
		return
	}

	entry, err := h.store.GetKeyEntry(r.Context(), userID, provider)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, entry)
}

// DeleteKey removes the caller's key for a provider.
// DELETE /api/keys/{provider}
func (h *KeysHandler) DeleteKey(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	provider, ok := PathParam(w, r, "provider", "Provider")
	if !ok {
		return
	}

	if err := h.store.DeleteKey(r.Context(), userID, provider); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
