package handler

import (
	"net/http"

	"strand/internal/domain/models"
	"strand/internal/domain/repositories"
	"strand/internal/httputil"
)

// MessagesHandler serves the persisted transcript.
type MessagesHandler struct {
	store repositories.ChatStore
}

// NewMessagesHandler creates a messages handler.
func NewMessagesHandler(store repositories.ChatStore) *MessagesHandler {
	return &MessagesHandler{store: store}
}

// ListMessages returns a chat's messages in creation order.
// GET /api/chats/{id}/messages
func (h *MessagesHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	chatID, ok := PathParam(w, r, "id", "Chat ID")
	if !ok {
		return
	}

	messages, err := h.store.ListMessages(r.Context(), userID, chatID)
	if err != nil {
		handleError(w, err)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}
