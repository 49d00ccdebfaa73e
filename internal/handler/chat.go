// Package handler exposes the HTTP surface of the chat service.
// Handlers only talk to services, never repositories.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"strand/internal/handler/sse"
	"strand/internal/httputil"
	"strand/internal/service/llm"
)

const keepAliveInterval = 15 * time.Second

// ChatHandler handles chat turn requests.
type ChatHandler struct {
	orchestrator *llm.Orchestrator
	logger       *slog.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(orchestrator *llm.Orchestrator, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{orchestrator: orchestrator, logger: logger}
}

// HandleTurn runs one chat turn and streams the response.
// POST /api/chat
//
// Failures before the stream opens become plain JSON responses in the
// shapes the client expects; failures mid-stream become error events.
func (h *ChatHandler) HandleTurn(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req llm.ChatTurnRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	writer, err := sse.NewWriter(w)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	stopKeepAlive := h.startKeepAlive(r, writer)
	defer stopKeepAlive()

	cerr := h.orchestrator.HandleTurn(r.Context(), userID, &req, writer)
	if cerr == nil {
		return
	}

	if writer.Started() {
		if err := writer.Send("error", map[string]string{
			"type":    cerr.Kind,
			"message": cerr.UserFacingMessage,
		}); err != nil {
			h.logger.Warn("failed to send stream error event", "error", err)
		}
		return
	}

	h.respondPreStream(w, cerr)
}

// respondPreStream maps a classified error to the JSON shape expected
// before any bytes have streamed.
func (h *ChatHandler) respondPreStream(w http.ResponseWriter, cerr *llm.ClassifiedError) {
	switch cerr.Kind {
	case llm.KindValidation:
		httputil.RespondError(w, http.StatusBadRequest, cerr.RawMessage)
	case llm.KindUserKey:
		httputil.RespondErrorMessage(w, http.StatusUnauthorized, "USER_KEY_REQUIRED", cerr.UserFacingMessage)
	case llm.KindUsageLimit:
		httputil.RespondErrorCode(w, http.StatusForbidden, cerr.UserFacingMessage, "LIMIT_REACHED")
	case llm.KindAuth:
		httputil.RespondError(w, http.StatusUnauthorized, cerr.UserFacingMessage)
	default:
		httputil.RespondTypedError(w, http.StatusBadRequest, cerr.Kind, cerr.UserFacingMessage)
	}
}

// startKeepAlive holds the SSE connection open during provider
// silences. Returns a stop function for the handler to defer.
func (h *ChatHandler) startKeepAlive(r *http.Request, writer *sse.Writer) func() {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-r.Context().Done():
				return
			case <-ticker.C:
				if err := writer.KeepAlive(); err != nil {
					return
				}
			}
		}
	}()

	return func() { close(done) }
}
