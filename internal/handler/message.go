package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/workmates/internal/auth"
	"github.com/sakif/workmates/internal/service"
)

// MessageHandler serves the direct-message routes. All of them require
// authentication — there is no anonymous messaging.
type MessageHandler struct {
	messages *service.MessageService
	logger   *slog.Logger
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(messages *service.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, logger: logger}
}

type sendRequest struct {
	TargetUserID string `json:"targetUserId"`
	Subject      string `json:"subject"`
	Content      string `json:"content"`
}

// HandleSend creates a message to another user.
//
// HTTP: POST /message/send (RequireAuth)
func (h *MessageHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req sendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	msg, err := h.messages.Send(r.Context(), userID, req.TargetUserID, req.Subject, req.Content)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// HandleReceived lists the caller's inbox, newest first.
//
// HTTP: GET /message/received?page=&limit= (RequireAuth)
func (h *MessageHandler) HandleReceived(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	page, limit := pageParams(r)

	msgs, err := h.messages.Received(r.Context(), userID, page, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// HandleSent lists the caller's outbox, newest first.
//
// HTTP: GET /message/sent?page=&limit= (RequireAuth)
func (h *MessageHandler) HandleSent(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	page, limit := pageParams(r)

	msgs, err := h.messages.Sent(r.Context(), userID, page, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// HandleGetByID returns one message — sender or recipient only, everyone
// else gets 403.
//
// HTTP: GET /message/{id} (RequireAuth)
func (h *MessageHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	msg, err := h.messages.GetByID(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// HandleMarkRead marks a message read — recipient only. Re-marking an
// already-read message returns it unchanged.
//
// HTTP: PATCH /message/{id}/read (RequireAuth)
func (h *MessageHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	msg, err := h.messages.MarkRead(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}
