package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"course-chat/projection"
	"course-chat/services"
)

type MessageHandler struct {
	messages services.IMessageService
}

func NewMessageHandler(messages services.IMessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// RegisterRoutes wires the message operations 1:1. The threads route must
// come before the peer parameter route. The send and conversation aliases
// are kept for clients still calling the old paths.
func (h *MessageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/messages/threads", h.handleThreads)
	r.Get("/messages/conversation/{peerID}", h.handleConversation)
	r.Get("/messages/{peerID}", h.handleConversation)
	r.Post("/messages", h.handleSend)
	r.Post("/messages/send", h.handleSend)
}

type sendRequest struct {
	To         string `json:"to"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

// receiver accepts either field name; deployed clients use both.
func (p sendRequest) receiver() string {
	if p.To != "" {
		return p.To
	}
	return p.ReceiverID
}

func (h *MessageHandler) handleSend(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing identity")
		return
	}
	var payload sendRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dto, err := h.messages.Send(r.Context(), caller, payload.receiver(), payload.Content)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dto)
}

func (h *MessageHandler) handleThreads(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	threads, err := h.messages.ListThreads(r.Context(), caller)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if threads == nil {
		threads = []projection.ThreadDTO{}
	}
	respondJSON(w, http.StatusOK, threads)
}

func (h *MessageHandler) handleConversation(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing identity")
		return
	}
	peer := chi.URLParam(r, "peerID")

	var cursor *string
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		cursor = &raw
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	page, err := h.messages.GetConversation(r.Context(), caller, peer, cursor, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}
