package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"chat-sidebar/internal/events"
	"chat-sidebar/internal/models"
	"chat-sidebar/internal/repositories"
	"chat-sidebar/internal/sidebar"
	"chat-sidebar/internal/telemetry"
)

const defaultChatTitle = "New chat"

// ChatHandler manages the sidebar chat endpoints.
type ChatHandler struct {
	chatRepo repositories.ChatRepository
	notifier events.Notifier
	audit    *telemetry.AuditEmitter
}

// NewChatHandler builds a ChatHandler. notifier and audit may be nil.
func NewChatHandler(chatRepo repositories.ChatRepository, notifier events.Notifier, audit *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{
		chatRepo: chatRepo,
		notifier: notifier,
		audit:    audit,
	}
}

// ListChats returns the caller's chats under the requested filter tab.
func (h *ChatHandler) ListChats(c *gin.Context) {
	mode, err := models.ParseFilterMode(c.Query("filter"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter"})
		return
	}

	userID := c.GetInt("userID")
	chats, err := h.chatRepo.ListChats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}

	visible := sidebar.VisibleChats(chats, mode)
	resp := gin.H{
		"filter": mode,
		"chats":  visible,
		"counts": sidebar.Counts(chats),
	}
	if len(visible) == 0 {
		resp["empty"] = sidebar.EmptyStateFor(mode)
	}
	c.JSON(http.StatusOK, resp)
}

// CreateChat starts a new chat for the caller.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	var req struct {
		Title    string `json:"title"`
		IsPublic bool   `json:"is_public"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultChatTitle
	}

	userID := c.GetInt("userID")
	chat, err := h.chatRepo.CreateChat(c.Request.Context(), userID, title, req.IsPublic)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create chat"})
		return
	}

	h.notify(c.Request.Context(), userID, models.ChatEvent{Type: models.ChatEventCreated, Chat: &chat, ChatID: chat.ID})
	h.auditChat(c, "chat created", chat.ID)
	c.JSON(http.StatusCreated, chat)
}

// UpdateChat applies a partial update to a chat.
func (h *ChatHandler) UpdateChat(c *gin.Context) {
	var patch models.ChatPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if patch.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	h.applyPatch(c, c.Param("chat_id"), patch, "chat updated")
}

// TogglePin flips the pinned flag of a chat.
func (h *ChatHandler) TogglePin(c *gin.Context) {
	chat, ok := h.loadChat(c)
	if !ok {
		return
	}
	pinned := !chat.Pinned
	h.applyPatch(c, chat.ID, models.ChatPatch{Pinned: &pinned}, "chat pin toggled")
}

// ToggleArchive flips the archived flag of a chat.
func (h *ChatHandler) ToggleArchive(c *gin.Context) {
	chat, ok := h.loadChat(c)
	if !ok {
		return
	}
	archived := !chat.Archived
	h.applyPatch(c, chat.ID, models.ChatPatch{Archived: &archived}, "chat archive toggled")
}

// TouchChat records activity on a chat, moving it up its list.
func (h *ChatHandler) TouchChat(c *gin.Context) {
	userID := c.GetInt("userID")
	chatID := c.Param("chat_id")

	if err := h.chatRepo.TouchChat(c.Request.Context(), userID, chatID, time.Now().UTC()); err != nil {
		h.repoError(c, err, "could not update chat")
		return
	}
	chat, err := h.chatRepo.GetChat(c.Request.Context(), userID, chatID)
	if err != nil {
		h.repoError(c, err, "could not load chat")
		return
	}

	h.notify(c.Request.Context(), userID, models.ChatEvent{Type: models.ChatEventUpdated, Chat: &chat, ChatID: chat.ID})
	c.JSON(http.StatusOK, chat)
}

// DeleteChatForMe hides the chat for the requester.
func (h *ChatHandler) DeleteChatForMe(c *gin.Context) {
	userID := c.GetInt("userID")
	chatID := c.Param("chat_id")

	if err := h.chatRepo.HideChat(c.Request.Context(), userID, chatID); err != nil {
		h.repoError(c, err, "could not hide chat")
		return
	}

	h.notify(c.Request.Context(), userID, models.ChatEvent{Type: models.ChatEventDeleted, ChatID: chatID})
	h.auditChat(c, "chat deleted", chatID)
	c.Status(http.StatusNoContent)
}

// DualViewPath returns the route showing two chats side by side.
func (h *ChatHandler) DualViewPath(c *gin.Context) {
	primaryID := c.Param("chat_id")
	secondaryID := c.Param("secondary_id")

	path, err := sidebar.DualViewPath(primaryID, secondaryID)
	if err != nil {
		var dup *sidebar.DuplicateChatError
		if errors.As(err, &dup) {
			c.JSON(http.StatusConflict, gin.H{"error": dup.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	for _, id := range []string{primaryID, secondaryID} {
		if _, err := h.chatRepo.GetChat(c.Request.Context(), userID, id); err != nil {
			h.repoError(c, err, "could not load chat")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"path": path})
}

func (h *ChatHandler) loadChat(c *gin.Context) (models.ChatRecord, bool) {
	chat, err := h.chatRepo.GetChat(c.Request.Context(), c.GetInt("userID"), c.Param("chat_id"))
	if err != nil {
		h.repoError(c, err, "could not load chat")
		return models.ChatRecord{}, false
	}
	return chat, true
}

func (h *ChatHandler) applyPatch(c *gin.Context, chatID string, patch models.ChatPatch, auditText string) {
	userID := c.GetInt("userID")
	chat, err := h.chatRepo.UpdateChat(c.Request.Context(), userID, chatID, patch)
	if err != nil {
		h.repoError(c, err, "could not update chat")
		return
	}

	h.notify(c.Request.Context(), userID, models.ChatEvent{Type: models.ChatEventUpdated, Chat: &chat, ChatID: chat.ID})
	h.auditChat(c, auditText, chat.ID)
	c.JSON(http.StatusOK, chat)
}

func (h *ChatHandler) repoError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, repositories.ErrChatNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
	case errors.Is(err, repositories.ErrEmptyPatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}

func (h *ChatHandler) notify(ctx context.Context, userID int, event models.ChatEvent) {
	if h.notifier != nil {
		h.notifier.Notify(ctx, userID, event)
	}
}

func (h *ChatHandler) auditChat(c *gin.Context, text, chatID string) {
	h.audit.EmitChat(c.Request.Context(), "INFO", text, requestIDFromContext(c), userIDFromContext(c), chatID)
}
