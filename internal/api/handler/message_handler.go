package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plumesocial/plume/internal/api/auth"
	"github.com/plumesocial/plume/internal/api/domain"
	"github.com/plumesocial/plume/internal/api/dto"
	"github.com/plumesocial/plume/internal/api/model"
)

// Chat handles POST /api/v1/chat
// Generates a post draft in the persona's voice and stores it as a bot
// message, which can later be scheduled for publication.
func (h *MessageHandler) Chat(c *gin.Context) {
	username := auth.Username(c)

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	persona, err := h.storage.GetPersonaByName(c.Request.Context(), req.PersonaName, username)
	if err != nil {
		if errors.Is(err, domain.ErrPersonaNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Persona not found",
			})
			return
		}
		h.logger.Error("Failed to get persona", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate reply",
		})
		return
	}

	text, err := h.llm.PersonaReply(c.Request.Context(), persona, req.Text)
	if err != nil {
		h.logger.Error("Failed to generate reply",
			slog.String("persona", req.PersonaName),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate reply",
		})
		return
	}

	now := time.Now()
	msg := model.Message{
		ID:             uuid.New().String(),
		Username:       username,
		PersonaName:    req.PersonaName,
		Sender:         domain.SenderBot,
		Text:           text,
		ScheduleStatus: domain.ScheduleStatusUnscheduled,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.storage.CreateMessage(c.Request.Context(), &msg); err != nil {
		h.logger.Error("Failed to store message", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to store message",
		})
		return
	}

	c.JSON(http.StatusOK, dto.MessageFromModel(&msg))
}

// ListMessages handles GET /api/v1/messages?persona_name=...
func (h *MessageHandler) ListMessages(c *gin.Context) {
	var req dto.ListMessagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "persona_name is required",
		})
		return
	}

	messages, err := h.storage.ListMessages(c.Request.Context(), auth.Username(c), req.PersonaName)
	if err != nil {
		h.logger.Error("Failed to list messages", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list messages",
		})
		return
	}

	c.JSON(http.StatusOK, dto.MessagesFromModels(messages))
}
