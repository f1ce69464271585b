package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plumesocial/plume/internal/api/auth"
	"github.com/plumesocial/plume/internal/api/dto"
)

// Post handles POST /api/v1/nostr/post
// Publishes the given content to the configured relays right away, without
// creating a message record or going through the job queue.
func (h *NostrHandler) Post(c *gin.Context) {
	username := auth.Username(c)

	var req dto.NostrPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	if err := h.publisher.Publish(c.Request.Context(), req.Content); err != nil {
		h.logger.Error("Failed to publish to Nostr",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Failed to publish to Nostr",
		})
		return
	}

	h.logger.Info("Published note to Nostr",
		slog.String("username", username),
	)

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Posted to Nostr successfully!",
	})
}
