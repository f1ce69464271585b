package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plumesocial/plume/internal/api/auth"
	"github.com/plumesocial/plume/internal/api/domain"
	"github.com/plumesocial/plume/internal/api/dto"
)

// Schedule handles POST /api/v1/schedule
// Enqueues a delivery job for the message at start_date and returns the
// message in scheduled state.
func (h *ScheduleHandler) Schedule(c *gin.Context) {
	username := auth.Username(c)

	var req dto.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	if _, err := uuid.Parse(req.MessageID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "message_id must be a valid UUID",
		})
		return
	}

	msg, err := h.scheduler.Schedule(c.Request.Context(), username, req.MessageID, req.StartDate)
	if err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Message not found",
			})
			return
		}
		h.logger.Error("Failed to schedule message",
			slog.String("message_id", req.MessageID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to schedule message",
		})
		return
	}

	c.JSON(http.StatusOK, dto.MessageFromModel(msg))
}

// Unschedule handles DELETE /api/v1/schedule/:task_id
// Cancels the pending delivery job and returns the message in unscheduled
// state.
func (h *ScheduleHandler) Unschedule(c *gin.Context) {
	taskID := c.Param("task_id")
	username := auth.Username(c)

	msg, err := h.scheduler.Unschedule(c.Request.Context(), username, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Scheduled task not found",
			})
			return
		}
		h.logger.Error("Failed to unschedule message",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to unschedule message",
		})
		return
	}

	c.JSON(http.StatusOK, dto.MessageFromModel(msg))
}
