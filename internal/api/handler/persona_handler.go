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

// CreatePersona handles POST /api/v1/personas
func (h *PersonaHandler) CreatePersona(c *gin.Context) {
	var req dto.CreatePersonaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	now := time.Now()
	persona := model.Persona{
		ID:                 uuid.New().String(),
		CreatorID:          auth.Username(c),
		Name:               req.Name,
		Age:                req.Age,
		Role:               req.Role,
		Style:              req.Style,
		DomainKnowledge:    req.DomainKnowledge,
		Quirks:             req.Quirks,
		Bio:                req.Bio,
		Lore:               req.Lore,
		Personality:        req.Personality,
		ConversationStyle:  req.ConversationStyle,
		EmotionalStability: req.EmotionalStability,
		Friendliness:       req.Friendliness,
		Creativity:         req.Creativity,
		Curiosity:          req.Curiosity,
		Formality:          req.Formality,
		Empathy:            req.Empathy,
		Humor:              req.Humor,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := h.storage.CreatePersona(c.Request.Context(), &persona); err != nil {
		h.logger.Error("Failed to create persona", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create persona",
		})
		return
	}

	c.JSON(http.StatusCreated, dto.PersonaFromModel(&persona))
}

// ListPersonas handles GET /api/v1/personas
func (h *PersonaHandler) ListPersonas(c *gin.Context) {
	personas, err := h.storage.ListPersonas(c.Request.Context(), auth.Username(c))
	if err != nil {
		h.logger.Error("Failed to list personas", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list personas",
		})
		return
	}

	c.JSON(http.StatusOK, dto.PersonasFromModels(personas))
}

// GetPersona handles GET /api/v1/personas/:persona_name
// A user has at most one persona of a given name, so names address
// personas within an account.
func (h *PersonaHandler) GetPersona(c *gin.Context) {
	name := c.Param("persona_name")

	persona, err := h.storage.GetPersonaByName(c.Request.Context(), name, auth.Username(c))
	if err != nil {
		if errors.Is(err, domain.ErrPersonaNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Persona not found",
			})
			return
		}
		h.logger.Error("Failed to get persona", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get persona",
		})
		return
	}

	c.JSON(http.StatusOK, dto.PersonaFromModel(persona))
}

// UpdatePersona handles PUT /api/v1/personas/:persona_name
// Only fields present in the request body are changed.
func (h *PersonaHandler) UpdatePersona(c *gin.Context) {
	name := c.Param("persona_name")
	username := auth.Username(c)

	var req dto.UpdatePersonaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	persona, err := h.storage.GetPersonaByName(c.Request.Context(), name, username)
	if err != nil {
		if errors.Is(err, domain.ErrPersonaNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Persona not found",
			})
			return
		}
		h.logger.Error("Failed to get persona", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update persona",
		})
		return
	}

	applyPersonaUpdate(persona, &req)

	updated, err := h.storage.UpdatePersona(c.Request.Context(), persona)
	if err != nil {
		if errors.Is(err, domain.ErrPersonaNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Persona not found",
			})
			return
		}
		h.logger.Error("Failed to update persona", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update persona",
		})
		return
	}

	c.JSON(http.StatusOK, dto.PersonaFromModel(updated))
}

// DeletePersona handles DELETE /api/v1/personas/:persona_id
func (h *PersonaHandler) DeletePersona(c *gin.Context) {
	personaID := c.Param("persona_id")

	if _, err := uuid.Parse(personaID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "persona_id must be a valid UUID",
		})
		return
	}

	err := h.storage.DeletePersona(c.Request.Context(), personaID, auth.Username(c))
	if err != nil {
		if errors.Is(err, domain.ErrPersonaNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Persona not found",
			})
			return
		}
		h.logger.Error("Failed to delete persona", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete persona",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// GeneratePersona handles POST /api/v1/personas/generate
// The generated draft is returned for user review and is not saved.
func (h *PersonaHandler) GeneratePersona(c *gin.Context) {
	var req dto.GeneratePersonaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Sample post is required",
		})
		return
	}

	draft, err := h.llm.GeneratePersona(c.Request.Context(), req.SamplePost)
	if err != nil {
		h.logger.Error("Failed to generate persona", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate persona",
		})
		return
	}

	c.JSON(http.StatusOK, draft)
}

func applyPersonaUpdate(p *model.Persona, req *dto.UpdatePersonaRequest) {
	if req.Age != nil {
		p.Age = *req.Age
	}
	if req.Role != nil {
		p.Role = *req.Role
	}
	if req.Style != nil {
		p.Style = *req.Style
	}
	if req.DomainKnowledge != nil {
		p.DomainKnowledge = req.DomainKnowledge
	}
	if req.Quirks != nil {
		p.Quirks = *req.Quirks
	}
	if req.Bio != nil {
		p.Bio = *req.Bio
	}
	if req.Lore != nil {
		p.Lore = *req.Lore
	}
	if req.Personality != nil {
		p.Personality = *req.Personality
	}
	if req.ConversationStyle != nil {
		p.ConversationStyle = *req.ConversationStyle
	}
	if req.EmotionalStability != nil {
		p.EmotionalStability = *req.EmotionalStability
	}
	if req.Friendliness != nil {
		p.Friendliness = *req.Friendliness
	}
	if req.Creativity != nil {
		p.Creativity = *req.Creativity
	}
	if req.Curiosity != nil {
		p.Curiosity = *req.Curiosity
	}
	if req.Formality != nil {
		p.Formality = *req.Formality
	}
	if req.Empathy != nil {
		p.Empathy = *req.Empathy
	}
	if req.Humor != nil {
		p.Humor = *req.Humor
	}
}
