package dto

import (
	"time"

	"github.com/plumesocial/plume/internal/api/model"
)

// PersonaDTO is the wire shape of a persona
type PersonaDTO struct {
	ID                 string   `json:"id"`
	CreatorID          string   `json:"creator_id"`
	Name               string   `json:"name"`
	Age                int      `json:"age"`
	Role               string   `json:"role"`
	Style              string   `json:"style"`
	DomainKnowledge    []string `json:"domain_knowledge"`
	Quirks             string   `json:"quirks"`
	Bio                string   `json:"bio"`
	Lore               string   `json:"lore"`
	Personality        string   `json:"personality"`
	ConversationStyle  string   `json:"conversation_style"`
	EmotionalStability float64  `json:"emotional_stability"`
	Friendliness       float64  `json:"friendliness"`
	Creativity         float64  `json:"creativity"`
	Curiosity          float64  `json:"curiosity"`
	Formality          float64  `json:"formality"`
	Empathy            float64  `json:"empathy"`
	Humor              float64  `json:"humor"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}

// PersonaFromModel converts a persona row to its wire shape
func PersonaFromModel(p *model.Persona) PersonaDTO {
	return PersonaDTO{
		ID:                 p.ID,
		CreatorID:          p.CreatorID,
		Name:               p.Name,
		Age:                p.Age,
		Role:               p.Role,
		Style:              p.Style,
		DomainKnowledge:    p.DomainKnowledge,
		Quirks:             p.Quirks,
		Bio:                p.Bio,
		Lore:               p.Lore,
		Personality:        p.Personality,
		ConversationStyle:  p.ConversationStyle,
		EmotionalStability: p.EmotionalStability,
		Friendliness:       p.Friendliness,
		Creativity:         p.Creativity,
		Curiosity:          p.Curiosity,
		Formality:          p.Formality,
		Empathy:            p.Empathy,
		Humor:              p.Humor,
		CreatedAt:          p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          p.UpdatedAt.Format(time.RFC3339),
	}
}

// PersonasFromModels converts a slice of persona rows
func PersonasFromModels(personas []model.Persona) []PersonaDTO {
	out := make([]PersonaDTO, len(personas))
	for i := range personas {
		out[i] = PersonaFromModel(&personas[i])
	}
	return out
}

// CreatePersonaRequest carries every user-definable persona field.
// Trait values are clamped to [0,1] by binding validation.
type CreatePersonaRequest struct {
	Name               string   `json:"name" binding:"required,min=1,max=100"`
	Age                int      `json:"age" binding:"required,gt=0"`
	Role               string   `json:"role" binding:"required,max=200"`
	Style              string   `json:"style" binding:"required,max=200"`
	DomainKnowledge    []string `json:"domain_knowledge"`
	Quirks             string   `json:"quirks" binding:"max=500"`
	Bio                string   `json:"bio" binding:"max=2000"`
	Lore               string   `json:"lore" binding:"max=2000"`
	Personality        string   `json:"personality" binding:"max=500"`
	ConversationStyle  string   `json:"conversation_style" binding:"max=500"`
	EmotionalStability float64  `json:"emotional_stability" binding:"min=0,max=1"`
	Friendliness       float64  `json:"friendliness" binding:"min=0,max=1"`
	Creativity         float64  `json:"creativity" binding:"min=0,max=1"`
	Curiosity          float64  `json:"curiosity" binding:"min=0,max=1"`
	Formality          float64  `json:"formality" binding:"min=0,max=1"`
	Empathy            float64  `json:"empathy" binding:"min=0,max=1"`
	Humor              float64  `json:"humor" binding:"min=0,max=1"`
}

// UpdatePersonaRequest allows PATCH-style partial updates; every field is
// optional and only set fields are applied.
type UpdatePersonaRequest struct {
	Age                *int     `json:"age" binding:"omitempty,gt=0"`
	Role               *string  `json:"role" binding:"omitempty,max=200"`
	Style              *string  `json:"style" binding:"omitempty,max=200"`
	DomainKnowledge    []string `json:"domain_knowledge"`
	Quirks             *string  `json:"quirks" binding:"omitempty,max=500"`
	Bio                *string  `json:"bio" binding:"omitempty,max=2000"`
	Lore               *string  `json:"lore" binding:"omitempty,max=2000"`
	Personality        *string  `json:"personality" binding:"omitempty,max=500"`
	ConversationStyle  *string  `json:"conversation_style" binding:"omitempty,max=500"`
	EmotionalStability *float64 `json:"emotional_stability" binding:"omitempty,min=0,max=1"`
	Friendliness       *float64 `json:"friendliness" binding:"omitempty,min=0,max=1"`
	Creativity         *float64 `json:"creativity" binding:"omitempty,min=0,max=1"`
	Curiosity          *float64 `json:"curiosity" binding:"omitempty,min=0,max=1"`
	Formality          *float64 `json:"formality" binding:"omitempty,min=0,max=1"`
	Empathy            *float64 `json:"empathy" binding:"omitempty,min=0,max=1"`
	Humor              *float64 `json:"humor" binding:"omitempty,min=0,max=1"`
}

// GeneratePersonaRequest asks the text-generation backend to draft a
// persona from a sample post. The draft is returned for review, not saved.
type GeneratePersonaRequest struct {
	SamplePost string `json:"sample_post" binding:"required"`
}

// GeneratedPersona is a persona draft produced by the text-generation
// backend, prior to any persistence.
type GeneratedPersona struct {
	Name               string   `json:"name"`
	Age                int      `json:"age"`
	Role               string   `json:"role"`
	Style              string   `json:"style"`
	DomainKnowledge    []string `json:"domain_knowledge"`
	Quirks             string   `json:"quirks"`
	Bio                string   `json:"bio"`
	Lore               string   `json:"lore"`
	Personality        string   `json:"personality"`
	ConversationStyle  string   `json:"conversation_style"`
	EmotionalStability float64  `json:"emotional_stability"`
	Friendliness       float64  `json:"friendliness"`
	Creativity         float64  `json:"creativity"`
	Curiosity          float64  `json:"curiosity"`
	Formality          float64  `json:"formality"`
	Empathy            float64  `json:"empathy"`
	Humor              float64  `json:"humor"`
}
