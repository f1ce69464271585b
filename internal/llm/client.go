package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/plumesocial/plume/internal/api/dto"
	"github.com/plumesocial/plume/internal/api/model"
)

// Config holds the text-generation endpoint settings
type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	RequestTimeout time.Duration
}

// Client talks to an OpenAI-compatible chat completion endpoint
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a new text-generation client
func New(config *Config, logger *slog.Logger) *Client {
	cfg := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cfg.BaseURL = config.BaseURL
	}

	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second // default
	}

	return &Client{
		api:     openai.NewClientWithConfig(cfg),
		model:   config.Model,
		timeout: timeout,
		logger:  logger,
	}
}

// PersonaReply generates a reply to userText in the persona's voice
func (c *Client) PersonaReply(ctx context.Context, persona *model.Persona, userText string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: personaSystemPrompt(persona),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userText,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return stripReasoning(resp.Choices[0].Message.Content), nil
}

// GeneratePersona drafts a persona from a sample post. The model is asked
// for a JSON object matching the persona fields; the draft is returned for
// user review, not persisted.
func (c *Client) GeneratePersona(ctx context.Context, samplePost string) (*dto.GeneratedPersona, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: generatePersonaPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: samplePost,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("persona generation failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("persona generation returned no choices")
	}

	content := stripReasoning(resp.Choices[0].Message.Content)

	var persona dto.GeneratedPersona
	if err := json.Unmarshal([]byte(content), &persona); err != nil {
		c.logger.Error("Failed to parse generated persona JSON",
			slog.String("content", content),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("failed to parse generated persona: %w", err)
	}

	return &persona, nil
}

// stripReasoning drops everything up to and including the last </think>
// tag. Reasoning models emit their deliberation before the reply; only the
// part after the final tag is the answer.
func stripReasoning(text string) string {
	const closeTag = "</think>"
	if idx := strings.LastIndex(text, closeTag); idx >= 0 {
		text = text[idx+len(closeTag):]
	}
	return strings.TrimSpace(text)
}

func personaSystemPrompt(p *model.Persona) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, a %d-year-old %s.\n", p.Name, p.Age, p.Role)
	fmt.Fprintf(&b, "Writing style: %s.\n", p.Style)

	if len(p.DomainKnowledge) > 0 {
		fmt.Fprintf(&b, "You know about: %s.\n", strings.Join(p.DomainKnowledge, ", "))
	}
	if p.Bio != "" {
		fmt.Fprintf(&b, "Bio: %s\n", p.Bio)
	}
	if p.Lore != "" {
		fmt.Fprintf(&b, "Backstory: %s\n", p.Lore)
	}
	if p.Personality != "" {
		fmt.Fprintf(&b, "Personality: %s\n", p.Personality)
	}
	if p.ConversationStyle != "" {
		fmt.Fprintf(&b, "Conversation style: %s\n", p.ConversationStyle)
	}
	if p.Quirks != "" {
		fmt.Fprintf(&b, "Quirks: %s\n", p.Quirks)
	}

	fmt.Fprintf(&b,
		"Trait levels from 0 to 1: emotional stability %.1f, friendliness %.1f, creativity %.1f, curiosity %.1f, formality %.1f, empathy %.1f, humor %.1f.\n",
		p.EmotionalStability, p.Friendliness, p.Creativity, p.Curiosity, p.Formality, p.Empathy, p.Humor,
	)
	b.WriteString("Stay in character. Reply with the post text only, no preamble.")

	return b.String()
}

const generatePersonaPrompt = `You design social media personas. Given a sample post, infer the author's persona and respond with a single JSON object with these keys: name (string), age (positive integer), role (string), style (string), domain_knowledge (array of strings), quirks (string), bio (string), lore (string), personality (string), conversation_style (string), and the numeric traits emotional_stability, friendliness, creativity, curiosity, formality, empathy, humor, each between 0.0 and 1.0. Respond with JSON only.`
