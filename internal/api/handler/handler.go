package handler

import (
	"log/slog"

	"github.com/plumesocial/plume/internal/api/auth"
	"github.com/plumesocial/plume/internal/api/scheduler"
	"github.com/plumesocial/plume/internal/api/storage"
	"github.com/plumesocial/plume/internal/api/ws"
	"github.com/plumesocial/plume/internal/llm"
	"github.com/plumesocial/plume/shared/nostr"
	"github.com/plumesocial/plume/shared/postgresql"
	"github.com/plumesocial/plume/shared/rabbitmq"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger    *slog.Logger
	Storage   *storage.Storage
	Scheduler *scheduler.Scheduler
	LLM       *llm.Client
	Hub       *ws.Hub
	Tokens    *auth.TokenManager
	Publisher nostr.Publisher
	DB        *postgresql.Client
	Broker    *rabbitmq.Client
}

// AuthHandler handles registration and login
type AuthHandler struct {
	logger  *slog.Logger
	storage *storage.Storage
	tokens  *auth.TokenManager
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(deps *Dependencies) *AuthHandler {
	return &AuthHandler{
		logger:  deps.Logger,
		storage: deps.Storage,
		tokens:  deps.Tokens,
	}
}

// PersonaHandler handles persona CRUD and generation
type PersonaHandler struct {
	logger  *slog.Logger
	storage *storage.Storage
	llm     *llm.Client
}

// NewPersonaHandler creates a new PersonaHandler instance
func NewPersonaHandler(deps *Dependencies) *PersonaHandler {
	return &PersonaHandler{
		logger:  deps.Logger,
		storage: deps.Storage,
		llm:     deps.LLM,
	}
}

// MessageHandler handles chat generation and message listing
type MessageHandler struct {
	logger  *slog.Logger
	storage *storage.Storage
	llm     *llm.Client
}

// NewMessageHandler creates a new MessageHandler instance
func NewMessageHandler(deps *Dependencies) *MessageHandler {
	return &MessageHandler{
		logger:  deps.Logger,
		storage: deps.Storage,
		llm:     deps.LLM,
	}
}

// ScheduleHandler handles the schedule/unschedule boundary
type ScheduleHandler struct {
	logger    *slog.Logger
	scheduler *scheduler.Scheduler
}

// NewScheduleHandler creates a new ScheduleHandler instance
func NewScheduleHandler(deps *Dependencies) *ScheduleHandler {
	return &ScheduleHandler{
		logger:    deps.Logger,
		scheduler: deps.Scheduler,
	}
}

// NostrHandler publishes notes immediately, bypassing the scheduler
type NostrHandler struct {
	logger    *slog.Logger
	publisher nostr.Publisher
}

// NewNostrHandler creates a new NostrHandler instance
func NewNostrHandler(deps *Dependencies) *NostrHandler {
	return &NostrHandler{
		logger:    deps.Logger,
		publisher: deps.Publisher,
	}
}

// WSHandler upgrades client connections and registers them with the hub
type WSHandler struct {
	logger *slog.Logger
	hub    *ws.Hub
}

// NewWSHandler creates a new WSHandler instance
func NewWSHandler(deps *Dependencies) *WSHandler {
	return &WSHandler{
		logger: deps.Logger,
		hub:    deps.Hub,
	}
}
