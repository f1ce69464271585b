package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plumesocial/plume/internal/api/auth"
	"github.com/plumesocial/plume/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		dbStatus := "up"
		if deps.DB != nil {
			if err := deps.DB.HealthCheck(c.Request.Context()); err != nil {
				status = http.StatusServiceUnavailable
				dbStatus = "down"
			}
		}

		brokerStatus := "up"
		if deps.Broker != nil && !deps.Broker.IsConnected() {
			status = http.StatusServiceUnavailable
			brokerStatus = "down"
		}

		c.JSON(status, gin.H{
			"service":  "plume-api-service",
			"database": dbStatus,
			"broker":   brokerStatus,
		})
	})

	// Initialize handlers
	authHandler := handler.NewAuthHandler(deps)
	personaHandler := handler.NewPersonaHandler(deps)
	messageHandler := handler.NewMessageHandler(deps)
	scheduleHandler := handler.NewScheduleHandler(deps)
	nostrHandler := handler.NewNostrHandler(deps)
	wsHandler := handler.NewWSHandler(deps)

	// Live status updates for connected clients
	r.GET("/ws", wsHandler.Serve)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Public auth endpoints
		v1.POST("/auth/register", authHandler.Register)
		v1.POST("/auth/token", authHandler.Login)

		// Everything else requires a bearer token
		protected := v1.Group("")
		protected.Use(auth.Middleware(deps.Tokens, deps.Logger))
		{
			protected.GET("/users/me", authHandler.Me)

			personas := protected.Group("/personas")
			{
				personas.POST("", personaHandler.CreatePersona)
				personas.GET("", personaHandler.ListPersonas)
				personas.POST("/generate", personaHandler.GeneratePersona)
				personas.GET("/:persona_name", personaHandler.GetPersona)
				personas.PUT("/:persona_name", personaHandler.UpdatePersona)
				personas.DELETE("/:persona_id", personaHandler.DeletePersona)
			}

			// Immediate publish, no message record involved
			protected.POST("/nostr/post", nostrHandler.Post)

			protected.POST("/chat", messageHandler.Chat)
			protected.GET("/messages", messageHandler.ListMessages)

			// Schedule a message for publication / cancel a pending one
			protected.POST("/schedule", scheduleHandler.Schedule)
			protected.DELETE("/schedule/:task_id", scheduleHandler.Unschedule)
		}
	}

	return r
}
