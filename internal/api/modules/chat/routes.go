package chat

import (
	"log"

	"github.com/blackai-app/backend/internal/ai"
	"github.com/blackai-app/backend/internal/stores/session"
	"github.com/blackai-app/backend/pkg/utils"
	"github.com/gin-gonic/gin"
)

var service *Service

// Init wires the chat module: completion client from explicit configuration,
// prompt overrides from optional files, and the transcript store.
func Init(cfg *utils.Config, sessions session.Store) {
	apiKey := cfg.Get("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("[CHAT]: OPENAI_API_KEY not set in environment")
	}

	client := ai.NewClient(ai.Config{
		APIKey:   apiKey,
		BaseURL:  cfg.GetWithDefault("AI_BASE_URL", "https://openrouter.ai/api/v1"),
		Model:    cfg.GetWithDefault("AI_MODEL", "google/gemini-2.0-flash-exp"),
		Referrer: cfg.GetWithDefault("AI_REFERRER", "https://blackai.app"),
		Title:    cfg.GetWithDefault("AI_TITLE", "BlackAI"),
	})

	systemTemplate := utils.LoadPromptWithFallback(cfg.Get("SYSTEM_PROMPT_FILE"), defaultSystemTemplate)
	titlePrompt := utils.LoadPromptWithFallback(cfg.Get("TITLE_PROMPT_FILE"), defaultTitlePrompt)

	service = NewService(sessions, client, systemTemplate, titlePrompt)
}

// GetService returns the turn orchestrator
func GetService() *Service {
	if service == nil {
		log.Fatal("[CHAT]: Service is not initialized")
	}
	return service
}

// RegisterRoutes registers the chat module under the base group. All chat
// routes require an authenticated caller.
func RegisterRoutes(g *gin.RouterGroup, protect gin.HandlerFunc) {
	group := g.Group("/chat")
	group.Use(protect)

	group.POST("/sessions", CreateSession)                  // Start a new session
	group.GET("/sessions", GetSessions)                     // List the caller's sessions
	group.GET("/sessions/:id", GetSession)                  // Get a session with its transcript
	group.DELETE("/sessions/:id", DeleteSession)            // Delete a session
	group.POST("/sessions/:id/messages", PostTurn)          // Submit a turn, wait for the reply
	group.POST("/sessions/:id/messages/stream", StreamTurn) // Submit a turn, stream the reply
	group.POST("/sessions/:id/title", GenerateTitle)        // Derive and persist a title
}
