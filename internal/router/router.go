package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nepallicenseprep/likhit-backend/internal/config"
	"github.com/nepallicenseprep/likhit-backend/internal/handler"
	"github.com/nepallicenseprep/likhit-backend/internal/middleware"
	"github.com/nepallicenseprep/likhit-backend/internal/response"
	"github.com/nepallicenseprep/likhit-backend/internal/service"
)

// catalogMaxAge is the Cache-Control max-age for read-only content.
const catalogMaxAge = 300

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Question *handler.QuestionHandler
	Session  *handler.SessionHandler
	Catalog  *handler.CatalogHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// contactLimiter throttles the contact form per IP; the caller stops it.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	contactLimiter *middleware.RateLimiter,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if !cfg.IsProduction() {
		router.Use(gin.Logger())
	}

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "X-Language", "Accept-Language"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Language", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID and language apply globally so every response includes
	// metadata in the caller's language.
	router.Use(response.RequestIDMiddleware(), response.LanguageMiddleware())

	// Apply brotli middleware globally. WebSocket upgrades pass through.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Public Group (No Auth) ─────────────────────────────────────
	publicAPI := router.Group("/api/v1")
	{
		publicAPI.POST("/auth/client", middleware.NoStore(), handlers.Auth.IssueClientToken)

		catalog := publicAPI.Group("")
		catalog.Use(middleware.CacheControl(catalogMaxAge))
		{
			catalog.GET("/categories", handlers.Question.ListCategories)
			catalog.GET("/practice/:category/:page", handlers.Question.GetPracticePage)
			catalog.GET("/traffic-signs", handlers.Catalog.ListTrafficSigns)
			catalog.GET("/traffic-signs/:id", handlers.Catalog.GetTrafficSign)
			catalog.GET("/ads/:page", handlers.Catalog.GetAdSlots)
			catalog.GET("/stats", handlers.Catalog.GetStats)
		}

		publicAPI.POST("/contact", contactLimiter.Middleware(), handlers.Catalog.SubmitContact)
	}

	// ─── 2. Client Group (Client JWT) ──────────────────────────────────
	clientAPI := router.Group("/api/v1")
	clientAPI.Use(middleware.RequireClientJWT(authService), middleware.NoStore())
	{
		clientAPI.POST("/sessions", handlers.Session.StartSession)
		clientAPI.GET("/sessions/:session_id", handlers.Session.GetSession)
		clientAPI.PUT("/sessions/:session_id/answer", handlers.Session.SelectAnswer)
		clientAPI.POST("/sessions/:session_id/navigate", handlers.Session.Navigate)
		clientAPI.POST("/sessions/:session_id/jump", handlers.Session.Jump)
		clientAPI.POST("/sessions/:session_id/finish", handlers.Session.FinishSession)
		clientAPI.POST("/sessions/:session_id/restart", handlers.Session.RestartSession)
		clientAPI.DELETE("/sessions/:session_id", handlers.Session.DiscardSession)
		clientAPI.GET("/history", handlers.Session.GetHistory)
	}

	// ─── 3. WebSocket Group (token in query) ───────────────────────────
	wsGroup := router.Group("/ws/v1")
	wsGroup.Use(middleware.RequireClientJWT(authService))
	{
		wsGroup.GET("/sessions/:session_id/stream", handlers.WS.SessionStream)
	}

	return router
}
