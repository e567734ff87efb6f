package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/digitaldoctors/dda-assistant/internal/api/middleware"
	"github.com/digitaldoctors/dda-assistant/internal/metrics"
)

// RouterConfig carries everything NewRouter wires together
type RouterConfig struct {
	Chatbot   *ChatbotHandler
	WebSocket gin.HandlerFunc

	JWTSecret      string
	AllowedOrigins []string
	IPLimiter      *middleware.RateLimiter
	UserLimiter    *middleware.RateLimiter

	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// NewRouter builds the gin engine with all routes registered
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(cfg.Logger, cfg.Metrics))
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.SecurityHeaders())
	if cfg.IPLimiter != nil {
		router.Use(middleware.PerIP(cfg.IPLimiter, cfg.Metrics))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	h := cfg.Chatbot
	chatbot := router.Group("/api/chatbot")
	chatbot.GET("/health", h.Health)
	chatbot.GET("/quick-questions", h.QuickQuestions)

	protected := chatbot.Group("")
	protected.Use(middleware.JWTAuth(cfg.JWTSecret))
	if cfg.UserLimiter != nil {
		protected.Use(middleware.PerUser(cfg.UserLimiter, cfg.Metrics))
	}
	protected.Use(middleware.NoStore())
	{
		protected.POST("/medical-response", h.MedicalResponse)
		protected.POST("/diagnosis", h.Diagnosis)
		protected.POST("/lab-analysis", h.LabAnalysis)
		protected.POST("/chat", h.Chat)
		protected.POST("/health-tips", h.HealthTips)
		protected.POST("/explain-condition", h.ExplainCondition)

		protected.GET("/history", h.GetHistory)
		protected.GET("/history/:id", h.GetInteraction)
		protected.DELETE("/history", h.DeleteHistory)
	}

	if cfg.WebSocket != nil {
		router.GET("/ws/chatbot", cfg.WebSocket)
	}

	return router
}
