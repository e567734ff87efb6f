package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/digitaldoctors/dda-assistant/internal/api/middleware"
	"github.com/digitaldoctors/dda-assistant/internal/assistant"
	"github.com/digitaldoctors/dda-assistant/internal/classifier"
	"github.com/digitaldoctors/dda-assistant/internal/db"
	"github.com/digitaldoctors/dda-assistant/internal/fallback"
	"github.com/digitaldoctors/dda-assistant/internal/prompt"
	"github.com/digitaldoctors/dda-assistant/pkg/llm"
)

// BotName is the assistant persona shown to users
const BotName = "Dr. Tega"

// Assistant is the chatbot service the handlers delegate to
type Assistant interface {
	MedicalResponse(ctx context.Context, userID, question string) assistant.Result
	DiagnosisAssistance(ctx context.Context, userID string, req assistant.DiagnosisRequest) assistant.Result
	LabAnalysis(ctx context.Context, userID, labData string) assistant.Result
	Chat(ctx context.Context, userID, message string, history []llm.ChatMessage) assistant.Result
	ExplainCondition(ctx context.Context, userID, condition string) assistant.Result
	HealthTips(ctx context.Context, userID, category string) (assistant.Result, error)
	Status() assistant.Status
}

// HistoryStore reads and erases recorded interactions
type HistoryStore interface {
	GetRecentInteractions(ctx context.Context, userID string, limit int) ([]db.Interaction, error)
	GetInteraction(ctx context.Context, userID, id string) (*db.Interaction, error)
	GetInteractionStats(ctx context.Context, userID string) (map[string]int, error)
	DeleteUserInteractions(ctx context.Context, userID string) (int64, error)
}

// ChatbotHandler serves the Dr. Tega REST endpoints
type ChatbotHandler struct {
	assistant Assistant
	history   HistoryStore
	logger    *zap.Logger
}

// NewChatbotHandler creates a handler. history may be nil when no database
// is configured; the history endpoints then answer 503.
func NewChatbotHandler(a Assistant, history HistoryStore, logger *zap.Logger) *ChatbotHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatbotHandler{assistant: a, history: history, logger: logger}
}

// MedicalQuestionRequest is the body of POST /medical-response
type MedicalQuestionRequest struct {
	Question string `json:"question" binding:"required,max=4000"`
}

// DiagnosisRequest is the body of POST /diagnosis
type DiagnosisRequest struct {
	Symptoms       string             `json:"symptoms" binding:"required,max=4000"`
	Vitals         *classifier.Vitals `json:"vitals"`
	MedicalHistory string             `json:"medicalHistory" binding:"max=4000"`
}

// LabAnalysisRequest is the body of POST /lab-analysis
type LabAnalysisRequest struct {
	LabData string `json:"labData" binding:"required,max=8000"`
}

// ChatRequest is the body of POST /chat. conversation_history is accepted
// for older clients.
type ChatRequest struct {
	Message             string            `json:"message" binding:"required,max=4000"`
	ConversationHistory []llm.ChatMessage `json:"conversationHistory"`
	LegacyHistory       []llm.ChatMessage `json:"conversation_history"`
}

// HealthTipsRequest is the body of POST /health-tips
type HealthTipsRequest struct {
	Category string `json:"category"`
}

// ExplainConditionRequest is the body of POST /explain-condition
type ExplainConditionRequest struct {
	Condition string `json:"condition" binding:"required,max=200"`
}

// AnswerResponse is returned by every answering endpoint
type AnswerResponse struct {
	assistant.Result
	BotName string `json:"botName"`
}

func answer(c *gin.Context, res assistant.Result) {
	c.JSON(http.StatusOK, AnswerResponse{Result: res, BotName: BotName})
}

// bind decodes the body and rejects whitespace-only required text. The
// text itself is left as sent.
func bind(c *gin.Context, dst any, required ...*string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	for _, s := range required {
		if strings.TrimSpace(*s) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Input cannot be empty"})
			return false
		}
	}
	return true
}

// MedicalResponse answers a general health question
// POST /api/chatbot/medical-response
func (h *ChatbotHandler) MedicalResponse(c *gin.Context) {
	var req MedicalQuestionRequest
	if !bind(c, &req, &req.Question) {
		return
	}
	answer(c, h.assistant.MedicalResponse(c.Request.Context(), middleware.GetUserID(c), req.Question))
}

// Diagnosis gives diagnosis support for symptoms and optional vitals
// POST /api/chatbot/diagnosis
func (h *ChatbotHandler) Diagnosis(c *gin.Context) {
	var req DiagnosisRequest
	if !bind(c, &req, &req.Symptoms) {
		return
	}
	answer(c, h.assistant.DiagnosisAssistance(c.Request.Context(), middleware.GetUserID(c), assistant.DiagnosisRequest{
		Symptoms:       req.Symptoms,
		Vitals:         req.Vitals,
		MedicalHistory: req.MedicalHistory,
	}))
}

// LabAnalysis interprets lab results
// POST /api/chatbot/lab-analysis
func (h *ChatbotHandler) LabAnalysis(c *gin.Context) {
	var req LabAnalysisRequest
	if !bind(c, &req, &req.LabData) {
		return
	}
	answer(c, h.assistant.LabAnalysis(c.Request.Context(), middleware.GetUserID(c), req.LabData))
}

// Chat continues a conversation
// POST /api/chatbot/chat
func (h *ChatbotHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if !bind(c, &req, &req.Message) {
		return
	}
	history := req.ConversationHistory
	if len(history) == 0 {
		history = req.LegacyHistory
	}
	answer(c, h.assistant.Chat(c.Request.Context(), middleware.GetUserID(c), req.Message, history))
}

// ExplainCondition explains a condition in plain language
// POST /api/chatbot/explain-condition
func (h *ChatbotHandler) ExplainCondition(c *gin.Context) {
	var req ExplainConditionRequest
	if !bind(c, &req, &req.Condition) {
		return
	}
	res := h.assistant.ExplainCondition(c.Request.Context(), middleware.GetUserID(c), req.Condition)
	c.JSON(http.StatusOK, gin.H{
		"condition":   strings.TrimSpace(req.Condition),
		"explanation": res.Response.Response,
		"confidence":  res.Confidence,
		"source":      res.Source,
		"botName":     BotName,
	})
}

// HealthTips returns tips for a category, "general" by default
// POST /api/chatbot/health-tips
func (h *ChatbotHandler) HealthTips(c *gin.Context) {
	var req HealthTipsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Category == "" {
		req.Category = "general"
	}

	res, err := h.assistant.HealthTips(c.Request.Context(), middleware.GetUserID(c), req.Category)
	if errors.Is(err, assistant.ErrUnknownCategory) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid category. Choose from: " + strings.Join(prompt.TipCategories(), ", "),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tips"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": req.Category,
		"tips":     res.Response.Response,
		"source":   res.Source,
	})
}

// QuickQuestions lists suggested starter questions
// GET /api/chatbot/quick-questions
func (h *ChatbotHandler) QuickQuestions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"quickQuestions": fallback.QuickQuestions()})
}

// Health reports chatbot availability
// GET /api/chatbot/health
func (h *ChatbotHandler) Health(c *gin.Context) {
	status := h.assistant.Status()
	state := "healthy"
	if !status.LLMConfigured || status.BreakerState != "closed" {
		state = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    state,
		"service":   "Health Chatbot",
		"botName":   BotName,
		"available": true,
		"llm":       status,
		"time":      time.Now().Unix(),
	})
}

func (h *ChatbotHandler) requireHistory(c *gin.Context) (string, bool) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "History is not available"})
		return "", false
	}
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}

// GetHistory returns the caller's recent interactions
// GET /api/chatbot/history?limit=20
func (h *ChatbotHandler) GetHistory(c *gin.Context) {
	userID, ok := h.requireHistory(c)
	if !ok {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}

	ctx := c.Request.Context()
	interactions, err := h.history.GetRecentInteractions(ctx, userID, limit)
	if err != nil {
		h.logger.Error("failed to load history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}
	stats, err := h.history.GetInteractionStats(ctx, userID)
	if err != nil {
		h.logger.Warn("failed to load history stats", zap.Error(err))
		stats = map[string]int{}
	}

	c.JSON(http.StatusOK, gin.H{
		"interactions": interactions,
		"count":        len(interactions),
		"stats":        stats,
	})
}

// GetInteraction returns one of the caller's interactions
// GET /api/chatbot/history/:id
func (h *ChatbotHandler) GetInteraction(c *gin.Context) {
	userID, ok := h.requireHistory(c)
	if !ok {
		return
	}

	in, err := h.history.GetInteraction(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Interaction not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to load interaction", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve interaction"})
		return
	}
	c.JSON(http.StatusOK, in)
}

// DeleteHistory erases all of the caller's interactions
// DELETE /api/chatbot/history
func (h *ChatbotHandler) DeleteHistory(c *gin.Context) {
	userID, ok := h.requireHistory(c)
	if !ok {
		return
	}

	n, err := h.history.DeleteUserInteractions(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to delete history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
