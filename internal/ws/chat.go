package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/digitaldoctors/dda-assistant/internal/api/middleware"
	"github.com/digitaldoctors/dda-assistant/internal/assistant"
	"github.com/digitaldoctors/dda-assistant/internal/classifier"
	"github.com/digitaldoctors/dda-assistant/internal/metrics"
	"github.com/digitaldoctors/dda-assistant/internal/privacy"
	"github.com/digitaldoctors/dda-assistant/pkg/llm"
)

const (
	maxMessageSize = 64 * 1024
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
)

// Message types
const (
	TypeMedical   = "medical"
	TypeDiagnosis = "diagnosis"
	TypeLab       = "lab"
	TypeChat      = "chat"

	TypeResponse = "response"
	TypeError    = "error"
	TypeDone     = "done"
)

// Assistant is the subset of the chatbot service the socket needs
type Assistant interface {
	MedicalResponse(ctx context.Context, userID, question string) assistant.Result
	DiagnosisAssistance(ctx context.Context, userID string, req assistant.DiagnosisRequest) assistant.Result
	LabAnalysis(ctx context.Context, userID, labData string) assistant.Result
	Chat(ctx context.Context, userID, message string, history []llm.ChatMessage) assistant.Result
}

// ChatHandler handles WebSocket chat connections
type ChatHandler struct {
	assistant      Assistant
	jwtSecret      string
	messagesPerMin int
	upgrader       websocket.Upgrader
	logger         *zap.Logger
	metrics        *metrics.Metrics
}

// NewChatHandler creates a new chat handler. allowedOrigins containing "*"
// accepts any origin. m may be nil.
func NewChatHandler(a Assistant, jwtSecret string, messagesPerMin int, allowedOrigins []string, logger *zap.Logger, m *metrics.Metrics) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{
		assistant:      a,
		jwtSecret:      jwtSecret,
		messagesPerMin: messagesPerMin,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
		logger:  logger,
		metrics: m,
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// IncomingMessage represents a message from the client
type IncomingMessage struct {
	ID      string             `json:"id,omitempty"`
	Type    string             `json:"type"`
	Content string             `json:"content"`
	Vitals  *classifier.Vitals `json:"vitals,omitempty"`
	History []llm.ChatMessage  `json:"history,omitempty"`

	// MedicalHistory is only read for diagnosis messages
	MedicalHistory string `json:"medicalHistory,omitempty"`
}

// OutgoingMessage represents a message to the client
type OutgoingMessage struct {
	ID     string               `json:"id,omitempty"`
	Type   string               `json:"type"`
	Data   *classifier.Response `json:"data,omitempty"`
	Source assistant.Source     `json:"source,omitempty"`
	Error  string               `json:"error,omitempty"`
}

// Responder writes replies for one connection
type Responder interface {
	SendResponse(id string, res assistant.Result) error
	SendError(id, message string) error
	SendDone(id string) error
}

// HandleChat upgrades GET /ws/chatbot and serves messages until the client leaves
func (h *ChatHandler) HandleChat(c *gin.Context) {
	var userID string
	if h.jwtSecret != "" {
		claims, err := middleware.ParseToken(middleware.TokenFromRequest(c.Request), h.jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		userID = claims.UserID
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}

	h.logger.Info("websocket connected", zap.String("user", privacy.HashUserID(userID)))
	h.serve(c.Request.Context(), conn, userID)
	h.logger.Info("websocket closed", zap.String("user", privacy.HashUserID(userID)))
}

func (h *ChatHandler) serve(ctx context.Context, conn *websocket.Conn, userID string) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := &connResponder{conn: conn}
	limiter := middleware.NewWebSocketLimiter(h.messagesPerMin)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go out.keepAlive(ctx)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}

		var msg IncomingMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			if h.reject(out, "", "Invalid message format") != nil {
				return
			}
			continue
		}

		if !limiter.Allow() {
			if h.metrics != nil {
				h.metrics.RateLimited.WithLabelValues("websocket").Inc()
			}
			if h.reject(out, msg.ID, "Rate limit exceeded. Please slow down.") != nil {
				return
			}
			continue
		}

		if err := h.processMessage(ctx, out, userID, msg); err != nil {
			h.logger.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}

// reject sends an error followed by done, so every message ends with done
func (h *ChatHandler) reject(out Responder, id, reason string) error {
	if err := out.SendError(id, reason); err != nil {
		return err
	}
	return out.SendDone(id)
}

// processMessage answers one message. It only returns write errors.
func (h *ChatHandler) processMessage(ctx context.Context, out Responder, userID string, msg IncomingMessage) error {
	content := msg.Content
	if strings.TrimSpace(content) == "" {
		return h.reject(out, msg.ID, "Message content cannot be empty")
	}

	var res assistant.Result
	switch msg.Type {
	case TypeMedical, "":
		res = h.assistant.MedicalResponse(ctx, userID, content)
	case TypeDiagnosis:
		res = h.assistant.DiagnosisAssistance(ctx, userID, assistant.DiagnosisRequest{
			Symptoms:       content,
			Vitals:         msg.Vitals,
			MedicalHistory: msg.MedicalHistory,
		})
	case TypeLab:
		res = h.assistant.LabAnalysis(ctx, userID, content)
	case TypeChat:
		res = h.assistant.Chat(ctx, userID, content, msg.History)
	default:
		return h.reject(out, msg.ID, "Unknown message type: "+msg.Type)
	}

	if err := out.SendResponse(msg.ID, res); err != nil {
		return err
	}
	return out.SendDone(msg.ID)
}
