package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/digitaldoctors/dda-assistant/internal/cache"
	"github.com/digitaldoctors/dda-assistant/internal/circuitbreaker"
	"github.com/digitaldoctors/dda-assistant/internal/classifier"
	"github.com/digitaldoctors/dda-assistant/internal/db"
	"github.com/digitaldoctors/dda-assistant/internal/fallback"
	"github.com/digitaldoctors/dda-assistant/internal/memory"
	"github.com/digitaldoctors/dda-assistant/internal/metrics"
	"github.com/digitaldoctors/dda-assistant/internal/privacy"
	"github.com/digitaldoctors/dda-assistant/internal/prompt"
	"github.com/digitaldoctors/dda-assistant/pkg/llm"
)

var (
	ErrLLMUnavailable  = errors.New("no llm client configured")
	ErrUnknownCategory = errors.New("unknown health tip category")
)

// Source says where an answer came from
type Source string

const (
	SourceQuick Source = "quick"
	SourceCache Source = "cache"
	SourceLLM   Source = "llm"
	SourceRules Source = "rules"
)

// Operation names the assistant entry points, used in metrics and storage
type Operation string

const (
	OpMedical   Operation = "medical"
	OpDiagnosis Operation = "diagnosis"
	OpLab       Operation = "lab"
	OpChat      Operation = "chat"
	OpExplain   Operation = "explain"
	OpTips      Operation = "tips"
)

const (
	medicalLLMConfidence   = 0.9
	diagnosisLLMConfidence = 0.85
	labLLMConfidence       = 0.88
	explainLLMConfidence   = 0.9
	tipsLLMConfidence      = 0.9
	storeTimeout           = 3 * time.Second
)

var diagnosisLLMActions = []string{
	"Schedule follow-up appointment",
	"Monitor vital signs",
	"Maintain medication compliance",
}

// Result is an answer plus where it came from
type Result struct {
	classifier.Response
	Source   Source `json:"source"`
	Category string `json:"category,omitempty"`
}

// DiagnosisRequest carries the inputs of a diagnosis-support query
type DiagnosisRequest struct {
	Symptoms       string
	Vitals         *classifier.Vitals
	MedicalHistory string
}

// Store records answered requests
type Store interface {
	SaveInteraction(ctx context.Context, in *db.Interaction) error
}

// Status summarises dependencies for health checks
type Status struct {
	LLMConfigured bool   `json:"llmConfigured"`
	BreakerState  string `json:"breakerState"`
	StoreEnabled  bool   `json:"storeEnabled"`
}

// Service answers Dr. Tega questions. It prefers the LLM and falls back to
// the rule-based classifier whenever the LLM is missing, failing or slow.
type Service struct {
	rules   *classifier.Classifier
	client  llm.Client
	prompts *prompt.Builder
	cache   cache.Cache
	store   Store
	memory  *memory.MemoryManager
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
	metrics *metrics.Metrics
	timeout time.Duration
	now     func() time.Time
}

// Option configures a Service
type Option func(*Service)

func WithCache(c cache.Cache) Option { return func(s *Service) { s.cache = c } }

func WithStore(st Store) Option { return func(s *Service) { s.store = st } }

// WithMemory keeps recent chat turns per user for clients that send no history
func WithMemory(m *memory.MemoryManager) Option { return func(s *Service) { s.memory = m } }

func WithBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(s *Service) { s.breaker = cb }
}

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

func WithTimeout(d time.Duration) Option { return func(s *Service) { s.timeout = d } }

// WithModel overrides the model name sent with each request
func WithModel(model string) Option {
	return func(s *Service) { s.prompts = prompt.NewBuilder(model) }
}

// New creates the service. client may be nil, in which case every answer
// comes from the rules.
func New(rules *classifier.Classifier, client llm.Client, opts ...Option) *Service {
	s := &Service{
		rules:   rules,
		client:  client,
		prompts: prompt.NewBuilder(""),
		cache:   cache.NewMemory(cache.DefaultTTL, cache.DefaultMaxSize),
		logger:  zap.NewNop(),
		timeout: 30 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.breaker == nil {
		s.breaker = circuitbreaker.NewCircuitBreaker(5, 5*time.Minute)
	}
	return s
}

// MedicalResponse answers a general health question
func (s *Service) MedicalResponse(ctx context.Context, userID, question string) Result {
	start := s.now()
	category := s.rules.Categorize(question)
	normalized := cache.Normalize(question)

	if resp, ok := fallback.QuickResponse(normalized); ok {
		return s.finish(ctx, userID, OpMedical, question, Result{Response: resp, Source: SourceQuick, Category: category}, start)
	}

	key := cache.Key(normalized)
	if resp, ok := s.cache.Get(ctx, key); ok {
		return s.finish(ctx, userID, OpMedical, question, Result{Response: resp, Source: SourceCache, Category: category}, start)
	}

	if content, err := s.complete(ctx, OpMedical, s.prompts.MedicalQuestion(privacy.SanitizeForAPI(question))); err == nil {
		resp := classifier.Response{Response: content, Confidence: medicalLLMConfidence}
		s.cache.Set(ctx, key, resp)
		return s.finish(ctx, userID, OpMedical, question, Result{Response: resp, Source: SourceLLM, Category: category}, start)
	}

	return s.finish(ctx, userID, OpMedical, question, Result{
		Response: s.rules.GetMedicalResponse(question),
		Source:   SourceRules,
		Category: category,
	}, start)
}

// DiagnosisAssistance suggests considerations for symptoms and vitals
func (s *Service) DiagnosisAssistance(ctx context.Context, userID string, req DiagnosisRequest) Result {
	start := s.now()
	category := "general"
	if findings := s.rules.DiagnosisFindings(req.Symptoms, req.Vitals); len(findings) > 0 {
		category = findings[len(findings)-1]
	}

	llmReq := s.prompts.Diagnosis(
		privacy.SanitizeForAPI(req.Symptoms),
		req.Vitals,
		privacy.SanitizeForAPI(req.MedicalHistory),
	)
	if content, err := s.complete(ctx, OpDiagnosis, llmReq); err == nil {
		return s.finish(ctx, userID, OpDiagnosis, req.Symptoms, Result{
			Response: classifier.Response{
				Response:         content,
				Confidence:       diagnosisLLMConfidence,
				SuggestedActions: append([]string(nil), diagnosisLLMActions...),
			},
			Source:   SourceLLM,
			Category: category,
		}, start)
	}

	return s.finish(ctx, userID, OpDiagnosis, req.Symptoms, Result{
		Response: s.rules.GetDiagnosisAssistance(req.Symptoms, req.Vitals, req.MedicalHistory),
		Source:   SourceRules,
		Category: category,
	}, start)
}

// LabAnalysis interprets free-text lab results
func (s *Service) LabAnalysis(ctx context.Context, userID, labData string) Result {
	start := s.now()
	report := s.rules.AnalyzeLabReport(labData)
	category := labCategory(report)

	if content, err := s.complete(ctx, OpLab, s.prompts.LabResults(privacy.SanitizeForAPI(labData))); err == nil {
		return s.finish(ctx, userID, OpLab, labData, Result{
			Response: classifier.Response{Response: content, Confidence: labLLMConfidence},
			Source:   SourceLLM,
			Category: category,
		}, start)
	}

	return s.finish(ctx, userID, OpLab, labData, Result{Response: report.Response, Source: SourceRules, Category: category}, start)
}

func labCategory(r classifier.LabReport) string {
	switch {
	case r.Matched == 0:
		return "unrecognized"
	case r.HasAbnormalities:
		return "abnormal"
	default:
		return "reviewed"
	}
}

// Chat continues a free-form conversation. history comes from the client;
// when it is empty the server-side window for userID is used instead.
func (s *Service) Chat(ctx context.Context, userID, message string, history []llm.ChatMessage) Result {
	res := s.chat(ctx, userID, message, history)
	if s.memory != nil && userID != "" {
		s.memory.AddMessage(userID,
			llm.ChatMessage{Role: llm.RoleUser, Content: privacy.SanitizeForAPI(message)},
			llm.ChatMessage{Role: llm.RoleAssistant, Content: res.Response.Response},
		)
	}
	return res
}

func (s *Service) chat(ctx context.Context, userID, message string, history []llm.ChatMessage) Result {
	start := s.now()
	category := s.rules.Categorize(message)

	if resp, ok := fallback.QuickResponse(cache.Normalize(message)); ok {
		return s.finish(ctx, userID, OpChat, message, Result{Response: resp, Source: SourceQuick, Category: category}, start)
	}

	if len(history) == 0 && s.memory != nil && userID != "" {
		history = s.memory.GetShortTermMemory(userID)
	}

	sanitized := make([]llm.ChatMessage, len(history))
	for i, m := range history {
		sanitized[i] = llm.ChatMessage{Role: m.Role, Content: privacy.SanitizeForAPI(m.Content)}
	}

	if content, err := s.complete(ctx, OpChat, s.prompts.Chat(privacy.SanitizeForAPI(message), sanitized)); err == nil {
		return s.finish(ctx, userID, OpChat, message, Result{
			Response: classifier.Response{Response: content, Confidence: medicalLLMConfidence},
			Source:   SourceLLM,
			Category: category,
		}, start)
	}

	return s.finish(ctx, userID, OpChat, message, Result{
		Response: s.rules.GetMedicalResponse(message),
		Source:   SourceRules,
		Category: category,
	}, start)
}

// ExplainCondition gives a plain-language overview of a condition
func (s *Service) ExplainCondition(ctx context.Context, userID, condition string) Result {
	start := s.now()
	category := s.rules.Categorize(condition)

	if content, err := s.complete(ctx, OpExplain, s.prompts.ExplainCondition(privacy.SanitizeForAPI(condition))); err == nil {
		return s.finish(ctx, userID, OpExplain, condition, Result{
			Response: classifier.Response{Response: content, Confidence: explainLLMConfidence},
			Source:   SourceLLM,
			Category: category,
		}, start)
	}

	return s.finish(ctx, userID, OpExplain, condition, Result{
		Response: s.rules.GetMedicalResponse(condition),
		Source:   SourceRules,
		Category: category,
	}, start)
}

// HealthTips returns five tips for a category
func (s *Service) HealthTips(ctx context.Context, userID, category string) (Result, error) {
	start := s.now()

	static, ok := fallback.HealthTips(category)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	req, err := s.prompts.HealthTips(category)
	if err == nil {
		if content, err := s.complete(ctx, OpTips, req); err == nil {
			return s.finish(ctx, userID, OpTips, category, Result{
				Response: classifier.Response{Response: content, Confidence: tipsLLMConfidence},
				Source:   SourceLLM,
				Category: category,
			}, start), nil
		}
	}

	return s.finish(ctx, userID, OpTips, category, Result{Response: static, Source: SourceRules, Category: category}, start), nil
}

// Status reports dependency state for health checks
func (s *Service) Status() Status {
	return Status{
		LLMConfigured: s.client != nil,
		BreakerState:  s.breaker.State().String(),
		StoreEnabled:  s.store != nil,
	}
}

// complete runs one LLM call through the circuit breaker with a timeout
func (s *Service) complete(ctx context.Context, op Operation, req llm.ChatRequest) (string, error) {
	if s.client == nil {
		return "", ErrLLMUnavailable
	}

	var (
		content string
		err     = ctx.Err()
	)
	if err == nil {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		err = s.breaker.Call(func() error {
			resp, err := s.client.ChatCompletion(callCtx, req)
			if err == nil {
				content, err = resp.Content()
			}
			// the caller hanging up says nothing about the provider
			if err != nil && ctx.Err() != nil {
				return fmt.Errorf("%w: %w", context.Canceled, err)
			}
			return err
		})
	}
	if err != nil {
		reason := failureReason(err)
		logf := s.logger.Warn
		if reason == "canceled" {
			logf = s.logger.Debug
		}
		logf("llm call failed, using rules",
			zap.String("operation", string(op)),
			zap.String("reason", reason),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.LLMFailures.WithLabelValues(string(op), reason).Inc()
		}
		return "", err
	}

	return content, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, circuitbreaker.ErrCircuitOpen), errors.Is(err, circuitbreaker.ErrTooManyRequests):
		return "circuit_open"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, llm.ErrEmptyResponse):
		return "empty"
	default:
		return "error"
	}
}

// finish records metrics and the interaction, then returns res unchanged
func (s *Service) finish(ctx context.Context, userID string, op Operation, input string, res Result, start time.Time) Result {
	if s.metrics != nil {
		s.metrics.Responses.WithLabelValues(string(op), string(res.Source), res.Category).Inc()
		s.metrics.ResponseLatency.WithLabelValues(string(op), string(res.Source)).Observe(s.now().Sub(start).Seconds())
	}

	s.logger.Debug("answered",
		zap.String("operation", string(op)),
		zap.String("source", string(res.Source)),
		zap.String("category", res.Category),
		zap.String("user", privacy.HashUserID(userID)),
		zap.String("input", privacy.SanitizeForLogging(input)),
	)

	s.record(ctx, userID, op, input, res)
	return res
}

// record stores the interaction. Failures are logged and never reach the caller.
func (s *Service) record(ctx context.Context, userID string, op Operation, input string, res Result) {
	if s.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()

	err := s.store.SaveInteraction(ctx, &db.Interaction{
		UserID:     userID,
		Operation:  string(op),
		Category:   res.Category,
		Source:     string(res.Source),
		Input:      privacy.SanitizeForAPI(input),
		Response:   res.Response.Response,
		Confidence: res.Confidence,
	})
	if err != nil {
		s.logger.Error("failed to record interaction",
			zap.String("operation", string(op)),
			zap.String("user", privacy.HashUserID(userID)),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.StoreFailures.Inc()
		}
	}
}
