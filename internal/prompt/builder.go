package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/digitaldoctors/dda-assistant/internal/classifier"
	"github.com/digitaldoctors/dda-assistant/pkg/llm"
)

// MaxHistoryMessages bounds how much client-supplied history is forwarded
const MaxHistoryMessages = 10

const (
	medicalSystemPrompt = "You are Dr. Tega, a knowledgeable AI healthcare assistant. Provide accurate, concise, evidence-based medical information. Keep responses focused and actionable. Always recommend consulting healthcare professionals for diagnosis/treatment. Flag emergencies clearly."

	diagnosisSystemPrompt = `You are Dr. Tega, an expert AI healthcare assistant specializing in medical diagnosis support. You provide evidence-based clinical insights while emphasizing that you assist, not replace, healthcare professionals.

Your responses should:
1. Analyze presented symptoms in the context of vital signs and medical history
2. Suggest possible diagnoses with confidence levels (0-100%)
3. Recommend immediate actions if urgent
4. Always recommend professional medical evaluation
5. Flag any critical findings requiring immediate attention`

	labSystemPrompt = `You are Dr. Tega, specialized in analyzing laboratory results. Provide insights on:
1. What the results indicate
2. Any abnormalities and their significance
3. Disease probability assessment
4. Recommended follow-up tests
5. Clinical recommendations`

	chatSystemPrompt = `You are Dr. Tega, a friendly and knowledgeable AI health assistant for the Digital Doctors Assistant platform.

Your role:
- Answer general health questions in a clear, accessible way
- Provide health education and wellness tips
- Explain medical terms and conditions
- Offer preventive health advice
- Discuss symptoms and when to seek medical care

Important guidelines:
- Always be empathetic and supportive
- Use simple language that anyone can understand
- For serious symptoms, always recommend seeing a healthcare provider
- Never provide specific diagnoses or prescribe medications
- Clarify that you're an AI assistant, not a replacement for professional medical care
- Be culturally sensitive and inclusive
- If asked about emergencies, immediately advise calling emergency services

Be warm, helpful, and always prioritize user safety.`
)

var tipPrompts = map[string]string{
	"general":       "Provide 5 practical general health and wellness tips for maintaining good health.",
	"nutrition":     "Provide 5 evidence-based nutrition tips for a healthy diet.",
	"exercise":      "Provide 5 practical exercise and fitness tips for staying active.",
	"mental_health": "Provide 5 tips for maintaining good mental health and emotional wellbeing.",
	"sleep":         "Provide 5 tips for improving sleep quality and establishing healthy sleep habits.",
	"preventive":    "Provide 5 preventive health tips for disease prevention and early detection.",
}

// Builder constructs chat requests for each assistant operation
type Builder struct {
	model string
}

// NewBuilder creates a prompt builder. An empty model lets the client pick its default.
func NewBuilder(model string) *Builder {
	return &Builder{model: model}
}

func (b *Builder) request(system, user string, maxTokens int, temperature float64) llm.ChatRequest {
	return llm.ChatRequest{
		Model: b.model,
		Messages: []llm.ChatMessage{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

// MedicalQuestion builds the short-form medical information request
func (b *Builder) MedicalQuestion(question string) llm.ChatRequest {
	return b.request(medicalSystemPrompt, question, 800, 0.7)
}

// Diagnosis builds the diagnosis-support request. Absent vitals and history are omitted.
func (b *Builder) Diagnosis(symptoms string, vitals *classifier.Vitals, medicalHistory string) llm.ChatRequest {
	var sb strings.Builder
	sb.WriteString("\nPatient Symptoms: ")
	sb.WriteString(symptoms)
	sb.WriteString("\n")
	if vitals != nil && vitals.Any() {
		if data, err := json.Marshal(vitals); err == nil {
			sb.WriteString("Vital Signs: ")
			sb.Write(data)
		}
	}
	sb.WriteString("\n")
	if medicalHistory != "" {
		sb.WriteString("Medical History: ")
		sb.WriteString(medicalHistory)
	}
	sb.WriteString("\n\nPlease provide diagnostic suggestions with confidence scores and recommended actions.")

	return b.request(diagnosisSystemPrompt, sb.String(), 2048, 0)
}

// LabResults builds the lab interpretation request
func (b *Builder) LabResults(labData string) llm.ChatRequest {
	return b.request(labSystemPrompt, "Please analyze these lab results: "+labData, 1500, 0)
}

// Chat builds a free-form conversation request. Only the last
// MaxHistoryMessages user/assistant turns of history are kept; any other
// role coming from the client is dropped.
func (b *Builder) Chat(message string, history []llm.ChatMessage) llm.ChatRequest {
	turns := make([]llm.ChatMessage, 0, len(history))
	for _, m := range history {
		if (m.Role != llm.RoleUser && m.Role != llm.RoleAssistant) || strings.TrimSpace(m.Content) == "" {
			continue
		}
		turns = append(turns, m)
	}
	if len(turns) > MaxHistoryMessages {
		turns = turns[len(turns)-MaxHistoryMessages:]
	}

	messages := make([]llm.ChatMessage, 0, len(turns)+2)
	messages = append(messages, llm.ChatMessage{Role: llm.RoleSystem, Content: chatSystemPrompt})
	messages = append(messages, turns...)
	messages = append(messages, llm.ChatMessage{Role: llm.RoleUser, Content: message})

	return llm.ChatRequest{
		Model:       b.model,
		Messages:    messages,
		MaxTokens:   800,
		Temperature: 0.7,
	}
}

// HealthTips builds a request for five tips in the given category
func (b *Builder) HealthTips(category string) (llm.ChatRequest, error) {
	p, ok := tipPrompts[category]
	if !ok {
		return llm.ChatRequest{}, fmt.Errorf("unknown tip category %q", category)
	}
	return b.request(chatSystemPrompt, p, 600, 0.7), nil
}

// ExplainCondition builds a plain-language explanation request
func (b *Builder) ExplainCondition(condition string) llm.ChatRequest {
	user := fmt.Sprintf(`Explain %s in simple, easy-to-understand language. Include:
1. What it is
2. Common symptoms
3. Possible causes
4. When to see a doctor
5. General management tips (if applicable)

Keep it informative but accessible to non-medical people.`, condition)

	return b.request(chatSystemPrompt, user, 700, 0.6)
}

// TipCategories lists the accepted health tip categories in display order
func TipCategories() []string {
	return []string{"general", "nutrition", "exercise", "mental_health", "sleep", "preventive"}
}
