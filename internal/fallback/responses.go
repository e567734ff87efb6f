// Package fallback holds the static answers served without calling the LLM.
package fallback

import (
	"strings"

	"github.com/digitaldoctors/dda-assistant/internal/classifier"
)

// maxQuickWords bounds how long a greeting may be and still get a canned reply
const maxQuickWords = 3

var quickResponses = map[string]string{
	"hello":     "Hello! I'm Dr. Tega, your AI healthcare assistant. How can I help you today?",
	"hi":        "Hi there! I'm Dr. Tega. What health questions can I assist you with?",
	"hey":       "Hey! I'm Dr. Tega, ready to assist with your health questions.",
	"help":      "I'm Dr. Tega, here to help with:\n- Symptom analysis and health assessments\n- Medication information and guidelines\n- Lab result interpretation\n- Clinical recommendations\n- Health risk evaluations\n\nWhat would you like to know?",
	"thank you": "You're welcome! If you have any more health questions, feel free to ask. Take care!",
	"thanks":    "You're welcome! Stay healthy and don't hesitate to ask if you need more assistance.",
	"bye":       "Goodbye! Remember to take care of your health. I'm always here if you need medical guidance.",
	"goodbye":   "Goodbye! Take care of your health. I'm here whenever you need assistance.",
}

// QuickResponse returns the canned reply for an exact, already normalised
// greeting. Anything longer than a few words never matches.
func QuickResponse(normalized string) (classifier.Response, bool) {
	if len(strings.Fields(normalized)) > maxQuickWords {
		return classifier.Response{}, false
	}
	text, ok := quickResponses[normalized]
	if !ok {
		return classifier.Response{}, false
	}
	return classifier.Response{Response: text, Confidence: 1.0}, true
}

var quickQuestions = []string{
	"What are the symptoms of diabetes?",
	"How can I improve my sleep quality?",
	"What should I eat for a healthy heart?",
	"When should I see a doctor for a headache?",
	"How much water should I drink daily?",
	"What are the benefits of regular exercise?",
	"How can I manage stress better?",
	"What are the warning signs of high blood pressure?",
	"How can I boost my immune system?",
	"What is a healthy BMI range?",
}

// QuickQuestions returns suggested starter questions
func QuickQuestions() []string {
	return append([]string(nil), quickQuestions...)
}

const tipsConfidence = 0.7

var healthTips = map[string][]string{
	"general": {
		"Drink enough water throughout the day.",
		"Aim for 7-9 hours of sleep each night.",
		"Wash your hands regularly, especially before meals.",
		"Keep up with routine check-ups and screenings.",
		"Avoid tobacco and limit alcohol.",
	},
	"nutrition": {
		"Fill half your plate with vegetables and fruit.",
		"Choose whole grains over refined grains.",
		"Limit added sugar and sugary drinks.",
		"Include a source of lean protein at each meal.",
		"Watch your salt intake, especially in processed foods.",
	},
	"exercise": {
		"Aim for at least 150 minutes of moderate activity per week.",
		"Add muscle-strengthening exercises twice a week.",
		"Take short walking breaks if you sit for long periods.",
		"Warm up before and stretch after exercise.",
		"Start slowly and build up intensity over time.",
	},
	"mental_health": {
		"Stay connected with friends and family.",
		"Practice a few minutes of deep breathing or mindfulness daily.",
		"Keep a regular sleep and wake schedule.",
		"Limit news and social media when they raise your stress.",
		"Reach out to a professional if low mood lasts more than two weeks.",
	},
	"sleep": {
		"Go to bed and wake up at the same time every day.",
		"Keep your bedroom dark, quiet and cool.",
		"Avoid caffeine in the afternoon and evening.",
		"Put screens away 30-60 minutes before bed.",
		"Avoid heavy meals late at night.",
	},
	"preventive": {
		"Keep your vaccinations up to date.",
		"Check your blood pressure at least once a year.",
		"Know your family medical history and share it with your doctor.",
		"Get recommended cancer screenings for your age.",
		"Check blood sugar regularly if you are at risk of diabetes.",
	},
}

var tipsActions = []string{"Talk to your doctor before major lifestyle changes"}

// HealthTips returns the static tips for a category
func HealthTips(category string) (classifier.Response, bool) {
	tips, ok := healthTips[category]
	if !ok {
		return classifier.Response{}, false
	}

	var sb strings.Builder
	sb.WriteString("Here are some health tips:\n\n")
	for i, tip := range tips {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("• ")
		sb.WriteString(tip)
	}

	return classifier.Response{
		Response:         sb.String(),
		Confidence:       tipsConfidence,
		SuggestedActions: append([]string(nil), tipsActions...),
	}, true
}
