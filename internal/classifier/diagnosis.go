package classifier

import (
	"strings"
)

const (
	diagnosisHeader     = "Based on the information provided, potential considerations include:\n\n"
	diagnosisDisclaimer = "\n⚠️ IMPORTANT: This is not a medical diagnosis. Please consult a healthcare professional for accurate diagnosis and treatment."
	diagnosisBaseConf   = 0.75
)

var diagnosisActions = []string{
	"Schedule doctor appointment",
	"Get laboratory tests",
	"Monitor vital signs",
	"Maintain medical records",
}

// diagnosisRule appends lines and sets the confidence when its predicate holds
type diagnosisRule struct {
	name       string
	applies    func(symptoms string, v Vitals) bool
	lines      []string
	confidence float64
}

// Rules run in declaration order. Each rule that applies replaces the
// confidence set by earlier ones.
var diagnosisRules = []diagnosisRule{
	{
		name: "infection",
		applies: func(s string, v Vitals) bool {
			return strings.Contains(s, "fever") && v.Temperature.Above(38)
		},
		lines: []string{
			"• Acute infection (bacterial or viral)",
			"• Recommended: Blood work, urinalysis",
		},
		confidence: 0.8,
	},
	{
		name: "respiratory",
		applies: func(s string, _ Vitals) bool {
			return strings.Contains(s, "cough") || strings.Contains(s, "shortness")
		},
		lines: []string{
			"• Respiratory condition (cold, flu, pneumonia)",
			"• Recommended: Chest X-ray if persistent",
		},
		confidence: 0.78,
	},
	{
		name: "cardiac",
		applies: func(s string, _ Vitals) bool {
			return strings.Contains(s, "chest pain")
		},
		lines: []string{
			"• ⚠️ URGENT: Cardiac evaluation recommended",
			"• Seek immediate medical attention",
		},
		confidence: 0.85,
	},
	{
		name: "hypertension",
		applies: func(_ string, v Vitals) bool {
			return v.BloodPressureSystolic.Above(140)
		},
		lines: []string{
			"• Elevated blood pressure (Hypertension)",
			"• Recommended: Lifestyle modifications, medication review",
		},
		confidence: 0.82,
	},
	{
		name: "tachycardia",
		applies: func(_ string, v Vitals) bool {
			return v.HeartRate.Above(100)
		},
		lines: []string{
			"• Elevated heart rate (Tachycardia)",
			"• Consider: Stress, infection, or cardiac evaluation",
		},
		confidence: 0.75,
	},
}

// GetDiagnosisAssistance lists the considerations raised by the symptoms and
// vitals. vitals may be nil. medicalHistory is accepted for callers that have
// it but does not influence the rules.
func (c *Classifier) GetDiagnosisAssistance(symptoms string, vitals *Vitals, medicalHistory string) Response {
	var v Vitals
	if vitals != nil {
		v = *vitals
	}
	lower := strings.ToLower(symptoms)

	var sb strings.Builder
	sb.WriteString(diagnosisHeader)
	confidence := diagnosisBaseConf

	for _, rule := range diagnosisRules {
		if !rule.applies(lower, v) {
			continue
		}
		for _, line := range rule.lines {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		confidence = rule.confidence
	}

	sb.WriteString(diagnosisDisclaimer)

	return Response{
		Response:         sb.String(),
		Confidence:       confidence,
		SuggestedActions: copyActions(diagnosisActions),
	}
}

// DiagnosisFindings names the rules that apply, in evaluation order
func (c *Classifier) DiagnosisFindings(symptoms string, vitals *Vitals) []string {
	var v Vitals
	if vitals != nil {
		v = *vitals
	}
	lower := strings.ToLower(symptoms)

	var names []string
	for _, rule := range diagnosisRules {
		if rule.applies(lower, v) {
			names = append(names, rule.name)
		}
	}
	return names
}
