package classifier

import (
	"strings"
)

const (
	labHeader     = "Lab Result Analysis:\n\n"
	labNoMatch    = "Lab results received. For detailed analysis, please share specific test values with normal ranges."
	labConfidence = 0.8
)

const labTrailer = "\n\nRecommendations:\n" +
	"• Follow up with your doctor for interpretation\n" +
	"• Discuss any abnormal findings\n" +
	"• Get repeat tests if recommended\n" +
	"• Maintain healthy lifestyle habits"

var labActions = []string{
	"Discuss with doctor",
	"Schedule follow-up",
	"Get repeat tests if needed",
	"Maintain health habits",
}

// labWarning is an extra line added when a category also mentions a flag word
type labWarning struct {
	flags []string
	line  string
}

type labCategory struct {
	keywords []string
	lines    []string
	warning  *labWarning
}

var labCategories = []labCategory{
	{
		keywords: []string{"blood", "hematology"},
		lines:    []string{"• Blood Test: Monitor hemoglobin, white blood cells, platelets"},
		warning: &labWarning{
			flags: []string{"high", "elevated"},
			line:  "  - Elevated values may indicate infection or other conditions",
		},
	},
	{
		keywords: []string{"glucose", "sugar"},
		lines:    []string{"• Glucose Level: Check fasting vs. non-fasting"},
		warning: &labWarning{
			flags: []string{"high"},
			line:  "  - May indicate diabetes risk",
		},
	},
	{
		keywords: []string{"cholesterol"},
		lines: []string{
			"• Cholesterol: Check LDL, HDL, triglycerides",
			"  - Important for cardiovascular health",
		},
	},
	{
		keywords: []string{"liver", "kidney"},
		lines:    []string{"• Organ Function: Enzymes and creatinine levels"},
		warning: &labWarning{
			flags: []string{"abnormal"},
			line:  "  - May require follow-up evaluation",
		},
	},
}

// LabReport is the structured outcome of a lab analysis
type LabReport struct {
	Matched          int
	HasAbnormalities bool
	Response         Response
}

// AnalyzeLabResults comments on the test categories mentioned in the text
func (c *Classifier) AnalyzeLabResults(labText string) Response {
	return c.AnalyzeLabReport(labText).Response
}

// AnalyzeLabReport is AnalyzeLabResults with the match details kept
func (c *Classifier) AnalyzeLabReport(labText string) LabReport {
	lower := strings.ToLower(labText)

	var sb strings.Builder
	sb.WriteString(labHeader)

	report := LabReport{}
	for _, cat := range labCategories {
		if !containsAny(lower, cat.keywords) {
			continue
		}
		report.Matched++
		for _, line := range cat.lines {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		if cat.warning != nil && containsAny(lower, cat.warning.flags) {
			sb.WriteString(cat.warning.line)
			sb.WriteString("\n")
			report.HasAbnormalities = true
		}
	}

	text := sb.String()
	if report.Matched == 0 {
		text = labNoMatch
	}
	text += labTrailer

	report.Response = Response{
		Response:         text,
		Confidence:       labConfidence,
		SuggestedActions: copyActions(labActions),
	}
	return report
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
