package classifier

import (
	"reflect"
	"strings"
	"testing"
)

func TestClassifier_AnalyzeLabResults(t *testing.T) {
	cls := NewClassifier()

	tests := []struct {
		name         string
		input        string
		wantContains []string
		wantMissing  []string
		wantAbnormal bool
		wantMatched  int
	}{
		{
			name:  "blood test elevated",
			input: "blood test elevated",
			wantContains: []string{
				"• Blood Test: Monitor hemoglobin, white blood cells, platelets",
				"  - Elevated values may indicate infection or other conditions",
			},
			wantAbnormal: true,
			wantMatched:  1,
		},
		{
			name:         "hematology normal",
			input:        "Hematology panel within range",
			wantContains: []string{"• Blood Test"},
			wantMissing:  []string{"Elevated values"},
			wantMatched:  1,
		},
		{
			name:         "glucose high",
			input:        "fasting glucose HIGH",
			wantContains: []string{"• Glucose Level: Check fasting vs. non-fasting", "  - May indicate diabetes risk"},
			wantAbnormal: true,
			wantMatched:  1,
		},
		{
			name:         "glucose branch ignores elevated",
			input:        "glucose elevated",
			wantContains: []string{"• Glucose Level"},
			wantMissing:  []string{"diabetes risk"},
			wantMatched:  1,
		},
		{
			name:         "cholesterol has fixed lines",
			input:        "cholesterol panel",
			wantContains: []string{"• Cholesterol: Check LDL, HDL, triglycerides", "  - Important for cardiovascular health"},
			wantMatched:  1,
		},
		{
			name:         "kidney abnormal",
			input:        "Kidney function abnormal",
			wantContains: []string{"• Organ Function: Enzymes and creatinine levels", "  - May require follow-up evaluation"},
			wantAbnormal: true,
			wantMatched:  1,
		},
		{
			name:         "liver normal",
			input:        "liver enzymes fine",
			wantContains: []string{"• Organ Function"},
			wantMissing:  []string{"follow-up evaluation"},
			wantMatched:  1,
		},
		{
			name:  "blood sugar high hits two categories",
			input: "blood sugar high",
			wantContains: []string{
				"• Blood Test",
				"Elevated values may indicate",
				"• Glucose Level",
				"May indicate diabetes risk",
			},
			wantAbnormal: true,
			wantMatched:  2,
		},
		{
			name:         "unknown test gets generic message",
			input:        "thyroid TSH 2.1",
			wantContains: []string{labNoMatch},
			wantMissing:  []string{labHeader},
			wantMatched:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := cls.AnalyzeLabReport(tt.input)
			resp := report.Response

			for _, s := range tt.wantContains {
				if !strings.Contains(resp.Response, s) {
					t.Errorf("response does not contain %q", s)
				}
			}
			for _, s := range tt.wantMissing {
				if strings.Contains(resp.Response, s) {
					t.Errorf("response unexpectedly contains %q", s)
				}
			}
			if report.HasAbnormalities != tt.wantAbnormal {
				t.Errorf("HasAbnormalities = %v, want %v", report.HasAbnormalities, tt.wantAbnormal)
			}
			if report.Matched != tt.wantMatched {
				t.Errorf("Matched = %d, want %d", report.Matched, tt.wantMatched)
			}
			if resp.Confidence != 0.8 {
				t.Errorf("confidence = %v, want 0.8", resp.Confidence)
			}
			if !strings.HasSuffix(resp.Response, labTrailer) {
				t.Errorf("response missing recommendations trailer")
			}
			if !reflect.DeepEqual(resp.SuggestedActions, labActions) {
				t.Errorf("actions = %v, want %v", resp.SuggestedActions, labActions)
			}
			if !reflect.DeepEqual(cls.AnalyzeLabResults(tt.input), resp) {
				t.Errorf("AnalyzeLabResults and AnalyzeLabReport disagree")
			}
		})
	}
}

func TestClassifier_AnalyzeLabResults_Empty(t *testing.T) {
	resp := NewClassifier().AnalyzeLabResults("")

	want := "Lab results received. For detailed analysis, please share specific test values with normal ranges." +
		"\n\nRecommendations:\n" +
		"• Follow up with your doctor for interpretation\n" +
		"• Discuss any abnormal findings\n" +
		"• Get repeat tests if recommended\n" +
		"• Maintain healthy lifestyle habits"
	if resp.Response != want {
		t.Errorf("response = %q, want %q", resp.Response, want)
	}
	if len(resp.SuggestedActions) != 4 {
		t.Errorf("got %d actions, want 4", len(resp.SuggestedActions))
	}
}

func TestClassifier_AnalyzeLabResults_MatchedLayout(t *testing.T) {
	resp := NewClassifier().AnalyzeLabResults("cholesterol")

	want := "Lab Result Analysis:\n\n" +
		"• Cholesterol: Check LDL, HDL, triglycerides\n" +
		"  - Important for cardiovascular health\n" +
		labTrailer
	if resp.Response != want {
		t.Errorf("response = %q, want %q", resp.Response, want)
	}
}
