package classifier

import (
	"reflect"
	"strings"
	"testing"
)

func TestClassifier_GetMedicalResponse(t *testing.T) {
	cls := NewClassifier()

	tests := []struct {
		name         string
		input        string
		wantConf     float64
		containsText string
		wantTopic    string
	}{
		{
			name:         "fever keyword",
			input:        "I think I have a fever",
			wantConf:     0.82,
			containsText: "Fever is typically the body's response to infection",
			wantTopic:    "fever",
		},
		{
			name:         "temperature keyword upper case",
			input:        "My TEMPERATURE is 39C",
			wantConf:     0.82,
			containsText: "Normal fever ranges from 100.4°F (38°C)",
			wantTopic:    "fever",
		},
		{
			name:         "headache",
			input:        "Why do I get a headache every morning?",
			wantConf:     0.8,
			containsText: "Headaches can have various causes",
			wantTopic:    "headache",
		},
		{
			name:         "migraine",
			input:        "Migraine again",
			wantConf:     0.8,
			containsText: "Relief strategies",
			wantTopic:    "headache",
		},
		{
			name:         "diabetes",
			input:        "what is diabetes",
			wantConf:     0.85,
			containsText: "Diabetes is a chronic condition",
			wantTopic:    "diabetes",
		},
		{
			name:         "blood sugar",
			input:        "my Blood Sugar is low",
			wantConf:     0.85,
			containsText: "Type 2: Body doesn't use insulin effectively",
			wantTopic:    "diabetes",
		},
		{
			name:         "blood pressure",
			input:        "how do I lower blood pressure",
			wantConf:     0.84,
			containsText: "Hypertension (high blood pressure) is a serious condition",
			wantTopic:    "blood_pressure",
		},
		{
			name:         "hypertension",
			input:        "hypertension diet",
			wantConf:     0.84,
			containsText: "DASH diet",
			wantTopic:    "blood_pressure",
		},
		{
			name:         "appointment",
			input:        "how do I make an appointment",
			wantConf:     0.9,
			containsText: "To book an appointment",
			wantTopic:    "appointment",
		},
		{
			name:         "book",
			input:        "I want to book a doctor",
			wantConf:     0.9,
			containsText: "Navigate to \"My Appointments\" from the sidebar",
			wantTopic:    "appointment",
		},
		{
			name:         "medication",
			input:        "Medication storage tips",
			wantConf:     0.83,
			containsText: "Important information about medications",
			wantTopic:    "medication",
		},
		{
			name:         "drug",
			input:        "any drug interactions?",
			wantConf:     0.83,
			containsText: "Drug interactions:",
			wantTopic:    "medication",
		},
		{
			name:         "no keyword falls back to default",
			input:        "Is yoga good for my back?",
			wantConf:     0.7,
			containsText: `For your specific concern about "Is yoga good for my back?":`,
			wantTopic:    "general",
		},
		{
			name:         "empty input uses default",
			input:        "",
			wantConf:     0.7,
			containsText: `For your specific concern about "":`,
			wantTopic:    "general",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := cls.GetMedicalResponse(tt.input)

			if resp.Confidence != tt.wantConf {
				t.Errorf("confidence = %v, want %v", resp.Confidence, tt.wantConf)
			}
			if !strings.Contains(resp.Response, tt.containsText) {
				t.Errorf("response does not contain %q", tt.containsText)
			}
			if len(resp.SuggestedActions) != 4 {
				t.Errorf("got %d suggested actions, want 4", len(resp.SuggestedActions))
			}
			if got := cls.Categorize(tt.input); got != tt.wantTopic {
				t.Errorf("Categorize() = %q, want %q", got, tt.wantTopic)
			}
		})
	}
}

func TestClassifier_FirstMatchWins(t *testing.T) {
	cls := NewClassifier()

	tests := []struct {
		name      string
		input     string
		wantTopic string
		notText   string
	}{
		{
			name:      "fever before headache",
			input:     "I have a fever and headache",
			wantTopic: "fever",
			notText:   "Headaches can have various causes",
		},
		{
			name:      "blood sugar before blood pressure",
			input:     "check my blood pressure and blood sugar",
			wantTopic: "diabetes",
			notText:   "Blood pressure categories",
		},
		{
			name:      "medical topic before booking",
			input:     "book a migraine appointment",
			wantTopic: "headache",
			notText:   "To book an appointment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := cls.GetMedicalResponse(tt.input)
			if got := cls.Categorize(tt.input); got != tt.wantTopic {
				t.Errorf("Categorize() = %q, want %q", got, tt.wantTopic)
			}
			if strings.Contains(resp.Response, tt.notText) {
				t.Errorf("response unexpectedly contains %q", tt.notText)
			}
		})
	}
}

func TestClassifier_DefaultEchoesOriginalCase(t *testing.T) {
	cls := NewClassifier()
	query := "Can I Eat MANGOES after Surgery?"

	resp := cls.GetMedicalResponse(query)

	if !strings.Contains(resp.Response, `"`+query+`"`) {
		t.Fatalf("default response does not quote the original query")
	}
	if strings.Contains(resp.Response, QueryPlaceholder) {
		t.Errorf("placeholder left in response")
	}
	if !strings.HasPrefix(resp.Response, "Hello! I'm Dr. Tega, your AI healthcare assistant.") {
		t.Errorf("unexpected default prefix: %q", resp.Response[:40])
	}
}

func TestClassifier_Idempotent(t *testing.T) {
	cls := NewClassifier()
	vitals := &Vitals{Temperature: ParseReading("39"), HeartRate: ValidReading(110)}

	inputs := []string{"fever", "headache", "nothing relevant", "blood test elevated"}
	for _, in := range inputs {
		if a, b := cls.GetMedicalResponse(in), cls.GetMedicalResponse(in); !reflect.DeepEqual(a, b) {
			t.Errorf("GetMedicalResponse(%q) not idempotent", in)
		}
		if a, b := cls.GetDiagnosisAssistance(in, vitals, ""), cls.GetDiagnosisAssistance(in, vitals, ""); !reflect.DeepEqual(a, b) {
			t.Errorf("GetDiagnosisAssistance(%q) not idempotent", in)
		}
		if a, b := cls.AnalyzeLabResults(in), cls.AnalyzeLabResults(in); !reflect.DeepEqual(a, b) {
			t.Errorf("AnalyzeLabResults(%q) not idempotent", in)
		}
	}
}

func TestClassifier_ActionsAreCopies(t *testing.T) {
	cls := NewClassifier()

	first := cls.GetMedicalResponse("fever")
	first.SuggestedActions[0] = "tampered"

	second := cls.GetMedicalResponse("fever")
	if second.SuggestedActions[0] != "Schedule doctor appointment" {
		t.Errorf("catalog actions were mutated: %q", second.SuggestedActions[0])
	}
}

func TestClassifier_Topics(t *testing.T) {
	want := []string{"fever", "headache", "diabetes", "blood_pressure", "appointment", "medication"}
	if got := NewClassifier().Topics(); !reflect.DeepEqual(got, want) {
		t.Errorf("Topics() = %v, want %v", got, want)
	}
}

func TestClassifier_ConcurrentUse(t *testing.T) {
	cls := NewClassifier()
	done := make(chan struct{})

	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				cls.GetMedicalResponse("fever and headache")
				cls.AnalyzeLabResults("glucose high")
				cls.GetDiagnosisAssistance("chest pain", nil, "")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
