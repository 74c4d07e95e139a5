package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func validResult() *Result {
	return &Result{
		RoleLevel:       "Senior",
		ExtractedSkills: []string{"Go", "Kubernetes"},
		Sections: []Section{
			{
				Title: "Backend", Skill: "Go",
				Questions: []Question{
					{Code: "Q1", Type: "Conceptual", Difficulty: "Mid", Text: "Explain goroutines.", ExpectedSignals: []string{"scheduler"}},
					{Code: "Q2", Type: "Coding", Difficulty: "Senior", Text: "Design a worker pool."},
				},
			},
			{
				Title: "Infra", Skill: "Kubernetes",
				Questions: []Question{
					{Code: "Q3", Type: "Scenario", Difficulty: "Senior", Text: "Debug a crashlooping pod."},
				},
			},
		},
	}
}

func TestResult_Validate(t *testing.T) {
	if err := validResult().Validate(); err != nil {
		t.Fatalf("valid result rejected: %v", err)
	}

	cases := map[string]func(*Result){
		"missing role level": func(r *Result) { r.RoleLevel = "" },
		"no sections":        func(r *Result) { r.Sections = nil },
		"empty sections": func(r *Result) {
			for i := range r.Sections {
				r.Sections[i].Questions = nil
			}
		},
		"question without text": func(r *Result) { r.Sections[0].Questions[0].Text = "" },
	}
	for name, mutate := range cases {
		r := validResult()
		mutate(r)
		if err := r.Validate(); !errors.Is(err, ErrMalformedResult) {
			t.Errorf("%s: err = %v; want ErrMalformedResult", name, err)
		}
	}
}

func TestResult_TotalQuestionsAndFlatten(t *testing.T) {
	r := validResult()
	if n := r.TotalQuestions(); n != 3 {
		t.Fatalf("TotalQuestions = %d; want 3", n)
	}

	flat := r.Flatten()
	if len(flat) != 3 {
		t.Fatalf("Flatten len = %d; want 3", len(flat))
	}
	// Section order then question order.
	wantCodes := []string{"Q1", "Q2", "Q3"}
	for i, q := range flat {
		if q.Code != wantCodes[i] {
			t.Errorf("flat[%d].Code = %q; want %q", i, q.Code, wantCodes[i])
		}
	}
	if flat[0].SectionTitle != "Backend" || flat[0].Skill != "Go" {
		t.Errorf("section fields not denormalized: %+v", flat[0])
	}
	if flat[2].SectionTitle != "Infra" || flat[2].Skill != "Kubernetes" {
		t.Errorf("section fields not denormalized: %+v", flat[2])
	}
}

func TestResult_ParsesEngineJSON(t *testing.T) {
	// The wire shape the engine is instructed to emit: question ids arrive
	// under "id" and map to Code.
	payload := `{
		"role_level": "Mid-level",
		"extracted_skills": ["Python"],
		"sections": [{
			"title": "General", "skill": "Python",
			"questions": [{"id": "Q1", "type": "Conceptual", "difficulty": "Mid",
				"text": "What is the GIL?", "expected_signals": ["threads", "locks"]}]
		}]
	}`
	var r Result
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	q := r.Sections[0].Questions[0]
	if q.Code != "Q1" {
		t.Errorf("Code = %q; want Q1", q.Code)
	}
	if len(q.ExpectedSignals) != 2 {
		t.Errorf("ExpectedSignals = %v", q.ExpectedSignals)
	}
}
