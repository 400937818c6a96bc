// FILE: pkg/exam/qschema/qschema.go
package qschema

import (
	"encoding/json"
	"fmt"
	"strings"
)

type QuestionType string

const (
	TypeMCQ            QuestionType = "mcq"
	TypeShort          QuestionType = "short"
	TypeLong           QuestionType = "long"
	TypeInternalChoice QuestionType = "internal_choice"
)

// Known reports whether t is one of the closed set of question types.
func Known(t QuestionType) bool {
	switch t {
	case TypeMCQ, TypeShort, TypeLong, TypeInternalChoice:
		return true
	}
	return false
}

// Alternative is one sub-question of an internal-choice slot.
type Alternative struct {
	Label       string `json:"label"`
	Text        string `json:"question_text"`
	AnswerGuide string `json:"answer_guide"`
}

// Payload is the structured question shape the generation backend must
// return. CorrectOption is a zero-based index into Options.
type Payload struct {
	Text          string        `json:"question_text"`
	Options       []string      `json:"options,omitempty"`
	CorrectOption *int          `json:"correct_option,omitempty"`
	AnswerGuide   string        `json:"answer_guide,omitempty"`
	Alternatives  []Alternative `json:"alternatives,omitempty"`
}

// ValidationError describes one schema violation. Its message doubles as the
// corrective instruction appended to the retry prompt.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Parse extracts the question payload from a raw model response. Models wrap
// JSON in markdown fences or prose more often than not, so parsing scans for
// the outermost object instead of unmarshalling the response verbatim.
func Parse(raw string) (*Payload, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, &ValidationError{Field: "response", Reason: "no JSON object found in model output"}
	}

	var p Payload
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &p); err != nil {
		return nil, &ValidationError{Field: "response", Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}
	return &p, nil
}

// Validate checks the payload against the rules of its question type.
func Validate(qt QuestionType, p *Payload) error {
	if !Known(qt) {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown question type %q", qt)}
	}
	if qt != TypeInternalChoice && strings.TrimSpace(p.Text) == "" {
		return &ValidationError{Field: "question_text", Reason: "must not be empty"}
	}

	switch qt {
	case TypeMCQ:
		if len(p.Options) < 2 {
			return &ValidationError{Field: "options", Reason: "mcq requires at least two options"}
		}
		if p.CorrectOption == nil {
			return &ValidationError{Field: "correct_option", Reason: "mcq requires exactly one correct option index"}
		}
		if *p.CorrectOption < 0 || *p.CorrectOption >= len(p.Options) {
			return &ValidationError{Field: "correct_option", Reason: fmt.Sprintf("index %d outside options range 0..%d", *p.CorrectOption, len(p.Options)-1)}
		}
	case TypeShort, TypeLong:
		if strings.TrimSpace(p.AnswerGuide) == "" {
			return &ValidationError{Field: "answer_guide", Reason: "descriptive questions require an answer key"}
		}
	case TypeInternalChoice:
		if len(p.Alternatives) < 2 {
			return &ValidationError{Field: "alternatives", Reason: "internal choice requires two or more alternative sub-questions"}
		}
		for i, alt := range p.Alternatives {
			if strings.TrimSpace(alt.Text) == "" {
				return &ValidationError{Field: fmt.Sprintf("alternatives[%d].question_text", i), Reason: "must not be empty"}
			}
			if strings.TrimSpace(alt.AnswerGuide) == "" {
				return &ValidationError{Field: fmt.Sprintf("alternatives[%d].answer_guide", i), Reason: "must not be empty"}
			}
		}
	}

	return nil
}
