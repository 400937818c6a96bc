package qschema

import (
	"errors"
	"strings"
	"testing"
)

func intPtr(i int) *int { return &i }

func TestParseFencedJSON(t *testing.T) {
	raw := "```json\n{\"question_text\": \"What is the plural of 'leaf'?\", \"options\": [\"leafs\", \"leaves\"], \"correct_option\": 1}\n```"

	p, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Text != "What is the plural of 'leaf'?" {
		t.Errorf("text = %q", p.Text)
	}
	if p.CorrectOption == nil || *p.CorrectOption != 1 {
		t.Errorf("correct_option = %v", p.CorrectOption)
	}
}

func TestParseJSONBuriedInProse(t *testing.T) {
	raw := "Here is the question you asked for:\n{\"question_text\": \"Define osmosis.\", \"answer_guide\": \"Movement of water across a membrane.\"}\nLet me know if you need another."

	p, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !strings.Contains(p.AnswerGuide, "membrane") {
		t.Errorf("answer_guide = %q", p.AnswerGuide)
	}
}

func TestParseNoJSON(t *testing.T) {
	_, err := Parse("I cannot generate that question.")

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestValidateMCQ(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		wantOK  bool
	}{
		{
			"valid",
			Payload{Text: "Pick one", Options: []string{"a", "b", "c", "d"}, CorrectOption: intPtr(2)},
			true,
		},
		{
			"missing correct option",
			Payload{Text: "Pick one", Options: []string{"a", "b"}},
			false,
		},
		{
			"index out of range",
			Payload{Text: "Pick one", Options: []string{"a", "b"}, CorrectOption: intPtr(2)},
			false,
		},
		{
			"negative index",
			Payload{Text: "Pick one", Options: []string{"a", "b"}, CorrectOption: intPtr(-1)},
			false,
		},
		{
			"single option",
			Payload{Text: "Pick one", Options: []string{"a"}, CorrectOption: intPtr(0)},
			false,
		},
		{
			"empty text",
			Payload{Options: []string{"a", "b"}, CorrectOption: intPtr(0)},
			false,
		},
	}

	for _, tt := range tests {
		err := Validate(TypeMCQ, &tt.payload)
		if tt.wantOK && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.wantOK && err == nil {
			t.Errorf("%s: expected validation failure", tt.name)
		}
	}
}

func TestValidateDescriptive(t *testing.T) {
	ok := Payload{Text: "Explain the water cycle.", AnswerGuide: "Evaporation, condensation, precipitation."}
	if err := Validate(TypeShort, &ok); err != nil {
		t.Errorf("valid short rejected: %v", err)
	}
	if err := Validate(TypeLong, &ok); err != nil {
		t.Errorf("valid long rejected: %v", err)
	}

	noKey := Payload{Text: "Explain the water cycle."}
	if err := Validate(TypeShort, &noKey); err == nil {
		t.Errorf("descriptive question without answer key accepted")
	}
}

func TestValidateInternalChoice(t *testing.T) {
	valid := Payload{Alternatives: []Alternative{
		{Label: "a", Text: "Describe the narrator's journey.", AnswerGuide: "Journey through the hills."},
		{Label: "b", Text: "Describe the festival scene.", AnswerGuide: "The village fair at dusk."},
	}}
	if err := Validate(TypeInternalChoice, &valid); err != nil {
		t.Errorf("valid internal choice rejected: %v", err)
	}

	single := Payload{Alternatives: valid.Alternatives[:1]}
	if err := Validate(TypeInternalChoice, &single); err == nil {
		t.Errorf("single alternative accepted")
	}

	blankGuide := Payload{Alternatives: []Alternative{
		{Label: "a", Text: "q1", AnswerGuide: "g1"},
		{Label: "b", Text: "q2"},
	}}
	if err := Validate(TypeInternalChoice, &blankGuide); err == nil {
		t.Errorf("alternative without answer guide accepted")
	}
}

func TestValidateUnknownType(t *testing.T) {
	if err := Validate(QuestionType("essay"), &Payload{Text: "x"}); err == nil {
		t.Errorf("unknown question type accepted")
	}
}

func TestValidationErrorIsCorrective(t *testing.T) {
	err := Validate(TypeMCQ, &Payload{Text: "Pick", Options: []string{"a", "b"}})
	if err == nil {
		t.Fatal("expected error")
	}
	// The message is fed back to the model verbatim, so it must name the field.
	if !strings.Contains(err.Error(), "correct_option") {
		t.Errorf("message does not name the failing field: %q", err.Error())
	}
}
