package prompt

import (
	"strings"
	"testing"

	"examcraft-be/internal/entity"
	"examcraft-be/pkg/exam/blueprint"
	"examcraft-be/pkg/exam/qschema"
	"examcraft-be/pkg/rag/fusion"
)

func ranked(texts ...string) []fusion.Ranked {
	var out []fusion.Ranked
	for _, t := range texts {
		out = append(out, fusion.Ranked{Candidate: fusion.Candidate{Text: t}})
	}
	return out
}

func TestGenerationBuilderMCQ(t *testing.T) {
	slot := blueprint.Slot{Number: 3, Type: qschema.TypeMCQ, Marks: 1, Topic: "synonym"}
	p := NewGenerationBuilder(slot, ranked("The cat sat on the mat.", "A dog barked.")).Build()

	for _, want := range []string{
		"<source_material>",
		"[1] The cat sat on the mat.",
		"[2] A dog barked.",
		"multiple-choice question worth 1 mark(s)",
		"the topic: synonym",
		"correct_option",
		"exactly four options",
		"JSON object only",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(p, "<corrections>") {
		t.Error("fresh prompt should carry no corrections block")
	}
}

func TestGenerationBuilderUnitConstraint(t *testing.T) {
	slot := blueprint.Slot{Type: qschema.TypeLong, Marks: 5, Unit: "Unit 3"}
	p := NewGenerationBuilder(slot, nil).Build()

	if !strings.Contains(p, "Draw only on material from Unit 3.") {
		t.Error("unit-bound slot must constrain the source unit")
	}
	if !strings.Contains(p, "answer_guide") {
		t.Error("long-answer contract must ask for an answer guide")
	}
}

func TestGenerationBuilderCorrections(t *testing.T) {
	slot := blueprint.Slot{Type: qschema.TypeShort, Marks: 2}
	b := NewGenerationBuilder(slot, nil)
	b.AddCorrection("options present on a non-MCQ question")
	b.AddCorrection("answer_guide is empty")
	p := b.Build()

	i := strings.Index(p, "<corrections>")
	if i < 0 {
		t.Fatal("corrections block missing after AddCorrection")
	}
	tail := p[i:]
	if !strings.Contains(tail, "- options present on a non-MCQ question") ||
		!strings.Contains(tail, "- answer_guide is empty") {
		t.Error("every recorded fault must appear in the corrections block")
	}
}

func TestGenerationBuilderInternalChoice(t *testing.T) {
	slot := blueprint.Slot{Type: qschema.TypeInternalChoice, Marks: 8}
	p := NewGenerationBuilder(slot, nil).Build()

	if !strings.Contains(p, "alternatives") || !strings.Contains(p, "exactly two alternatives") {
		t.Error("internal-choice contract must ask for two alternatives")
	}
}

func TestRevisionBuilder(t *testing.T) {
	q := &entity.Question{
		Number: 12,
		Type:   qschema.TypeShort,
		Text:   "Define photosynthesis.",
		Marks:  2,
	}
	p := NewRevisionBuilder(q, "Make it application-based rather than recall.", ranked("Plants convert light to energy.")).Build()

	for _, want := range []string{
		"<current_question>",
		"Define photosynthesis.",
		"Make it application-based rather than recall.",
		"same question type (short-answer question)",
		"same marks (2)",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("revision prompt missing %q", want)
		}
	}
}

func TestRevisionBuilderCorrections(t *testing.T) {
	q := &entity.Question{
		Number: 3,
		Type:   qschema.TypeMCQ,
		Text:   "Which word is a synonym of rapid?",
		Marks:  1,
	}
	b := NewRevisionBuilder(q, "Use a harder distractor set.", ranked("Rapid means fast."))

	first := b.Build()
	if strings.Contains(first, "<corrections>") {
		t.Error("fresh revision prompt must carry no corrections block")
	}

	b.AddCorrection("options must contain exactly 4 entries, got 3")
	b.AddCorrection("correct_option out of range")
	second := b.Build()

	for _, want := range []string{
		"<corrections>",
		"options must contain exactly 4 entries, got 3",
		"correct_option out of range",
	} {
		if !strings.Contains(second, want) {
			t.Errorf("retry prompt missing %q", want)
		}
	}
}

func TestChatBuilder(t *testing.T) {
	correct := 1
	q := &entity.Question{
		Number:        5,
		Type:          qschema.TypeMCQ,
		Text:          "Which word is a synonym of rapid?",
		Options:       []string{"slow", "fast", "late", "dull"},
		CorrectOption: &correct,
		Marks:         1,
	}
	p := NewChatBuilder("Why is option B correct?", ranked("Rapid means fast."), []*entity.Question{q}).Build()

	for _, want := range []string{
		"<study_material>",
		"<selected_questions>",
		"Q5 (1 marks):",
		"B) fast",
		"<student_question>",
		"Why is option B correct?",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("chat prompt missing %q", want)
		}
	}
}

func TestChatBuilderOmitsEmptyBlocks(t *testing.T) {
	p := NewChatBuilder("Hello", nil, nil).Build()

	if strings.Contains(p, "<study_material>") {
		t.Error("empty retrieval should omit the study material block")
	}
	if strings.Contains(p, "<selected_questions>") {
		t.Error("no selected questions should omit the questions block")
	}
}
