package prompt

import (
	"fmt"
	"strings"

	"examcraft-be/internal/entity"
	"examcraft-be/pkg/exam/blueprint"
	"examcraft-be/pkg/exam/qschema"
	"examcraft-be/pkg/rag/fusion"
)

// GenerationBuilder assembles the prompt for one question slot. The output
// contract is strict JSON; the shape depends on the slot's question type.
type GenerationBuilder struct {
	slot    blueprint.Slot
	context []fusion.Ranked
	faults  []string
}

func NewGenerationBuilder(slot blueprint.Slot, context []fusion.Ranked) *GenerationBuilder {
	return &GenerationBuilder{slot: slot, context: context}
}

// AddCorrection records a schema violation from a failed attempt. The next
// Build appends it as an explicit instruction, so retries converge instead
// of repeating the same malformed shape.
func (b *GenerationBuilder) AddCorrection(reason string) {
	b.faults = append(b.faults, reason)
}

func (b *GenerationBuilder) Build() string {
	var p strings.Builder

	b.writeContext(&p)
	b.writeTask(&p)
	b.writeOutputContract(&p)
	b.writeCorrections(&p)

	p.WriteString("Respond with the JSON object only. No commentary, no markdown fences.")
	return p.String()
}

func (b *GenerationBuilder) writeContext(p *strings.Builder) {
	p.WriteString("<source_material>\n")
	for i, c := range b.context {
		p.WriteString(fmt.Sprintf("[%d] ", i+1))
		p.WriteString(c.Text)
		p.WriteString("\n\n")
	}
	p.WriteString("</source_material>\n\n")
}

func (b *GenerationBuilder) writeTask(p *strings.Builder) {
	p.WriteString("<task>\n")
	p.WriteString("You are an experienced examiner setting a question for a formal written exam.\n")
	p.WriteString(fmt.Sprintf("Write one %s worth %d mark(s).\n", typeLabel(b.slot.Type), b.slot.Marks))
	if b.slot.Topic != "" {
		p.WriteString(fmt.Sprintf("The question must cover the topic: %s.\n", b.slot.Topic))
	}
	if b.slot.Unit != "" {
		p.WriteString(fmt.Sprintf("Draw only on material from %s.\n", b.slot.Unit))
	}
	p.WriteString("The question must be answerable entirely from the source material above.\n")
	p.WriteString("Match the difficulty to the marks: low marks mean recall, high marks mean analysis.\n")
	p.WriteString("</task>\n\n")
}

func (b *GenerationBuilder) writeOutputContract(p *strings.Builder) {
	p.WriteString("<output_format>\n")
	p.WriteString("Return a single JSON object with exactly these fields:\n")

	switch b.slot.Type {
	case qschema.TypeMCQ:
		p.WriteString(`{"question_text": "...", "options": ["...", "...", "...", "..."], "correct_option": 0}` + "\n")
		p.WriteString("Provide exactly four options. correct_option is the zero-based index of the right answer.\n")
		p.WriteString("Distractors must be plausible and drawn from the same material.\n")
	case qschema.TypeShort:
		p.WriteString(`{"question_text": "...", "answer_guide": "..."}` + "\n")
		p.WriteString("answer_guide lists the points a full answer must contain, in two or three sentences.\n")
	case qschema.TypeLong:
		p.WriteString(`{"question_text": "...", "answer_guide": "..."}` + "\n")
		p.WriteString("answer_guide is a model answer outline covering every point an examiner would award marks for.\n")
	case qschema.TypeInternalChoice:
		p.WriteString(`{"alternatives": [{"label": "a", "question_text": "...", "answer_guide": "..."}, {"label": "b", "question_text": "...", "answer_guide": "..."}]}` + "\n")
		p.WriteString("Provide exactly two alternatives of equal difficulty on related topics. The student answers one.\n")
	}

	p.WriteString("</output_format>\n\n")
}

func (b *GenerationBuilder) writeCorrections(p *strings.Builder) {
	if len(b.faults) == 0 {
		return
	}
	p.WriteString("<corrections>\n")
	p.WriteString("Your previous attempt was rejected. Fix these problems:\n")
	for _, f := range b.faults {
		p.WriteString("- ")
		p.WriteString(f)
		p.WriteString("\n")
	}
	p.WriteString("</corrections>\n\n")
}

// RevisionBuilder assembles the prompt that rewrites an existing question
// according to instructor feedback, preserving its structural slot.
type RevisionBuilder struct {
	question *entity.Question
	feedback string
	context  []fusion.Ranked
	faults   []string
}

func NewRevisionBuilder(question *entity.Question, feedback string, context []fusion.Ranked) *RevisionBuilder {
	return &RevisionBuilder{question: question, feedback: feedback, context: context}
}

// AddCorrection records a schema violation from a failed attempt, same as on
// the generation side: the next Build tells the model what to fix.
func (b *RevisionBuilder) AddCorrection(reason string) {
	b.faults = append(b.faults, reason)
}

func (b *RevisionBuilder) Build() string {
	var p strings.Builder

	p.WriteString("<source_material>\n")
	for i, c := range b.context {
		p.WriteString(fmt.Sprintf("[%d] ", i+1))
		p.WriteString(c.Text)
		p.WriteString("\n\n")
	}
	p.WriteString("</source_material>\n\n")

	p.WriteString("<current_question>\n")
	writeQuestion(&p, b.question)
	p.WriteString("</current_question>\n\n")

	p.WriteString("<task>\n")
	p.WriteString("You are an experienced examiner revising a draft exam question.\n")
	p.WriteString("Rewrite the question above according to this instructor feedback:\n")
	p.WriteString(b.feedback)
	p.WriteString("\n")
	p.WriteString(fmt.Sprintf("Keep the same question type (%s) and the same marks (%d).\n",
		typeLabel(b.question.Type), b.question.Marks))
	p.WriteString("The revised question must still be answerable from the source material.\n")
	p.WriteString("</task>\n\n")

	if len(b.faults) > 0 {
		p.WriteString("<corrections>\n")
		p.WriteString("Your previous attempt was rejected. Fix these problems:\n")
		for _, f := range b.faults {
			p.WriteString("- ")
			p.WriteString(f)
			p.WriteString("\n")
		}
		p.WriteString("</corrections>\n\n")
	}

	p.WriteString("Return the revised question as a JSON object in the same shape as the current question. JSON only, no commentary.")
	return p.String()
}

// ChatBuilder assembles the grounding prompt for one chat turn. History is
// carried separately as llm.Message turns; this builds only the system-style
// grounding preamble plus the user's question.
type ChatBuilder struct {
	query     string
	context   []fusion.Ranked
	questions []*entity.Question
}

func NewChatBuilder(query string, context []fusion.Ranked, questions []*entity.Question) *ChatBuilder {
	return &ChatBuilder{query: query, context: context, questions: questions}
}

func (b *ChatBuilder) Build() string {
	var p strings.Builder

	if len(b.context) > 0 {
		p.WriteString("<study_material>\n")
		for i, c := range b.context {
			p.WriteString(fmt.Sprintf("[%d] ", i+1))
			p.WriteString(c.Text)
			p.WriteString("\n\n")
		}
		p.WriteString("</study_material>\n\n")
	}

	if len(b.questions) > 0 {
		p.WriteString("<selected_questions>\n")
		p.WriteString("The student is asking about these exam questions:\n\n")
		for _, q := range b.questions {
			p.WriteString(fmt.Sprintf("Q%d (%d marks): ", q.Number, q.Marks))
			writeQuestion(&p, q)
			p.WriteString("\n")
		}
		p.WriteString("</selected_questions>\n\n")
	}

	p.WriteString("<task>\n")
	p.WriteString("You are a patient subject tutor helping a student prepare for an exam.\n")
	p.WriteString("Answer using the study material above. When the material does not cover the question, say so plainly instead of guessing.\n")
	p.WriteString("Explain reasoning step by step at a level a student can follow.\n")
	p.WriteString("Never reveal that you are working from retrieved excerpts; present the knowledge directly.\n")
	p.WriteString("</task>\n\n")

	p.WriteString("<student_question>\n")
	p.WriteString(b.query)
	p.WriteString("\n</student_question>\n\n")
	p.WriteString("Now answer the student:")
	return p.String()
}

func writeQuestion(p *strings.Builder, q *entity.Question) {
	if len(q.Alternatives) > 0 {
		for _, alt := range q.Alternatives {
			p.WriteString(fmt.Sprintf("(%s) %s\n", alt.Label, alt.Text))
		}
		return
	}
	p.WriteString(q.Text)
	p.WriteString("\n")
	for i, opt := range q.Options {
		p.WriteString(fmt.Sprintf("  %c) %s\n", 'A'+i, opt))
	}
}

func typeLabel(t qschema.QuestionType) string {
	switch t {
	case qschema.TypeMCQ:
		return "multiple-choice question"
	case qschema.TypeShort:
		return "short-answer question"
	case qschema.TypeLong:
		return "long-answer question"
	case qschema.TypeInternalChoice:
		return "question with an internal choice of two alternatives"
	default:
		return string(t)
	}
}
