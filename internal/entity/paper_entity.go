package entity

import (
	"time"

	"examcraft-be/pkg/exam/flow"
	"examcraft-be/pkg/exam/qschema"

	"github.com/google/uuid"
)

// Paper is an ordered set of generated questions moving through the
// draft -> revised -> approved -> published lifecycle. Question content is
// mutated only through the revision subsystem.
type Paper struct {
	Id          uuid.UUID
	Title       string
	BlueprintId uuid.UUID
	Status      flow.PaperStatus
	TotalMarks  int
	FailedSlots int
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ApprovedAt  *time.Time
	PublishedAt *time.Time

	Questions []*Question
}

// Question is one numbered slot of a paper. A failed slot keeps its row with
// Failed set so the paper stays usable and the gap stays visible.
type Question struct {
	Id            uuid.UUID
	PaperId       uuid.UUID
	Number        int
	Part          string
	Section       string
	Type          qschema.QuestionType
	Text          string
	Options       []string
	CorrectOption *int
	AnswerGuide   string
	Alternatives  []qschema.Alternative
	Marks         int
	Provenance    []uuid.UUID // Chunk ids that informed the generation
	RevisionCount int
	Failed        bool
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Payload converts the question back into the generation schema shape, used
// for revision prompts and snapshots.
func (q *Question) Payload() *qschema.Payload {
	return &qschema.Payload{
		Text:          q.Text,
		Options:       q.Options,
		CorrectOption: q.CorrectOption,
		AnswerGuide:   q.AnswerGuide,
		Alternatives:  q.Alternatives,
	}
}

// ApplyPayload overwrites the question content from a validated generation
// payload, bumping the revision counter.
func (q *Question) ApplyPayload(p *qschema.Payload) {
	q.Text = p.Text
	q.Options = p.Options
	q.CorrectOption = p.CorrectOption
	q.AnswerGuide = p.AnswerGuide
	q.Alternatives = p.Alternatives
	q.Failed = false
	q.FailureReason = ""
	q.RevisionCount++
}
