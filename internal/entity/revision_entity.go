package entity

import (
	"time"

	"examcraft-be/pkg/exam/qschema"

	"github.com/google/uuid"
)

// RevisionRecord is one append-only audit entry: the feedback given for a
// question plus its content before and after regeneration. Sequence numbers
// are gap-free from 1 per (paper, question) and never reused.
type RevisionRecord struct {
	Id             uuid.UUID
	PaperId        uuid.UUID
	QuestionNumber int
	Sequence       int
	Feedback       string
	Before         qschema.Payload
	After          qschema.Payload
	RevisedBy      uuid.UUID
	CreatedAt      time.Time
}
