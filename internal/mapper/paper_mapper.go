package mapper

import (
	"encoding/json"

	"examcraft-be/internal/entity"
	"examcraft-be/internal/model"
	"examcraft-be/pkg/exam/blueprint"
	"examcraft-be/pkg/exam/flow"
	"examcraft-be/pkg/exam/qschema"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PaperMapper converts between the exam aggregates and their persistence
// shapes. Options, alternatives, provenance and snapshots travel as JSONB;
// a malformed column decodes to the zero value rather than an error since
// these rows are only ever written through the same marshalling.
type PaperMapper struct{}

func NewPaperMapper() *PaperMapper {
	return &PaperMapper{}
}

func (m *PaperMapper) BlueprintToEntity(b *model.Blueprint) *entity.Blueprint {
	if b == nil {
		return nil
	}
	var def blueprint.Definition
	_ = json.Unmarshal(b.Definition, &def)
	return &entity.Blueprint{
		Id:         b.Id,
		Name:       b.Name,
		Definition: def,
		IsDefault:  b.IsDefault,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func (m *PaperMapper) BlueprintToModel(b *entity.Blueprint) *model.Blueprint {
	if b == nil {
		return nil
	}
	def, _ := json.Marshal(b.Definition)
	return &model.Blueprint{
		Id:         b.Id,
		Name:       b.Name,
		Definition: datatypes.JSON(def),
		IsDefault:  b.IsDefault,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func (m *PaperMapper) PaperToEntity(p *model.Paper) *entity.Paper {
	if p == nil {
		return nil
	}
	return &entity.Paper{
		Id:          p.Id,
		Title:       p.Title,
		BlueprintId: p.BlueprintId,
		Status:      flow.PaperStatus(p.Status),
		TotalMarks:  p.TotalMarks,
		FailedSlots: p.FailedSlots,
		CreatedBy:   p.CreatedBy,
		ApprovedAt:  p.ApprovedAt,
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (m *PaperMapper) PaperToModel(p *entity.Paper) *model.Paper {
	if p == nil {
		return nil
	}
	return &model.Paper{
		Id:          p.Id,
		Title:       p.Title,
		BlueprintId: p.BlueprintId,
		Status:      string(p.Status),
		TotalMarks:  p.TotalMarks,
		FailedSlots: p.FailedSlots,
		CreatedBy:   p.CreatedBy,
		ApprovedAt:  p.ApprovedAt,
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (m *PaperMapper) QuestionToEntity(q *model.Question) *entity.Question {
	if q == nil {
		return nil
	}
	var options []string
	_ = json.Unmarshal(q.Options, &options)
	var alternatives []qschema.Alternative
	_ = json.Unmarshal(q.Alternatives, &alternatives)
	var provenance []uuid.UUID
	_ = json.Unmarshal(q.Provenance, &provenance)

	return &entity.Question{
		Id:            q.Id,
		PaperId:       q.PaperId,
		Number:        q.Number,
		Part:          q.Part,
		Section:       q.Section,
		Type:          qschema.QuestionType(q.Type),
		Text:          q.Text,
		Options:       options,
		CorrectOption: q.CorrectOption,
		AnswerGuide:   q.AnswerGuide,
		Alternatives:  alternatives,
		Marks:         q.Marks,
		Provenance:    provenance,
		RevisionCount: q.RevisionCount,
		Failed:        q.Failed,
		FailureReason: q.FailureReason,
		CreatedAt:     q.CreatedAt,
		UpdatedAt:     q.UpdatedAt,
	}
}

func (m *PaperMapper) QuestionToModel(q *entity.Question) *model.Question {
	if q == nil {
		return nil
	}
	options, _ := json.Marshal(q.Options)
	alternatives, _ := json.Marshal(q.Alternatives)
	provenance, _ := json.Marshal(q.Provenance)

	return &model.Question{
		Id:            q.Id,
		PaperId:       q.PaperId,
		Number:        q.Number,
		Part:          q.Part,
		Section:       q.Section,
		Type:          string(q.Type),
		Text:          q.Text,
		Options:       datatypes.JSON(options),
		CorrectOption: q.CorrectOption,
		AnswerGuide:   q.AnswerGuide,
		Alternatives:  datatypes.JSON(alternatives),
		Marks:         q.Marks,
		Provenance:    datatypes.JSON(provenance),
		RevisionCount: q.RevisionCount,
		Failed:        q.Failed,
		FailureReason: q.FailureReason,
		CreatedAt:     q.CreatedAt,
		UpdatedAt:     q.UpdatedAt,
	}
}

func (m *PaperMapper) QuestionsToEntities(questions []*model.Question) []*entity.Question {
	entities := make([]*entity.Question, len(questions))
	for i, q := range questions {
		entities[i] = m.QuestionToEntity(q)
	}
	return entities
}

func (m *PaperMapper) RevisionToEntity(r *model.RevisionRecord) *entity.RevisionRecord {
	if r == nil {
		return nil
	}
	var before, after qschema.Payload
	_ = json.Unmarshal(r.Before, &before)
	_ = json.Unmarshal(r.After, &after)

	return &entity.RevisionRecord{
		Id:             r.Id,
		PaperId:        r.PaperId,
		QuestionNumber: r.QuestionNumber,
		Sequence:       r.Sequence,
		Feedback:       r.Feedback,
		Before:         before,
		After:          after,
		RevisedBy:      r.RevisedBy,
		CreatedAt:      r.CreatedAt,
	}
}

func (m *PaperMapper) RevisionToModel(r *entity.RevisionRecord) *model.RevisionRecord {
	if r == nil {
		return nil
	}
	before, _ := json.Marshal(r.Before)
	after, _ := json.Marshal(r.After)

	return &model.RevisionRecord{
		Id:             r.Id,
		PaperId:        r.PaperId,
		QuestionNumber: r.QuestionNumber,
		Sequence:       r.Sequence,
		Feedback:       r.Feedback,
		Before:         datatypes.JSON(before),
		After:          datatypes.JSON(after),
		RevisedBy:      r.RevisedBy,
		CreatedAt:      r.CreatedAt,
	}
}
