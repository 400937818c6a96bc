package mapper

import (
	"encoding/json"

	"examcraft-be/internal/entity"
	"examcraft-be/internal/model"
	"examcraft-be/pkg/exam/flow"
	"examcraft-be/pkg/exam/grade"

	"gorm.io/datatypes"
)

type AttemptMapper struct{}

func NewAttemptMapper() *AttemptMapper {
	return &AttemptMapper{}
}

func (m *AttemptMapper) ToEntity(a *model.ExamAttempt) *entity.ExamAttempt {
	if a == nil {
		return nil
	}
	var answers []entity.SubmittedAnswer
	_ = json.Unmarshal(a.Answers, &answers)

	return &entity.ExamAttempt{
		Id:                 a.Id,
		PaperId:            a.PaperId,
		StudentId:          a.StudentId,
		Status:             flow.AttemptStatus(a.Status),
		Answers:            answers,
		StartedAt:          a.StartedAt,
		SubmittedAt:        a.SubmittedAt,
		EvaluatedAt:        a.EvaluatedAt,
		PendingReview:      a.PendingReview,
		TotalAwarded:       a.TotalAwarded,
		MaxMarks:           a.MaxMarks,
		Percentage:         a.Percentage,
		McqAwarded:         a.McqAwarded,
		DescriptiveAwarded: a.DescriptiveAwarded,
	}
}

func (m *AttemptMapper) ToModel(a *entity.ExamAttempt) *model.ExamAttempt {
	if a == nil {
		return nil
	}
	answers, _ := json.Marshal(a.Answers)

	return &model.ExamAttempt{
		Id:                 a.Id,
		PaperId:            a.PaperId,
		StudentId:          a.StudentId,
		Status:             string(a.Status),
		Answers:            datatypes.JSON(answers),
		StartedAt:          a.StartedAt,
		SubmittedAt:        a.SubmittedAt,
		EvaluatedAt:        a.EvaluatedAt,
		PendingReview:      a.PendingReview,
		TotalAwarded:       a.TotalAwarded,
		MaxMarks:           a.MaxMarks,
		Percentage:         a.Percentage,
		McqAwarded:         a.McqAwarded,
		DescriptiveAwarded: a.DescriptiveAwarded,
	}
}

func (m *AttemptMapper) ToEntities(attempts []*model.ExamAttempt) []*entity.ExamAttempt {
	entities := make([]*entity.ExamAttempt, len(attempts))
	for i, a := range attempts {
		entities[i] = m.ToEntity(a)
	}
	return entities
}

func (m *AttemptMapper) EvaluationToEntity(e *model.AnswerEvaluation) *entity.AnswerEvaluation {
	if e == nil {
		return nil
	}
	return &entity.AnswerEvaluation{
		Id:                 e.Id,
		AttemptId:          e.AttemptId,
		QuestionId:         e.QuestionId,
		QuestionNumber:     e.QuestionNumber,
		StudentAnswer:      e.StudentAnswer,
		ReferenceAnswer:    e.ReferenceAnswer,
		Correct:            e.Correct,
		KeySimilarity:      e.KeySimilarity,
		SourceSimilarity:   e.SourceSimilarity,
		CombinedSimilarity: e.CombinedSimilarity,
		Verdict:            grade.Verdict(e.Verdict),
		MarksAwarded:       e.MarksAwarded,
		MaxMarks:           e.MaxMarks,
		CreatedAt:          e.CreatedAt,
	}
}

func (m *AttemptMapper) EvaluationToModel(e *entity.AnswerEvaluation) *model.AnswerEvaluation {
	if e == nil {
		return nil
	}
	return &model.AnswerEvaluation{
		Id:                 e.Id,
		AttemptId:          e.AttemptId,
		QuestionId:         e.QuestionId,
		QuestionNumber:     e.QuestionNumber,
		StudentAnswer:      e.StudentAnswer,
		ReferenceAnswer:    e.ReferenceAnswer,
		Correct:            e.Correct,
		KeySimilarity:      e.KeySimilarity,
		SourceSimilarity:   e.SourceSimilarity,
		CombinedSimilarity: e.CombinedSimilarity,
		Verdict:            string(e.Verdict),
		MarksAwarded:       e.MarksAwarded,
		MaxMarks:           e.MaxMarks,
		CreatedAt:          e.CreatedAt,
	}
}

func (m *AttemptMapper) EvaluationsToEntities(evals []*model.AnswerEvaluation) []*entity.AnswerEvaluation {
	entities := make([]*entity.AnswerEvaluation, len(evals))
	for i, e := range evals {
		entities[i] = m.EvaluationToEntity(e)
	}
	return entities
}
