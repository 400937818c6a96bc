package mapper

import (
	"encoding/json"

	"examcraft-be/internal/entity"
	"examcraft-be/internal/model"

	"gorm.io/datatypes"
)

type EvaluationMapper struct{}

func NewEvaluationMapper() *EvaluationMapper {
	return &EvaluationMapper{}
}

func (m *EvaluationMapper) RunToEntity(r *model.EvaluationRun) *entity.EvaluationRun {
	if r == nil {
		return nil
	}
	var scope []string
	_ = json.Unmarshal(r.Scope, &scope)
	var aggregates map[string]float64
	_ = json.Unmarshal(r.MetricAggregates, &aggregates)

	return &entity.EvaluationRun{
		Id:               r.Id,
		Target:           entity.EvalTarget(r.Target),
		Status:           entity.EvalRunStatus(r.Status),
		PaperId:          r.PaperId,
		Scope:            scope,
		MetricAggregates: aggregates,
		OverallScore:     r.OverallScore,
		SampleCount:      r.SampleCount,
		StartedAt:        r.StartedAt,
		CompletedAt:      r.CompletedAt,
	}
}

func (m *EvaluationMapper) RunToModel(r *entity.EvaluationRun) *model.EvaluationRun {
	if r == nil {
		return nil
	}
	scope, _ := json.Marshal(r.Scope)
	aggregates, _ := json.Marshal(r.MetricAggregates)

	return &model.EvaluationRun{
		Id:               r.Id,
		Target:           string(r.Target),
		Status:           string(r.Status),
		PaperId:          r.PaperId,
		Scope:            datatypes.JSON(scope),
		MetricAggregates: datatypes.JSON(aggregates),
		OverallScore:     r.OverallScore,
		SampleCount:      r.SampleCount,
		StartedAt:        r.StartedAt,
		CompletedAt:      r.CompletedAt,
	}
}

func (m *EvaluationMapper) RunsToEntities(runs []*model.EvaluationRun) []*entity.EvaluationRun {
	entities := make([]*entity.EvaluationRun, len(runs))
	for i, r := range runs {
		entities[i] = m.RunToEntity(r)
	}
	return entities
}

func (m *EvaluationMapper) SampleToEntity(s *model.EvaluationSample) *entity.EvaluationSample {
	if s == nil {
		return nil
	}
	return &entity.EvaluationSample{
		Id:          s.Id,
		RunId:       s.RunId,
		SampleRef:   s.SampleRef,
		Metric:      s.Metric,
		Score:       s.Score,
		Explanation: s.Explanation,
		Error:       s.Error,
		CreatedAt:   s.CreatedAt,
	}
}

func (m *EvaluationMapper) SampleToModel(s *entity.EvaluationSample) *model.EvaluationSample {
	if s == nil {
		return nil
	}
	return &model.EvaluationSample{
		Id:          s.Id,
		RunId:       s.RunId,
		SampleRef:   s.SampleRef,
		Metric:      s.Metric,
		Score:       s.Score,
		Explanation: s.Explanation,
		Error:       s.Error,
		CreatedAt:   s.CreatedAt,
	}
}

func (m *EvaluationMapper) SamplesToEntities(samples []*model.EvaluationSample) []*entity.EvaluationSample {
	entities := make([]*entity.EvaluationSample, len(samples))
	for i, s := range samples {
		entities[i] = m.SampleToEntity(s)
	}
	return entities
}
