package implementation

import (
	"context"
	"errors"

	"examcraft-be/internal/entity"
	"examcraft-be/internal/mapper"
	"examcraft-be/internal/model"
	"examcraft-be/internal/repository/contract"
	"examcraft-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BlueprintRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PaperMapper
}

func NewBlueprintRepository(db *gorm.DB) contract.BlueprintRepository {
	return &BlueprintRepositoryImpl{
		db:     db,
		mapper: mapper.NewPaperMapper(),
	}
}

func (r *BlueprintRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *BlueprintRepositoryImpl) Create(ctx context.Context, bp *entity.Blueprint) error {
	m := r.mapper.BlueprintToModel(bp)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*bp = *r.mapper.BlueprintToEntity(m)
	return nil
}

func (r *BlueprintRepositoryImpl) Update(ctx context.Context, bp *entity.Blueprint) error {
	m := r.mapper.BlueprintToModel(bp)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*bp = *r.mapper.BlueprintToEntity(m)
	return nil
}

func (r *BlueprintRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Blueprint{}, id).Error
}

func (r *BlueprintRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Blueprint, error) {
	var m model.Blueprint
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.BlueprintToEntity(&m), nil
}

func (r *BlueprintRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Blueprint, error) {
	var models []*model.Blueprint
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Blueprint, len(models))
	for i, m := range models {
		entities[i] = r.mapper.BlueprintToEntity(m)
	}
	return entities, nil
}

func (r *BlueprintRepositoryImpl) FindDefault(ctx context.Context) (*entity.Blueprint, error) {
	var m model.Blueprint
	if err := r.db.WithContext(ctx).Where("is_default = ?", true).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.BlueprintToEntity(&m), nil
}

type PaperRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PaperMapper
}

func NewPaperRepository(db *gorm.DB) contract.PaperRepository {
	return &PaperRepositoryImpl{
		db:     db,
		mapper: mapper.NewPaperMapper(),
	}
}

func (r *PaperRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *PaperRepositoryImpl) Create(ctx context.Context, paper *entity.Paper) error {
	m := r.mapper.PaperToModel(paper)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	questions := paper.Questions
	*paper = *r.mapper.PaperToEntity(m)
	paper.Questions = questions
	return nil
}

func (r *PaperRepositoryImpl) Update(ctx context.Context, paper *entity.Paper) error {
	m := r.mapper.PaperToModel(paper)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	questions := paper.Questions
	*paper = *r.mapper.PaperToEntity(m)
	paper.Questions = questions
	return nil
}

func (r *PaperRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Paper{}, id).Error
}

func (r *PaperRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Paper, error) {
	var m model.Paper
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.PaperToEntity(&m), nil
}

func (r *PaperRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Paper, error) {
	var models []*model.Paper
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Paper, len(models))
	for i, m := range models {
		entities[i] = r.mapper.PaperToEntity(m)
	}
	return entities, nil
}

func (r *PaperRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Paper{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

func (r *PaperRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).Model(&model.Paper{}).Where("id = ?", id).Update("status", status).Error
}

type QuestionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PaperMapper
}

func NewQuestionRepository(db *gorm.DB) contract.QuestionRepository {
	return &QuestionRepositoryImpl{
		db:     db,
		mapper: mapper.NewPaperMapper(),
	}
}

func (r *QuestionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *QuestionRepositoryImpl) Create(ctx context.Context, question *entity.Question) error {
	m := r.mapper.QuestionToModel(question)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*question = *r.mapper.QuestionToEntity(m)
	return nil
}

func (r *QuestionRepositoryImpl) CreateBulk(ctx context.Context, questions []*entity.Question) error {
	if len(questions) == 0 {
		return nil
	}
	models := make([]*model.Question, len(questions))
	for i, q := range questions {
		models[i] = r.mapper.QuestionToModel(q)
	}
	if err := r.db.WithContext(ctx).CreateInBatches(models, 50).Error; err != nil {
		return err
	}
	for i, m := range models {
		*questions[i] = *r.mapper.QuestionToEntity(m)
	}
	return nil
}

func (r *QuestionRepositoryImpl) Update(ctx context.Context, question *entity.Question) error {
	m := r.mapper.QuestionToModel(question)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*question = *r.mapper.QuestionToEntity(m)
	return nil
}

func (r *QuestionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Question, error) {
	var m model.Question
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.QuestionToEntity(&m), nil
}

func (r *QuestionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Question, error) {
	var models []*model.Question
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.QuestionsToEntities(models), nil
}

func (r *QuestionRepositoryImpl) FindByPaperId(ctx context.Context, paperId uuid.UUID) ([]*entity.Question, error) {
	var models []*model.Question
	err := r.db.WithContext(ctx).
		Where("paper_id = ?", paperId).
		Order("number ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.QuestionsToEntities(models), nil
}

func (r *QuestionRepositoryImpl) DeleteByPaperId(ctx context.Context, paperId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("paper_id = ?", paperId).Delete(&model.Question{}).Error
}

type RevisionRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PaperMapper
}

func NewRevisionRecordRepository(db *gorm.DB) contract.RevisionRecordRepository {
	return &RevisionRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewPaperMapper(),
	}
}

func (r *RevisionRecordRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// Create computes the sequence with a subselect in the INSERT itself. Two
// concurrent revisions of the same question then collide on the unique
// index instead of silently sharing a sequence. The collision surfaces as
// gorm.ErrDuplicatedKey; the caller retries the whole transaction, since a
// Postgres transaction that hit the violation is already aborted.
func (r *RevisionRecordRepositoryImpl) Create(ctx context.Context, record *entity.RevisionRecord) error {
	m := r.mapper.RevisionToModel(record)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}

	err := r.db.WithContext(ctx).Exec(`
		INSERT INTO revision_records (id, paper_id, question_number, sequence, feedback, before, after, revised_by, created_at)
		SELECT ?, ?, ?, COALESCE(MAX(sequence), 0) + 1, ?, ?, ?, ?, NOW()
		FROM revision_records
		WHERE paper_id = ? AND question_number = ?
	`, m.Id, m.PaperId, m.QuestionNumber, m.Feedback, m.Before, m.After, m.RevisedBy,
		m.PaperId, m.QuestionNumber).Error
	if err != nil {
		return err
	}

	var saved model.RevisionRecord
	if err := r.db.WithContext(ctx).First(&saved, "id = ?", m.Id).Error; err != nil {
		return err
	}
	*record = *r.mapper.RevisionToEntity(&saved)
	return nil
}

func (r *RevisionRecordRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RevisionRecord, error) {
	var models []*model.RevisionRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Order("question_number ASC, sequence ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.RevisionRecord, len(models))
	for i, m := range models {
		entities[i] = r.mapper.RevisionToEntity(m)
	}
	return entities, nil
}

func (r *RevisionRecordRepositoryImpl) CountByPaper(ctx context.Context, paperId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.RevisionRecord{}).Where("paper_id = ?", paperId).Count(&count).Error
	return count, err
}
