package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByPaperID struct {
	PaperID uuid.UUID
}

func (s ByPaperID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("paper_id = ?", s.PaperID)
}

type ByStudentID struct {
	StudentID uuid.UUID
}

func (s ByStudentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("student_id = ?", s.StudentID)
}

type ByAttemptID struct {
	AttemptID uuid.UUID
}

func (s ByAttemptID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("attempt_id = ?", s.AttemptID)
}

type ByPaperStatus struct {
	Status string
}

func (s ByPaperStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

type ByQuestionNumber struct {
	Number int
}

func (s ByQuestionNumber) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("number = ?", s.Number)
}

type CreatedByUser struct {
	UserID uuid.UUID
}

func (s CreatedByUser) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_by = ?", s.UserID)
}

type ByRunID struct {
	RunID uuid.UUID
}

func (s ByRunID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("run_id = ?", s.RunID)
}

// InProgressSince matches attempts still open past the given cutoff, used by
// the auto-submit sweep.
type InProgressSince struct {
	Cutoff time.Time
}

func (s InProgressSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ? AND started_at < ?", "in_progress", s.Cutoff)
}
