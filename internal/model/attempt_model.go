package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ExamAttempt struct {
	Id                 uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PaperId            uuid.UUID      `gorm:"type:uuid;not null;index:idx_attempts_paper_student,priority:1"`
	StudentId          uuid.UUID      `gorm:"type:uuid;not null;index:idx_attempts_paper_student,priority:2"`
	Status             string         `gorm:"type:varchar(50);not null;default:'in_progress';index"`
	Answers            datatypes.JSON `gorm:"type:jsonb"`
	PendingReview      bool           `gorm:"default:false"`
	TotalAwarded       float64        `gorm:"default:0"`
	MaxMarks           float64        `gorm:"default:0"`
	Percentage         float64        `gorm:"default:0"`
	McqAwarded         float64        `gorm:"default:0"`
	DescriptiveAwarded float64        `gorm:"default:0"`
	StartedAt          time.Time      `gorm:"not null"`
	SubmittedAt        *time.Time
	EvaluatedAt        *time.Time
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

type AnswerEvaluation struct {
	Id                 uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AttemptId          uuid.UUID `gorm:"type:uuid;not null;index"`
	QuestionId         uuid.UUID `gorm:"type:uuid;not null"`
	QuestionNumber     int       `gorm:"not null"`
	StudentAnswer      string    `gorm:"type:text"`
	ReferenceAnswer    string    `gorm:"type:text"`
	Correct            *bool
	KeySimilarity      *float64
	SourceSimilarity   *float64
	CombinedSimilarity *float64
	Verdict            string    `gorm:"type:varchar(50);not null"`
	MarksAwarded       float64   `gorm:"default:0"`
	MaxMarks           float64   `gorm:"default:0"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
}

func (AnswerEvaluation) TableName() string {
	return "answer_evaluations"
}
