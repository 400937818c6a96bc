package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Blueprint struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name       string         `gorm:"type:varchar(255);uniqueIndex;not null"`
	Definition datatypes.JSON `gorm:"type:jsonb;not null"`
	IsDefault  bool           `gorm:"default:false"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
}

func (Blueprint) TableName() string {
	return "blueprints"
}

type Paper struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title       string         `gorm:"type:varchar(255);not null"`
	BlueprintId uuid.UUID      `gorm:"type:uuid;not null;index"`
	Status      string         `gorm:"type:varchar(50);not null;default:'draft';index"`
	TotalMarks  int            `gorm:"not null"`
	FailedSlots int            `gorm:"default:0"`
	CreatedBy   uuid.UUID      `gorm:"type:uuid;not null;index"`
	ApprovedAt  *time.Time
	PublishedAt *time.Time
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Paper) TableName() string {
	return "papers"
}

type Question struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PaperId       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_questions_paper_number,priority:1"`
	Number        int            `gorm:"not null;uniqueIndex:idx_questions_paper_number,priority:2"`
	Part          string         `gorm:"type:varchar(20);not null"`
	Section       string         `gorm:"type:varchar(50)"`
	Type          string         `gorm:"type:varchar(50);not null"`
	Text          string         `gorm:"type:text"`
	Options       datatypes.JSON `gorm:"type:jsonb"`
	CorrectOption *int
	AnswerGuide   string         `gorm:"type:text"`
	Alternatives  datatypes.JSON `gorm:"type:jsonb"`
	Marks         int            `gorm:"not null"`
	Provenance    datatypes.JSON `gorm:"type:jsonb"`
	RevisionCount int            `gorm:"default:0"`
	Failed        bool           `gorm:"default:false"`
	FailureReason string         `gorm:"type:text"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
}

func (Question) TableName() string {
	return "questions"
}

// RevisionRecord rows are append-only; the unique index doubles as the
// guarantee that a sequence number is never written twice for a question.
type RevisionRecord struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PaperId        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_revisions_paper_question_seq,priority:1"`
	QuestionNumber int            `gorm:"not null;uniqueIndex:idx_revisions_paper_question_seq,priority:2"`
	Sequence       int            `gorm:"not null;uniqueIndex:idx_revisions_paper_question_seq,priority:3"`
	Feedback       string         `gorm:"type:text;not null"`
	Before         datatypes.JSON `gorm:"type:jsonb;not null"`
	After          datatypes.JSON `gorm:"type:jsonb;not null"`
	RevisedBy      uuid.UUID      `gorm:"type:uuid;not null"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
}

func (RevisionRecord) TableName() string {
	return "revision_records"
}
