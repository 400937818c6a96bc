package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type EvaluationRun struct {
	Id               uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Target           string         `gorm:"type:varchar(50);not null;index"`
	Status           string         `gorm:"type:varchar(50);not null;default:'running'"`
	PaperId          *uuid.UUID     `gorm:"type:uuid"`
	Scope            datatypes.JSON `gorm:"type:jsonb"`
	MetricAggregates datatypes.JSON `gorm:"type:jsonb"`
	OverallScore     float64        `gorm:"default:0"`
	SampleCount      int            `gorm:"default:0"`
	StartedAt        time.Time      `gorm:"not null"`
	CompletedAt      *time.Time
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

func (EvaluationRun) TableName() string {
	return "evaluation_runs"
}

type EvaluationSample struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RunId       uuid.UUID `gorm:"type:uuid;not null;index"`
	SampleRef   string    `gorm:"type:varchar(100);not null"`
	Metric      string    `gorm:"type:varchar(50);not null"`
	Score       float64   `gorm:"default:0"`
	Explanation string    `gorm:"type:text"`
	Error       string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (EvaluationSample) TableName() string {
	return "evaluation_samples"
}
