package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BySourceType struct {
	SourceType string
}

func (s BySourceType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source_type = ?", s.SourceType)
}

type ByDocumentID struct {
	DocumentID uuid.UUID
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentID)
}

type ByUnit struct {
	Unit string
}

func (s ByUnit) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("unit = ?", s.Unit)
}

type ByDocumentStatus struct {
	Status string
}

func (s ByDocumentStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}
