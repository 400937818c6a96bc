package entity

import (
	"time"

	"examcraft-be/pkg/exam/blueprint"

	"github.com/google/uuid"
)

// Blueprint is a stored exam structure definition. The default blueprint
// drives paper generation when no explicit one is requested.
type Blueprint struct {
	Id         uuid.UUID
	Name       string
	Definition blueprint.Definition
	IsDefault  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
