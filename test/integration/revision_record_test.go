package integration

import (
	"context"
	"errors"
	"os"
	"testing"

	"examcraft-be/internal/entity"
	"examcraft-be/internal/repository/unitofwork"
	"examcraft-be/pkg/database"
	"examcraft-be/pkg/exam/qschema"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Revision sequences come from a subselect in the INSERT, guarded by a
// unique index. Sequential creates must number 1, 2, ... and a forced
// collision must surface as gorm.ErrDuplicatedKey so callers can rerun the
// transaction.
func TestRevisionRecordSequence(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(db)
	uow := uowFactory.NewUnitOfWork(ctx)
	repo := uow.RevisionRecordRepository()

	paperId := uuid.New()
	revisedBy := uuid.New()
	defer db.Exec("DELETE FROM revision_records WHERE paper_id = ?", paperId)

	newRecord := func() *entity.RevisionRecord {
		return &entity.RevisionRecord{
			Id:             uuid.New(),
			PaperId:        paperId,
			QuestionNumber: 4,
			Feedback:       "Tighten the wording.",
			Before:         qschema.Payload{Text: "Old text."},
			After:          qschema.Payload{Text: "New text."},
			RevisedBy:      revisedBy,
		}
	}

	first := newRecord()
	require.NoError(t, repo.Create(ctx, first))
	assert.Equal(t, 1, first.Sequence)

	second := newRecord()
	require.NoError(t, repo.Create(ctx, second))
	assert.Equal(t, 2, second.Sequence)

	// Force the collision the subselect normally avoids and check the
	// driver error comes back in translated form.
	err = db.Exec(`
		INSERT INTO revision_records (id, paper_id, question_number, sequence, feedback, before, after, revised_by, created_at)
		VALUES (?, ?, 4, 2, '', '{}', '{}', ?, NOW())
	`, uuid.New(), paperId, revisedBy).Error
	if assert.Error(t, err) {
		assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "duplicate sequence must translate to gorm.ErrDuplicatedKey, got %v", err)
	}
}
