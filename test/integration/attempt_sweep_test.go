package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"examcraft-be/internal/model"
	"examcraft-be/internal/repository/unitofwork"
	"examcraft-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The sweep has two legs: auto-submit for attempts that outlived the exam
// window, and grading re-enqueue for attempts whose grading message was lost.
// A submitted attempt past the grace period must surface in the second leg,
// and only there.
func TestAttemptSweepQueries(t *testing.T) {
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

	paperId := uuid.New()
	studentId := uuid.New()
	now := time.Now()
	longAgo := now.Add(-4 * time.Hour)
	justNow := now.Add(-1 * time.Minute)

	abandoned := model.ExamAttempt{
		Id: uuid.New(), PaperId: paperId, StudentId: studentId,
		Status: "in_progress", StartedAt: longAgo,
	}
	stuck := model.ExamAttempt{
		Id: uuid.New(), PaperId: paperId, StudentId: studentId,
		Status: "submitted", StartedAt: longAgo, SubmittedAt: &longAgo,
	}
	fresh := model.ExamAttempt{
		Id: uuid.New(), PaperId: paperId, StudentId: studentId,
		Status: "submitted", StartedAt: longAgo, SubmittedAt: &justNow,
	}
	for _, m := range []*model.ExamAttempt{&abandoned, &stuck, &fresh} {
		require.NoError(t, db.Create(m).Error)
	}
	defer db.Where("paper_id = ?", paperId).Delete(&model.ExamAttempt{})

	uow := uowFactory.NewUnitOfWork(ctx)
	repo := uow.ExamAttemptRepository()

	stale, err := repo.FindStale(ctx, now.Add(-3*time.Hour), 100)
	require.NoError(t, err)
	staleIds := make(map[uuid.UUID]bool)
	for _, a := range stale {
		staleIds[a.Id] = true
	}
	assert.True(t, staleIds[abandoned.Id], "abandoned in-progress attempt belongs to the auto-submit leg")
	assert.False(t, staleIds[stuck.Id], "submitted attempts are not auto-submit candidates")

	ungraded, err := repo.FindUngraded(ctx, now.Add(-10*time.Minute), 100)
	require.NoError(t, err)
	ungradedIds := make(map[uuid.UUID]bool)
	for _, a := range ungraded {
		ungradedIds[a.Id] = true
	}
	assert.True(t, ungradedIds[stuck.Id], "old submitted attempt must be picked up for re-enqueue")
	assert.False(t, ungradedIds[fresh.Id], "a just-submitted attempt is inside the grace period")
	assert.False(t, ungradedIds[abandoned.Id], "in-progress attempts never reach the grading leg")
}
