package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"examcraft-be/internal/config"
	"examcraft-be/internal/dto"
	"examcraft-be/internal/entity"
	"examcraft-be/internal/repository/unitofwork"
	"examcraft-be/internal/service"
	"examcraft-be/pkg/database"
	"examcraft-be/pkg/exam/blueprint"
	"examcraft-be/pkg/exam/qschema"
	pkgSearch "examcraft-be/pkg/rag/search"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Starting a paper run without a paper id generates a fresh paper inside the
// run and scores that, so the run measures the pipeline as it stands now.
// With retrieval unavailable every slot fails, which still exercises the
// full path: the run must finish with the generated paper recorded on it.
func TestEvaluationRunGeneratesPaper(t *testing.T) {
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

	// A default blueprint may already be seeded; create a tiny one only
	// when the database has none.
	def, err := uow.BlueprintRepository().FindDefault(ctx)
	require.NoError(t, err)
	if def == nil {
		bp := &entity.Blueprint{
			Id:   uuid.New(),
			Name: "it-eval-default-" + uuid.New().String()[:8],
			Definition: blueprint.Definition{
				Title:           "Evaluation Smoke Paper",
				TotalMarks:      2,
				DurationMinutes: 30,
				Parts:           []blueprint.Part{{Name: "I", Title: "Part I", Sections: []blueprint.Section{{Name: "A", Type: qschema.TypeMCQ, Count: 2, Marks: 1}}}},
			},
			IsDefault: true,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		require.NoError(t, uow.BlueprintRepository().Create(ctx, bp))
		defer db.Exec("DELETE FROM blueprints WHERE id = ?", bp.Id)
	}

	userId := uuid.New()
	searcher := pkgSearch.NewOrchestrator(downEmbedder{}, quietLogger{})
	searchConfig := pkgSearch.DefaultConfig()
	papers := service.NewPaperService(
		uowFactory, searcher, searchConfig,
		&scriptedLLM{}, config.GenerationConfig{Workers: 8, MaxRetries: 1},
		nil, quietLogger{},
	)
	evals := service.NewEvaluationService(
		uowFactory, papers, &scriptedLLM{}, "",
		searcher, searchConfig,
		config.EvalConfig{SamplesPerPart: 1, RunTimeoutMin: 2, Workers: 2},
		nil, quietLogger{},
	)

	started, err := evals.StartEvaluation(ctx, userId, &dto.StartEvaluationRequest{Target: "paper"})
	require.NoError(t, err)
	assert.Equal(t, "running", started.Status)
	assert.Nil(t, started.PaperId, "the generated paper id lands on the run, not the accepted response")
	defer func() {
		db.Exec("DELETE FROM evaluation_samples WHERE run_id = ?", started.Id)
		db.Exec("DELETE FROM evaluation_runs WHERE id = ?", started.Id)
		db.Exec("DELETE FROM questions WHERE paper_id IN (SELECT id FROM papers WHERE created_by = ?)", userId)
		db.Exec("DELETE FROM papers WHERE created_by = ?", userId)
	}()

	var run *dto.EvaluationRunResponse
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		run, err = evals.GetRun(ctx, started.Id)
		require.NoError(t, err)
		if run.Status != "running" {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}

	require.NotNil(t, run)
	assert.Equal(t, "completed", run.Status)
	if assert.NotNil(t, run.PaperId, "run must record the paper it generated") {
		var count int64
		db.Table("papers").Where("id = ? AND created_by = ?", run.PaperId, userId).Count(&count)
		assert.Equal(t, int64(1), count)
	}
}
