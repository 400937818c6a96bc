// FILE: internal/service/evaluation_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"examcraft-be/internal/config"
	"examcraft-be/internal/dto"
	"examcraft-be/internal/entity"
	"examcraft-be/internal/pkg/logger"
	"examcraft-be/internal/repository/specification"
	"examcraft-be/internal/repository/unitofwork"
	"examcraft-be/pkg/events"
	"examcraft-be/pkg/exam/evalmetrics"
	"examcraft-be/pkg/llm"
	pktNats "examcraft-be/pkg/nats"
	"examcraft-be/pkg/rag/fusion"
	"examcraft-be/pkg/rag/prompt"
	pkgSearch "examcraft-be/pkg/rag/search"

	"github.com/google/uuid"
)

type IEvaluationService interface {
	// StartEvaluation creates a run and scores it in the background; the
	// returned run is still in the running state. A paper run without a
	// paper id generates a fresh paper inside the run.
	StartEvaluation(ctx context.Context, userId uuid.UUID, req *dto.StartEvaluationRequest) (*dto.EvaluationRunResponse, error)
	GetRun(ctx context.Context, id uuid.UUID) (*dto.EvaluationRunResponse, error)
	GetLatest(ctx context.Context, target string) (*dto.EvaluationRunResponse, error)
	ListRuns(ctx context.Context, target string) ([]*dto.EvaluationRunResponse, error)
}

type evaluationService struct {
	uowFactory     unitofwork.RepositoryFactory
	papers         IPaperService
	llmProvider    llm.LLMProvider
	judgeModel     string
	searcher       *pkgSearch.Orchestrator
	searchConfig   pkgSearch.Config
	evalConfig     config.EvalConfig
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
}

func NewEvaluationService(
	uowFactory unitofwork.RepositoryFactory,
	papers IPaperService,
	llmProvider llm.LLMProvider,
	judgeModel string,
	searcher *pkgSearch.Orchestrator,
	searchConfig pkgSearch.Config,
	evalConfig config.EvalConfig,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IEvaluationService {
	if evalConfig.SamplesPerPart <= 0 {
		evalConfig.SamplesPerPart = 3
	}
	if evalConfig.RunTimeoutMin <= 0 {
		evalConfig.RunTimeoutMin = 20
	}
	if evalConfig.Workers <= 0 {
		evalConfig.Workers = 2
	}
	return &evaluationService{
		uowFactory:     uowFactory,
		papers:         papers,
		llmProvider:    llmProvider,
		judgeModel:     judgeModel,
		searcher:       searcher,
		searchConfig:   searchConfig,
		evalConfig:     evalConfig,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (es *evaluationService) StartEvaluation(ctx context.Context, userId uuid.UUID, req *dto.StartEvaluationRequest) (*dto.EvaluationRunResponse, error) {
	run := &entity.EvaluationRun{
		Id:        uuid.New(),
		Target:    entity.EvalTarget(req.Target),
		Status:    entity.EvalRunRunning,
		PaperId:   req.PaperId,
		Scope:     req.Scope,
		StartedAt: time.Now(),
	}

	uow := es.uowFactory.NewUnitOfWork(ctx)

	if run.Target == entity.EvalTargetPaper && req.PaperId != nil {
		paper, err := uow.PaperRepository().FindOne(ctx, specification.ByID{ID: *req.PaperId})
		if err != nil {
			return nil, err
		}
		if paper == nil {
			return nil, fmt.Errorf("paper not found")
		}
	}

	if err := uow.EvaluationRepository().CreateRun(ctx, run); err != nil {
		return nil, err
	}

	// The run outlives the request; it gets its own context and deadline.
	go es.executeRun(run, userId)

	return toEvaluationRunResponse(run, nil), nil
}

func (es *evaluationService) GetRun(ctx context.Context, id uuid.UUID) (*dto.EvaluationRunResponse, error) {
	uow := es.uowFactory.NewUnitOfWork(ctx)
	run, err := uow.EvaluationRepository().FindOneRun(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("evaluation run not found")
	}

	samples, err := uow.EvaluationRepository().FindSamplesByRunId(ctx, run.Id)
	if err != nil {
		return nil, err
	}
	return toEvaluationRunResponse(run, samples), nil
}

func (es *evaluationService) GetLatest(ctx context.Context, target string) (*dto.EvaluationRunResponse, error) {
	uow := es.uowFactory.NewUnitOfWork(ctx)
	run, err := uow.EvaluationRepository().FindOneRun(ctx,
		specification.Filter("target", target),
		specification.OrderBy{Field: "started_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("no evaluation run for target %s", target)
	}

	samples, err := uow.EvaluationRepository().FindSamplesByRunId(ctx, run.Id)
	if err != nil {
		return nil, err
	}
	return toEvaluationRunResponse(run, samples), nil
}

func (es *evaluationService) ListRuns(ctx context.Context, target string) ([]*dto.EvaluationRunResponse, error) {
	uow := es.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{specification.OrderBy{Field: "started_at", Desc: true}}
	if target != "" {
		specs = append(specs, specification.Filter("target", target))
	}
	runs, err := uow.EvaluationRepository().FindAllRuns(ctx, specs...)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.EvaluationRunResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, toEvaluationRunResponse(run, nil))
	}
	return out, nil
}

// --- Run execution ---

// judgeTask is one (sample, metric) scoring unit fanned out to the judge
// worker pool.
type judgeTask struct {
	ref    string
	metric evalmetrics.Metric
	sample evalmetrics.Sample
}

func (es *evaluationService) executeRun(run *entity.EvaluationRun, startedBy uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(es.evalConfig.RunTimeoutMin)*time.Minute)
	defer cancel()

	uow := es.uowFactory.NewUnitOfWork(ctx)

	var (
		tasks []judgeTask
		err   error
	)
	switch run.Target {
	case entity.EvalTargetPaper:
		if run.PaperId == nil {
			err = es.generateRunPaper(ctx, uow, run, startedBy)
		}
		if err == nil {
			tasks, err = es.paperTasks(ctx, uow, run)
		}
	case entity.EvalTargetChatbot:
		tasks, err = es.chatbotTasks(ctx, uow, run)
	default:
		err = fmt.Errorf("unknown evaluation target %q", run.Target)
	}
	if err != nil {
		es.finishRun(run, entity.EvalRunFailed, nil)
		es.logger.Error("evaluation", "failed to build samples", map[string]interface{}{
			"run_id": run.Id.String(),
			"error":  err.Error(),
		})
		return
	}

	scored := es.judgeAll(ctx, run, tasks)

	status := entity.EvalRunCompleted
	if ctx.Err() != nil {
		// Samples recorded before the deadline stay; only the status says
		// the run was cut short.
		status = entity.EvalRunTimeout
	}
	es.finishRun(run, status, scored)
}

// judgeAll fans the tasks out to a bounded worker pool, persisting each
// verdict as it lands.
func (es *evaluationService) judgeAll(ctx context.Context, run *entity.EvaluationRun, tasks []judgeTask) []evalmetrics.ScoredSample {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		scored []evalmetrics.ScoredSample
	)
	sem := make(chan struct{}, es.evalConfig.Workers)

	for _, task := range tasks {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(t judgeTask) {
			defer wg.Done()
			defer func() { <-sem }()

			sample := &entity.EvaluationSample{
				Id:        uuid.New(),
				RunId:     run.Id,
				SampleRef: t.ref,
				Metric:    string(t.metric),
				CreatedAt: time.Now(),
			}

			verdict, err := es.judgeOne(ctx, t)
			if err != nil {
				sample.Error = err.Error()
			} else {
				sample.Score = verdict.Score
				sample.Explanation = verdict.Explanation
				mu.Lock()
				scored = append(scored, evalmetrics.ScoredSample{Metric: t.metric, Score: verdict.Score})
				mu.Unlock()
			}

			saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer saveCancel()
			saveUow := es.uowFactory.NewUnitOfWork(saveCtx)
			if err := saveUow.EvaluationRepository().CreateSample(saveCtx, sample); err != nil {
				es.logger.Error("evaluation", "failed to persist sample", map[string]interface{}{
					"run_id": run.Id.String(),
					"error":  err.Error(),
				})
			}
		}(task)
	}
	wg.Wait()
	return scored
}

func (es *evaluationService) judgeOne(ctx context.Context, t judgeTask) (*evalmetrics.Verdict, error) {
	options := []llm.Option{llm.WithTemperature(0)}
	if es.judgeModel != "" {
		options = append(options, llm.WithModel(es.judgeModel))
	}

	raw, err := es.llmProvider.Generate(ctx, evalmetrics.BuildJudgePrompt(t.metric, t.sample), options...)
	if err != nil {
		return nil, err
	}
	return evalmetrics.ParseVerdict(t.metric, raw)
}

// finishRun writes the aggregates and terminal status. Aggregation runs over
// whatever was scored, which for a timeout is a partial set.
func (es *evaluationService) finishRun(run *entity.EvaluationRun, status entity.EvalRunStatus, scored []evalmetrics.ScoredSample) {
	perMetric, overall := evalmetrics.Aggregate(scored)

	now := time.Now()
	run.Status = status
	run.MetricAggregates = perMetric
	run.OverallScore = overall
	run.SampleCount = len(scored)
	run.CompletedAt = &now

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	uow := es.uowFactory.NewUnitOfWork(ctx)
	if err := uow.EvaluationRepository().UpdateRun(ctx, run); err != nil {
		es.logger.Error("evaluation", "failed to finalize run", map[string]interface{}{
			"run_id": run.Id.String(),
			"error":  err.Error(),
		})
		return
	}

	if es.eventPublisher != nil && status == entity.EvalRunCompleted {
		event := events.NewEvaluationCompletedEvent(run.Id, string(status), overall)
		if err := es.eventPublisher.Publish(ctx, event); err != nil {
			es.logger.Warn("evaluation", "failed to publish completion event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	es.logger.Info("evaluation", "run finished", map[string]interface{}{
		"run_id":  run.Id.String(),
		"status":  string(status),
		"overall": overall,
		"samples": len(scored),
	})
}

// generateRunPaper produces the paper a no-target run scores: a fresh pass
// through the full generation pipeline over the default blueprint, so the
// run measures generation as it stands now. The run row records the paper id
// before scoring starts.
func (es *evaluationService) generateRunPaper(ctx context.Context, uow unitofwork.UnitOfWork, run *entity.EvaluationRun, startedBy uuid.UUID) error {
	title := fmt.Sprintf("Evaluation run %s", run.StartedAt.Format("2006-01-02 15:04"))
	paper, err := es.papers.GeneratePaper(ctx, startedBy, &dto.GeneratePaperRequest{Title: title})
	if err != nil {
		return fmt.Errorf("generate paper for run: %w", err)
	}

	paperId := paper.Id
	run.PaperId = &paperId
	if err := uow.EvaluationRepository().UpdateRun(ctx, run); err != nil {
		return err
	}
	return nil
}

// paperTasks samples questions from the target paper, a bounded number per
// part, and pairs each with every paper metric. The context a question is
// judged against is the source material it was generated from.
func (es *evaluationService) paperTasks(ctx context.Context, uow unitofwork.UnitOfWork, run *entity.EvaluationRun) ([]judgeTask, error) {
	questions, err := uow.QuestionRepository().FindByPaperId(ctx, *run.PaperId)
	if err != nil {
		return nil, err
	}

	inScope := func(part string) bool {
		if len(run.Scope) == 0 {
			return true
		}
		for _, p := range run.Scope {
			if p == part {
				return true
			}
		}
		return false
	}

	perPart := make(map[string]int)
	var tasks []judgeTask
	for _, q := range questions {
		if q.Failed || !inScope(q.Part) {
			continue
		}
		if perPart[q.Part] >= es.evalConfig.SamplesPerPart {
			continue
		}
		perPart[q.Part]++

		contextText, err := es.provenanceText(ctx, uow, q.Provenance)
		if err != nil {
			return nil, err
		}

		sample := evalmetrics.Sample{
			Query:   fmt.Sprintf("Generate a %d-mark question for part %s", q.Marks, q.Part),
			Context: contextText,
			Output:  renderQuestionForJudge(q),
		}
		ref := fmt.Sprintf("question:%d", q.Number)
		for _, metric := range evalmetrics.PaperMetrics() {
			tasks = append(tasks, judgeTask{ref: ref, metric: metric, sample: sample})
		}
	}
	return tasks, nil
}

// chatbotTasks replays recent real student questions through a fresh
// retrieval and generation pass, so the run audits the pipeline as it stands
// now rather than answers produced weeks ago.
func (es *evaluationService) chatbotTasks(ctx context.Context, uow unitofwork.UnitOfWork, run *entity.EvaluationRun) ([]judgeTask, error) {
	recent, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.Filter("role", entity.ChatRoleUser),
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: es.evalConfig.SamplesPerPart, Offset: 0},
	)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		return nil, fmt.Errorf("no chat history to sample from")
	}

	var tasks []judgeTask
	for i, msg := range recent {
		result, err := es.searcher.Retrieve(ctx, uow, pkgSearch.Request{
			Query:      msg.Content,
			SourceType: entity.SourceTextbook,
			Weights:    fusion.DefaultWeights(),
		}, es.searchConfig)
		if err != nil {
			var empty *fusion.EmptyRetrievalError
			if errors.As(err, &empty) {
				continue
			}
			return nil, err
		}

		answer, err := es.llmProvider.Generate(ctx, prompt.NewChatBuilder(msg.Content, result.Chunks, nil).Build())
		if err != nil {
			return nil, err
		}

		var contextText strings.Builder
		for _, c := range result.Chunks {
			contextText.WriteString(c.Text)
			contextText.WriteString("\n\n")
		}

		sample := evalmetrics.Sample{
			Query:   msg.Content,
			Context: contextText.String(),
			Output:  answer,
		}
		ref := fmt.Sprintf("chat:%d", i+1)
		for _, metric := range evalmetrics.ChatbotMetrics() {
			tasks = append(tasks, judgeTask{ref: ref, metric: metric, sample: sample})
		}
	}
	return tasks, nil
}

func (es *evaluationService) provenanceText(ctx context.Context, uow unitofwork.UnitOfWork, provenance []uuid.UUID) (string, error) {
	if len(provenance) == 0 {
		return "", nil
	}
	chunks, err := uow.ChunkRepository().FindByIds(ctx, provenance)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, chunk := range chunks {
		sb.WriteString(chunk.Text)
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

func renderQuestionForJudge(q *entity.Question) string {
	var sb strings.Builder
	sb.WriteString(q.Text)
	sb.WriteString("\n")
	for i, opt := range q.Options {
		sb.WriteString(fmt.Sprintf("%c) %s\n", 'A'+i, opt))
	}
	if q.AnswerGuide != "" {
		sb.WriteString("Answer guide: ")
		sb.WriteString(q.AnswerGuide)
		sb.WriteString("\n")
	}
	for _, alt := range q.Alternatives {
		sb.WriteString(fmt.Sprintf("%s: %s\nAnswer guide: %s\n", alt.Label, alt.Text, alt.AnswerGuide))
	}
	return sb.String()
}

func toEvaluationRunResponse(run *entity.EvaluationRun, samples []*entity.EvaluationSample) *dto.EvaluationRunResponse {
	resp := &dto.EvaluationRunResponse{
		Id:               run.Id,
		Target:           string(run.Target),
		Status:           string(run.Status),
		PaperId:          run.PaperId,
		Scope:            run.Scope,
		MetricAggregates: run.MetricAggregates,
		OverallScore:     run.OverallScore,
		SampleCount:      run.SampleCount,
		StartedAt:        run.StartedAt,
		CompletedAt:      run.CompletedAt,
	}
	for _, s := range samples {
		resp.Samples = append(resp.Samples, dto.EvaluationSampleResponse{
			SampleRef:   s.SampleRef,
			Metric:      s.Metric,
			Score:       s.Score,
			Explanation: s.Explanation,
			Error:       s.Error,
		})
	}
	return resp
}
