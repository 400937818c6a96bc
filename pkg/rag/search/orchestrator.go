package search

import (
	"context"
	"fmt"

	"examcraft-be/internal/entity"
	"examcraft-be/internal/pkg/logger"
	"examcraft-be/internal/repository/contract"
	"examcraft-be/internal/repository/unitofwork"
	"examcraft-be/pkg/embedding"
	"examcraft-be/pkg/rag/compress"
	"examcraft-be/pkg/rag/fusion"
)

// Orchestrator runs the full hybrid retrieval pipeline: embed the query,
// fan out to the vector and lexical legs, fuse, floor, deduplicate, and
// compress into the token budget.
type Orchestrator struct {
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
}

func NewOrchestrator(embeddingProvider embedding.EmbeddingProvider, log logger.ILogger) *Orchestrator {
	return &Orchestrator{
		embeddingProvider: embeddingProvider,
		logger:            log,
	}
}

// Request describes one retrieval. Unit is optional; empty searches the whole
// corpus for the given source type. Marks feeds the fusion tie-breaker.
type Request struct {
	Query      string
	SourceType entity.SourceType
	Unit       string
	Marks      int
	Weights    fusion.Weights
}

// Config carries the pipeline thresholds, usually loaded from
// config.RetrievalConfig at startup.
type Config struct {
	TopK           int
	RelevanceFloor float64
	DedupThreshold float64
	TokenBudget    int
}

func DefaultConfig() Config {
	return Config{
		TopK:           10,
		RelevanceFloor: 0.35,
		DedupThreshold: 0.92,
		TokenBudget:    3000,
	}
}

// Result is the compressed context ready for prompt assembly.
type Result struct {
	Chunks     []fusion.Ranked
	TokenCount int
}

// Retrieve executes the pipeline. It returns *fusion.EmptyRetrievalError when
// nothing clears the relevance floor so callers can distinguish "no relevant
// material" from infrastructure failures.
func (o *Orchestrator) Retrieve(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	req Request,
	cfg Config,
) (*Result, error) {
	embeddingRes, err := o.embeddingProvider.Generate(req.Query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	// Each leg over-fetches so fusion has overlap to work with before the
	// floor and topK cut the list back down.
	legLimit := cfg.TopK * 2
	if legLimit < cfg.TopK {
		legLimit = cfg.TopK
	}

	vectorHits, err := uow.ChunkRepository().SearchSimilar(
		ctx, embeddingRes.Embedding.Values, string(req.SourceType), req.Unit, legLimit)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	var lexicalHits []*contract.ScoredChunk
	if req.Weights.Lexical > 0 {
		lexicalHits, err = uow.ChunkRepository().SearchLexical(
			ctx, req.Query, string(req.SourceType), req.Unit, legLimit)
		if err != nil {
			// The vector leg alone can still produce a usable context.
			o.logger.Warn("retrieval", "lexical leg failed, continuing vector-only",
				map[string]interface{}{"error": err.Error()})
			lexicalHits = nil
		}
	}

	o.logger.Debug("retrieval", "legs fetched", map[string]interface{}{
		"vector":  len(vectorHits),
		"lexical": len(lexicalHits),
		"query":   req.Query,
	})

	fused := fusion.Fuse(
		toCandidates(vectorHits),
		toCandidates(lexicalHits),
		req.Weights,
		fusion.Criteria{Unit: req.Unit, Marks: req.Marks},
	)

	floored, err := fusion.ApplyFloor(fused, cfg.RelevanceFloor, cfg.TopK, req.Query)
	if err != nil {
		return nil, err
	}

	deduped := compress.Deduplicate(floored, cfg.DedupThreshold)
	fitted := compress.FitBudget(deduped, cfg.TokenBudget)

	tokens := 0
	for _, r := range fitted {
		tokens += compress.EstimateTokens(r.Text)
	}

	o.logger.Debug("retrieval", "pipeline complete", map[string]interface{}{
		"fused":   len(fused),
		"floored": len(floored),
		"kept":    len(fitted),
		"tokens":  tokens,
	})

	return &Result{Chunks: fitted, TokenCount: tokens}, nil
}

func toCandidates(hits []*contract.ScoredChunk) []fusion.Candidate {
	if len(hits) == 0 {
		return nil
	}
	out := make([]fusion.Candidate, 0, len(hits))
	for _, h := range hits {
		out = append(out, fusion.Candidate{
			ChunkId:       h.Chunk.Id,
			Text:          h.Chunk.Text,
			Score:         h.Score,
			Unit:          h.Chunk.Unit,
			Lesson:        h.Chunk.Lesson,
			MarksAffinity: h.Chunk.MarksAffinity,
			CreatedAt:     h.Chunk.CreatedAt,
			Embedding:     h.Chunk.Embedding,
		})
	}
	return out
}
