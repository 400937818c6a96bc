// FILE: internal/service/corpus_service.go
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"time"

	"examcraft-be/internal/dto"
	"examcraft-be/internal/entity"
	"examcraft-be/internal/pkg/logger"
	"examcraft-be/internal/repository/specification"
	"examcraft-be/internal/repository/unitofwork"
	"examcraft-be/pkg/rag/fusion"
	pkgSearch "examcraft-be/pkg/rag/search"
	"examcraft-be/pkg/storage"

	"github.com/google/uuid"
)

type ICorpusService interface {
	UploadDocument(ctx context.Context, userId uuid.UUID, req *dto.UploadDocumentRequest, file *multipart.FileHeader) (*dto.DocumentResponse, error)
	ListDocuments(ctx context.Context, sourceType string) ([]*dto.DocumentResponse, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*dto.DocumentResponse, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
	ReingestDocument(ctx context.Context, id uuid.UUID) error
	PreviewRetrieval(ctx context.Context, req *dto.RetrievalPreviewRequest) (*dto.RetrievalPreviewResponse, error)
}

type corpusService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	objectStore      storage.ObjectStore
	searcher         *pkgSearch.Orchestrator
	searchConfig     pkgSearch.Config
	logger           logger.ILogger
}

func NewCorpusService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	objectStore storage.ObjectStore,
	searcher *pkgSearch.Orchestrator,
	searchConfig pkgSearch.Config,
	log logger.ILogger,
) ICorpusService {
	return &corpusService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		objectStore:      objectStore,
		searcher:         searcher,
		searchConfig:     searchConfig,
		logger:           log,
	}
}

func (s *corpusService) UploadDocument(ctx context.Context, userId uuid.UUID, req *dto.UploadDocumentRequest, file *multipart.FileHeader) (*dto.DocumentResponse, error) {
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(src); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	doc := &entity.SourceDocument{
		Id:            uuid.New(),
		Title:         req.Title,
		SourceType:    entity.SourceType(req.SourceType),
		Unit:          req.Unit,
		Lesson:        req.Lesson,
		Difficulty:    req.Difficulty,
		MarksAffinity: req.MarksAffinity,
		UploadedBy:    userId,
		Status:        entity.DocumentStatusPending,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	doc.StorageKey = fmt.Sprintf("corpus/%s.pdf", doc.Id)

	if err := s.objectStore.Put(ctx, doc.StorageKey, &buf, "application/pdf"); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SourceDocumentRepository().Create(ctx, doc); err != nil {
		return nil, err
	}

	if err := s.enqueueIngest(ctx, doc.Id); err != nil {
		// The row stays pending; a manual re-ingest can pick it up.
		s.logger.Error("corpus", "failed to enqueue ingestion", map[string]interface{}{
			"document_id": doc.Id.String(),
			"error":       err.Error(),
		})
	}

	return toDocumentResponse(doc), nil
}

func (s *corpusService) enqueueIngest(ctx context.Context, documentId uuid.UUID) error {
	payload, err := json.Marshal(dto.IngestDocumentMessage{DocumentId: documentId})
	if err != nil {
		return err
	}
	return s.publisherService.Publish(ctx, payload)
}

func (s *corpusService) ListDocuments(ctx context.Context, sourceType string) ([]*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{
		specification.OrderBy{Field: "created_at", Desc: true},
	}
	if sourceType != "" {
		specs = append(specs, specification.BySourceType{SourceType: sourceType})
	}

	docs, err := uow.SourceDocumentRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	return out, nil
}

func (s *corpusService) GetDocument(ctx context.Context, id uuid.UUID) (*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.SourceDocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document not found")
	}
	return toDocumentResponse(doc), nil
}

func (s *corpusService) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.SourceDocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("document not found")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChunkRepository().DeleteByDocumentId(ctx, id); err != nil {
		return err
	}
	if err := uow.SourceDocumentRepository().Delete(ctx, id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	if err := s.objectStore.Delete(ctx, doc.StorageKey); err != nil {
		// Chunks and metadata are already gone; the orphaned object is
		// harmless and a re-upload writes under a new key.
		s.logger.Warn("corpus", "failed to delete stored object", map[string]interface{}{
			"key":   doc.StorageKey,
			"error": err.Error(),
		})
	}
	return nil
}

func (s *corpusService) ReingestDocument(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.SourceDocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("document not found")
	}

	return s.enqueueIngest(ctx, id)
}

func (s *corpusService) PreviewRetrieval(ctx context.Context, req *dto.RetrievalPreviewRequest) (*dto.RetrievalPreviewResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	cfg := s.searchConfig
	if req.TopK > 0 {
		cfg.TopK = req.TopK
	}

	result, err := s.searcher.Retrieve(ctx, uow, pkgSearch.Request{
		Query:      req.Query,
		SourceType: entity.SourceTextbook,
		Unit:       req.Unit,
		Weights:    fusion.DefaultWeights(),
	}, cfg)
	if err != nil {
		return nil, err
	}

	chunks := make([]dto.ChunkResponse, 0, len(result.Chunks))
	for _, r := range result.Chunks {
		chunks = append(chunks, dto.ChunkResponse{
			Id:            r.ChunkId,
			Content:       r.Text,
			Unit:          r.Unit,
			Lesson:        r.Lesson,
			MarksAffinity: r.MarksAffinity,
			Score:         r.Fused,
		})
	}

	return &dto.RetrievalPreviewResponse{
		Chunks:     chunks,
		TokenCount: result.TokenCount,
	}, nil
}

func toDocumentResponse(d *entity.SourceDocument) *dto.DocumentResponse {
	resp := &dto.DocumentResponse{
		Id:         d.Id,
		Title:      d.Title,
		SourceType: string(d.SourceType),
		Status:     string(d.Status),
		ChunkCount: d.ChunkCount,
		FileKey:    d.StorageKey,
		CreatedAt:  d.CreatedAt,
	}
	if d.FailureReason != nil {
		resp.Error = *d.FailureReason
	}
	return resp
}
