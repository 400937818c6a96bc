// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"examcraft-be/internal/dto"
	"examcraft-be/internal/entity"
	"examcraft-be/internal/repository/specification"
	"examcraft-be/internal/repository/unitofwork"
	"examcraft-be/pkg/embedding"
	"examcraft-be/pkg/events"
	pktNats "examcraft-be/pkg/nats"
	"examcraft-be/pkg/pdfext"
	"examcraft-be/pkg/storage"
	"examcraft-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Chunk sizing for the splitter: 1500 chars is roughly 375 tokens, small
// enough to embed safely; 200 chars of overlap preserves context across
// boundaries.
const (
	ingestChunkSize    = 1500
	ingestChunkOverlap = 200
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the ingest topic: for each queued document it
// extracts text, splits, embeds, and swaps the chunk set in one transaction.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	objectStore       storage.ObjectStore
	eventPublisher    *pktNats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	objectStore storage.ObjectStore,
	eventPublisher *pktNats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		objectStore:       objectStore,
		eventPublisher:    eventPublisher,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IngestDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal ingest message: %v", err)
		msg.Ack() // Malformed messages never become valid; do not retry.
		return
	}

	log.Printf("[INFO] Ingesting document %s", payload.DocumentId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	doc, err := uow.SourceDocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		log.Printf("[ERROR] Failed to load document %s: %v", payload.DocumentId, err)
		msg.Nack()
		return
	}
	if doc == nil {
		log.Printf("[WARN] Document %s not found, likely deleted before ingestion", payload.DocumentId)
		msg.Ack()
		return
	}

	raw, err := cs.objectStore.Get(ctx, doc.StorageKey)
	if err != nil {
		cs.failDocument(ctx, uow, doc, fmt.Sprintf("failed to fetch stored file: %v", err))
		msg.Ack()
		return
	}

	text, err := pdfext.ExtractText(raw)
	if err != nil {
		// Extraction failures are permanent for this file; record and move on.
		cs.failDocument(ctx, uow, doc, err.Error())
		msg.Ack()
		return
	}

	pieces := utils.SplitText(text, ingestChunkSize, ingestChunkOverlap)
	log.Printf("[INFO] Document %s split into %d chunks", doc.Id, len(pieces))

	chunks := make([]*entity.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		res, err := cs.embeddingProvider.Generate(piece, "RETRIEVAL_DOCUMENT")
		if err != nil {
			log.Printf("[ERROR] Embedding failed for chunk %d of document %s: %v", i, doc.Id, err)
			msg.Nack() // Embedding backends recover; retry the whole document.
			return
		}

		chunks = append(chunks, &entity.Chunk{
			Id:            uuid.New(),
			DocumentId:    doc.Id,
			ChunkIndex:    i,
			Text:          piece,
			SourceType:    doc.SourceType,
			Unit:          doc.Unit,
			Lesson:        doc.Lesson,
			Difficulty:    doc.Difficulty,
			MarksAffinity: doc.MarksAffinity,
			Embedding:     res.Embedding.Values,
			CreatedAt:     time.Now(),
		})
	}

	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	// Re-ingestion replaces the chunk set wholesale.
	if err := uow.ChunkRepository().DeleteByDocumentId(ctx, doc.Id); err != nil {
		log.Printf("[ERROR] Failed to delete old chunks: %v", err)
		msg.Nack()
		return
	}

	if len(chunks) > 0 {
		if err := uow.ChunkRepository().CreateBulk(ctx, chunks); err != nil {
			log.Printf("[ERROR] Failed to create chunks: %v", err)
			msg.Nack()
			return
		}
	}

	if err := uow.SourceDocumentRepository().MarkProcessed(ctx, doc.Id, len(chunks)); err != nil {
		log.Printf("[ERROR] Failed to mark document processed: %v", err)
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit ingestion: %v", err)
		msg.Nack()
		return
	}

	if cs.eventPublisher != nil {
		if err := cs.eventPublisher.Publish(ctx, events.NewDocumentProcessedEvent(doc.Id, doc.UploadedBy, len(chunks))); err != nil {
			log.Printf("[WARN] Failed to publish %s event: %v", events.TypeDocumentProcessed, err)
		}
	}

	log.Printf("[SUCCESS] Document %s ingested: %d chunks", doc.Id, len(chunks))
	msg.Ack()
}

func (cs *consumerService) failDocument(ctx context.Context, uow unitofwork.UnitOfWork, doc *entity.SourceDocument, reason string) {
	log.Printf("[ERROR] Document %s failed ingestion: %s", doc.Id, reason)
	if err := uow.SourceDocumentRepository().MarkFailed(ctx, doc.Id, reason); err != nil {
		log.Printf("[ERROR] Failed to record ingestion failure: %v", err)
	}
	if cs.eventPublisher != nil {
		if err := cs.eventPublisher.Publish(ctx, events.NewDocumentFailedEvent(doc.Id, doc.UploadedBy, reason)); err != nil {
			log.Printf("[WARN] Failed to publish %s event: %v", events.TypeDocumentFailed, err)
		}
	}
}
