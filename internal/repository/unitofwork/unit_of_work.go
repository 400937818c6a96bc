package unitofwork

import (
	"context"

	"examcraft-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	SourceDocumentRepository() contract.SourceDocumentRepository
	ChunkRepository() contract.ChunkRepository

	BlueprintRepository() contract.BlueprintRepository
	PaperRepository() contract.PaperRepository
	QuestionRepository() contract.QuestionRepository
	RevisionRecordRepository() contract.RevisionRecordRepository

	ExamAttemptRepository() contract.ExamAttemptRepository
	AnswerEvaluationRepository() contract.AnswerEvaluationRepository

	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository

	EvaluationRepository() contract.EvaluationRepository
	SubscriptionRepository() contract.SubscriptionRepository
}
