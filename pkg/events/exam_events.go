package events

import (
	"time"

	"github.com/google/uuid"
)

// Event type codes. Each code has a matching row in the notification type
// registry; unknown codes are published but fan out to nobody.
const (
	TypeUserLogin             = "USER_LOGIN"
	TypeUserRegistered        = "USER_REGISTERED"
	TypeDocumentProcessed     = "DOCUMENT_PROCESSED"
	TypeDocumentFailed        = "DOCUMENT_FAILED"
	TypePaperGenerated        = "PAPER_GENERATED"
	TypePaperPublished        = "PAPER_PUBLISHED"
	TypeAttemptGraded         = "ATTEMPT_GRADED"
	TypeSubscriptionActivated = "SUBSCRIPTION_ACTIVATED"
	TypeEvaluationCompleted   = "EVALUATION_COMPLETED"
)

func newEvent(eventType string, data map[string]interface{}) Event {
	return BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
}

func NewUserLoginEvent(userId uuid.UUID, email string) Event {
	return newEvent(TypeUserLogin, map[string]interface{}{
		"user_id": userId.String(),
		"email":   email,
	})
}

func NewUserRegisteredEvent(userId uuid.UUID, email string, role string) Event {
	return newEvent(TypeUserRegistered, map[string]interface{}{
		"user_id": userId.String(),
		"email":   email,
		"role":    role,
	})
}

func NewDocumentProcessedEvent(documentId, uploadedBy uuid.UUID, chunkCount int) Event {
	return newEvent(TypeDocumentProcessed, map[string]interface{}{
		"document_id": documentId.String(),
		"user_id":     uploadedBy.String(),
		"chunk_count": chunkCount,
	})
}

func NewDocumentFailedEvent(documentId, uploadedBy uuid.UUID, reason string) Event {
	return newEvent(TypeDocumentFailed, map[string]interface{}{
		"document_id": documentId.String(),
		"user_id":     uploadedBy.String(),
		"reason":      reason,
	})
}

func NewPaperGeneratedEvent(paperId, createdBy uuid.UUID, failedSlots int) Event {
	return newEvent(TypePaperGenerated, map[string]interface{}{
		"paper_id":     paperId.String(),
		"user_id":      createdBy.String(),
		"failed_slots": failedSlots,
	})
}

func NewPaperPublishedEvent(paperId, publishedBy uuid.UUID, title string) Event {
	return newEvent(TypePaperPublished, map[string]interface{}{
		"paper_id": paperId.String(),
		"user_id":  publishedBy.String(),
		"title":    title,
	})
}

func NewAttemptGradedEvent(attemptId, studentId uuid.UUID, percentage float64, pendingReview bool) Event {
	return newEvent(TypeAttemptGraded, map[string]interface{}{
		"attempt_id":     attemptId.String(),
		"user_id":        studentId.String(),
		"percentage":     percentage,
		"pending_review": pendingReview,
	})
}

func NewSubscriptionActivatedEvent(userId, planId uuid.UUID, planName string) Event {
	return newEvent(TypeSubscriptionActivated, map[string]interface{}{
		"user_id":   userId.String(),
		"plan_id":   planId.String(),
		"plan_name": planName,
	})
}

func NewEvaluationCompletedEvent(runId uuid.UUID, status string, overallScore float64) Event {
	return newEvent(TypeEvaluationCompleted, map[string]interface{}{
		"run_id":        runId.String(),
		"status":        status,
		"overall_score": overallScore,
	})
}
