package mapper

import (
	"encoding/json"

	"examcraft-be/internal/entity"
	"examcraft-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) SessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}
	return &entity.ChatSession{
		Id:        s.Id,
		UserId:    s.UserId,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (m *ChatMapper) SessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}
	return &model.ChatSession{
		Id:        s.Id,
		UserId:    s.UserId,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (m *ChatMapper) SessionsToEntities(sessions []*model.ChatSession) []*entity.ChatSession {
	entities := make([]*entity.ChatSession, len(sessions))
	for i, s := range sessions {
		entities[i] = m.SessionToEntity(s)
	}
	return entities
}

func (m *ChatMapper) MessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}
	var chunkIds, questionIds []uuid.UUID
	_ = json.Unmarshal(msg.SourceChunkIds, &chunkIds)
	_ = json.Unmarshal(msg.SelectedQuestions, &questionIds)

	return &entity.ChatMessage{
		Id:                msg.Id,
		ChatSessionId:     msg.ChatSessionId,
		Role:              msg.Role,
		Content:           msg.Content,
		SourceChunkIds:    chunkIds,
		SelectedQuestions: questionIds,
		CreatedAt:         msg.CreatedAt,
	}
}

func (m *ChatMapper) MessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}
	chunkIds, _ := json.Marshal(msg.SourceChunkIds)
	questionIds, _ := json.Marshal(msg.SelectedQuestions)

	return &model.ChatMessage{
		Id:                msg.Id,
		ChatSessionId:     msg.ChatSessionId,
		Role:              msg.Role,
		Content:           msg.Content,
		SourceChunkIds:    datatypes.JSON(chunkIds),
		SelectedQuestions: datatypes.JSON(questionIds),
		CreatedAt:         msg.CreatedAt,
	}
}

func (m *ChatMapper) MessagesToEntities(messages []*model.ChatMessage) []*entity.ChatMessage {
	entities := make([]*entity.ChatMessage, len(messages))
	for i, msg := range messages {
		entities[i] = m.MessageToEntity(msg)
	}
	return entities
}
