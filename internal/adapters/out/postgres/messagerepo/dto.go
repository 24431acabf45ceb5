// Package messagerepo stores the per-task chat log in the messages table.
package messagerepo

import (
	"time"

	"courierdesk/internal/core/domain/model/chat"
	"courierdesk/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

type MessageDTO struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	TaskID     uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_task_sent,priority:1"`
	SentAt     time.Time `gorm:"not null;index:idx_messages_task_sent,priority:2"`
	Text       string    `gorm:"type:varchar(2000);not null"`
	SenderID   string    `gorm:"not null"`
	SenderName string
	SenderRole string `gorm:"type:varchar(16);not null"`
}

func (MessageDTO) TableName() string {
	return "messages"
}

func fromDomain(m *chat.Message) MessageDTO {
	return MessageDTO{
		ID:         m.ID().Bytes(),
		TaskID:     m.TaskID().Bytes(),
		SentAt:     m.SentAt(),
		Text:       m.Text(),
		SenderID:   m.SenderID().String(),
		SenderName: m.SenderName(),
		SenderRole: string(m.SenderRole()),
	}
}

func toDomain(dto MessageDTO) (*chat.Message, error) {
	id, err := kernel.UUIDFromString(dto.ID.String())
	if err != nil {
		return nil, err
	}
	taskID, err := kernel.UUIDFromString(dto.TaskID.String())
	if err != nil {
		return nil, err
	}
	role, err := kernel.ParseRole(dto.SenderRole)
	if err != nil {
		return nil, err
	}

	return chat.RestoreMessage(chat.State{
		ID:         id,
		TaskID:     taskID,
		Text:       dto.Text,
		SenderID:   kernel.UserID(dto.SenderID),
		SenderName: dto.SenderName,
		SenderRole: role,
		SentAt:     dto.SentAt,
	})
}
