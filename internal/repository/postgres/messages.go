package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"strand/internal/domain"
	"strand/internal/domain/models"
	"strand/internal/domain/repositories"
)

// SaveUserMessage persists a user turn and returns the stored message.
func (s *ChatStore) SaveUserMessage(ctx context.Context, in *repositories.SaveMessageInput) (*models.Message, error) {
	return s.saveMessage(ctx, in, "user")
}

// SaveAssistantMessage persists an assistant turn (including error-only
// messages) and returns the stored message.
func (s *ChatStore) SaveAssistantMessage(ctx context.Context, in *repositories.SaveMessageInput) (*models.Message, error) {
	return s.saveMessage(ctx, in, "assistant")
}

func (s *ChatStore) saveMessage(ctx context.Context, in *repositories.SaveMessageInput, role string) (*models.Message, error) {
	partsJSON, err := json.Marshal(in.Parts)
	if err != nil {
		return nil, fmt.Errorf("marshal message parts: %w", err)
	}

	var metadataJSON []byte
	if in.Metadata != nil {
		metadataJSON, err = json.Marshal(in.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal message metadata: %w", err)
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, chat_id, user_id, role, content, parent_message_id, parts, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, s.tables.Messages)

	msg := &models.Message{
		ID:              uuid.New().String(),
		ChatID:          in.ChatID,
		Role:            role,
		Content:         in.Content,
		ParentMessageID: in.ParentMessageID,
		Parts:           in.Parts,
		Metadata:        in.Metadata,
	}

	executor := GetExecutor(ctx, s.pool)
	err = executor.QueryRow(ctx, query,
		msg.ID,
		in.ChatID,
		in.UserID,
		role,
		in.Content,
		in.ParentMessageID,
		partsJSON,
		metadataJSON,
		time.Now(),
	).Scan(&msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("save %s message: %w", role, err)
	}

	return msg, nil
}

// GetMessage retrieves a single message owned by the user.
func (s *ChatStore) GetMessage(ctx context.Context, userID, messageID string) (*models.Message, error) {
	query := fmt.Sprintf(`
		SELECT id, chat_id, role, content, parent_message_id, parts, metadata, created_at
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, s.tables.Messages)

	executor := GetExecutor(ctx, s.pool)
	row := executor.QueryRow(ctx, query, messageID, userID)

	msg, err := scanMessage(row)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get message: %w", err)
	}

	return msg, nil
}

// ListMessages retrieves all messages in a chat in creation order.
func (s *ChatStore) ListMessages(ctx context.Context, userID, chatID string) ([]models.Message, error) {
	query := fmt.Sprintf(`
		SELECT id, chat_id, role, content, parent_message_id, parts, metadata, created_at
		FROM %s
		WHERE chat_id = $1 AND user_id = $2
		ORDER BY created_at ASC
	`, s.tables.Messages)

	executor := GetExecutor(ctx, s.pool)
	rows, err := executor.Query(ctx, query, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, *msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	return messages, nil
}

// DeleteMessageAndDescendants removes a message and every message below it
// in the parent chain (used by the reload flow before regeneration).
func (s *ChatStore) DeleteMessageAndDescendants(ctx context.Context, userID, messageID string) error {
	query := fmt.Sprintf(`
		WITH RECURSIVE descendants AS (
			SELECT id FROM %[1]s WHERE id = $1 AND user_id = $2
			UNION ALL
			SELECT m.id FROM %[1]s m
			JOIN descendants d ON m.parent_message_id = d.id
		)
		DELETE FROM %[1]s WHERE id IN (SELECT id FROM descendants)
	`, s.tables.Messages)

	executor := GetExecutor(ctx, s.pool)
	tag, err := executor.Exec(ctx, query, messageID, userID)
	if err != nil {
		return fmt.Errorf("delete message and descendants: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
	}

	return nil
}

// rowScanner covers both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*models.Message, error) {
	var msg models.Message
	var partsJSON, metadataJSON []byte

	err := row.Scan(
		&msg.ID,
		&msg.ChatID,
		&msg.Role,
		&msg.Content,
		&msg.ParentMessageID,
		&partsJSON,
		&metadataJSON,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(partsJSON) > 0 {
		if err := json.Unmarshal(partsJSON, &msg.Parts); err != nil {
			return nil, fmt.Errorf("unmarshal message parts: %w", err)
		}
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &msg.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal message metadata: %w", err)
		}
	}

	return &msg, nil
}
