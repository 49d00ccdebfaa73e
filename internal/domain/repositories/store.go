package repositories

import (
	"context"

	"strand/internal/domain/models"
)

// SaveMessageInput carries the fields of a message to persist.
type SaveMessageInput struct {
	ChatID          string
	UserID          string
	Content         string
	ParentMessageID *string
	Parts           []models.MessagePart
	Metadata        *models.MessageMetadata
}

// ChatStore is the persistence boundary for the generation pipeline.
// The pipeline depends only on these operations, not on their
// implementation; counter increments are atomic on the store side so the
// pipeline never reads-then-writes shared counters locally.
type ChatStore interface {
	// Messages
	SaveUserMessage(ctx context.Context, in *SaveMessageInput) (*models.Message, error)
	SaveAssistantMessage(ctx context.Context, in *SaveMessageInput) (*models.Message, error)
	GetMessage(ctx context.Context, userID, messageID string) (*models.Message, error)
	ListMessages(ctx context.Context, userID, chatID string) ([]models.Message, error)
	DeleteMessageAndDescendants(ctx context.Context, userID, messageID string) error

	// User API keys
	ListKeyEntries(ctx context.Context, userID string) ([]models.APIKeyEntry, error)
	GetKeyEntry(ctx context.Context, userID, provider string) (*models.APIKeyEntry, error)
	GetDecryptedKey(ctx context.Context, userID, provider string) (string, error)
	PutKey(ctx context.Context, userID, provider, plaintextKey, mode string) error
	DeleteKey(ctx context.Context, userID, provider string) error

	// Usage counters (atomic on the store side)
	IncrementUserKeyUsage(ctx context.Context, userID, provider string) error
	IncrementMessageCount(ctx context.Context, userID string) error
	AssertNotOverLimit(ctx context.Context, userID string) error

	// Attachments
	GetStorageURL(ctx context.Context, storageID string) (string, error)
}
