package postgres

import (
	"crypto/sha256"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"strand/internal/domain/repositories"
)

// ChatStore implements repositories.ChatStore using PostgreSQL.
type ChatStore struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger

	// 32-byte key derived from the configured encryption secret,
	// used for user API key encryption at rest
	encryptionKey [sha256.Size]byte
}

// NewChatStore creates a new postgres-backed chat store.
func NewChatStore(config *StoreConfig) repositories.ChatStore {
	return &ChatStore{
		pool:          config.Pool,
		tables:        config.Tables,
		logger:        config.Logger,
		encryptionKey: sha256.Sum256([]byte(config.EncryptionSecret)),
	}
}
