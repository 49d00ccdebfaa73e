package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"strand/internal/domain/repositories"
)

// StoreConfig holds configuration for the postgres store.
type StoreConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger

	// EncryptionSecret protects user API keys at rest
	EncryptionSecret string
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Messages    string
	APIKeys     string
	Usage       string
	Attachments string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Messages:    fmt.Sprintf("%smessages", prefix),
		APIKeys:     fmt.Sprintf("%suser_api_keys", prefix),
		Usage:       fmt.Sprintf("%susage_counters", prefix),
		Attachments: fmt.Sprintf("%sattachments", prefix),
	}
}

// CreateConnectionPool creates a new pgx connection pool.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the appropriate query executor for the context.
// If a transaction is present in the context, it returns the transaction;
// otherwise the pool. This lets store methods automatically participate in
// transactions opened by the TransactionManager.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
