package postgres

import (
	"context"
	"fmt"

	"strand/internal/domain"
)

// IncrementUserKeyUsage bumps the usage counter on a user's stored key.
// The increment is a single atomic UPDATE.
func (s *ChatStore) IncrementUserKeyUsage(ctx context.Context, userID, provider string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET usage_count = usage_count + 1
		WHERE user_id = $1 AND provider = $2
	`, s.tables.APIKeys)

	executor := GetExecutor(ctx, s.pool)
	if _, err := executor.Exec(ctx, query, userID, provider); err != nil {
		return fmt.Errorf("increment user key usage: %w", err)
	}

	return nil
}

// IncrementMessageCount bumps the shared platform message counter.
// The increment is a single atomic UPDATE with upsert semantics.
func (s *ChatStore) IncrementMessageCount(ctx context.Context, userID string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, message_count)
		VALUES ($1, 1)
		ON CONFLICT (user_id)
		DO UPDATE SET message_count = %s.message_count + 1
	`, s.tables.Usage, s.tables.Usage)

	executor := GetExecutor(ctx, s.pool)
	if _, err := executor.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("increment message count: %w", err)
	}

	return nil
}

// AssertNotOverLimit fails with domain.ErrUsageLimit when the account's
// message quota is exhausted. A missing row means no usage yet.
func (s *ChatStore) AssertNotOverLimit(ctx context.Context, userID string) error {
	query := fmt.Sprintf(`
		SELECT message_count, message_limit FROM %s WHERE user_id = $1
	`, s.tables.Usage)

	var count, limit int
	executor := GetExecutor(ctx, s.pool)
	err := executor.QueryRow(ctx, query, userID).Scan(&count, &limit)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil
		}
		return fmt.Errorf("check usage limit: %w", err)
	}

	if limit > 0 && count >= limit {
		return fmt.Errorf("monthly message limit of %d reached: %w", limit, domain.ErrUsageLimit)
	}

	return nil
}
