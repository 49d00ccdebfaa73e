package postgres

import (
	"context"
	"fmt"

	"strand/internal/domain"
)

// GetStorageURL resolves a storage reference to a fetchable URL.
// URLs are refreshed by the upload path; this is a plain lookup.
func (s *ChatStore) GetStorageURL(ctx context.Context, storageID string) (string, error) {
	query := fmt.Sprintf(`
		SELECT url FROM %s WHERE storage_id = $1
	`, s.tables.Attachments)

	var url string
	executor := GetExecutor(ctx, s.pool)
	err := executor.QueryRow(ctx, query, storageID).Scan(&url)
	if err != nil {
		if IsPgNoRowsError(err) {
			return "", fmt.Errorf("attachment %s: %w", storageID, domain.ErrNotFound)
		}
		return "", fmt.Errorf("get storage url: %w", err)
	}

	return url, nil
}
