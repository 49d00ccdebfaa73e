package postgres

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"golang.org/x/crypto/chacha20poly1305"

	"strand/internal/domain"
	"strand/internal/domain/models"
)

// ListKeyEntries returns metadata for all stored keys of a user.
// Key material is never included.
func (s *ChatStore) ListKeyEntries(ctx context.Context, userID string) ([]models.APIKeyEntry, error) {
	query := fmt.Sprintf(`
		SELECT provider, mode, usage_count, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY provider ASC
	`, s.tables.APIKeys)

	executor := GetExecutor(ctx, s.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list key entries: %w", err)
	}
	defer rows.Close()

	var entries []models.APIKeyEntry
	for rows.Next() {
		var e models.APIKeyEntry
		if err := rows.Scan(&e.Provider, &e.Mode, &e.UsageCount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan key entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list key entries: %w", err)
	}

	return entries, nil
}

// GetKeyEntry returns metadata for one provider key, or ErrNotFound.
func (s *ChatStore) GetKeyEntry(ctx context.Context, userID, provider string) (*models.APIKeyEntry, error) {
	query := fmt.Sprintf(`
		SELECT provider, mode, usage_count, created_at
		FROM %s
		WHERE user_id = $1 AND provider = $2
	`, s.tables.APIKeys)

	var e models.APIKeyEntry
	executor := GetExecutor(ctx, s.pool)
	err := executor.QueryRow(ctx, query, userID, provider).Scan(
		&e.Provider, &e.Mode, &e.UsageCount, &e.CreatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("key for %s: %w", provider, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get key entry: %w", err)
	}

	return &e, nil
}

// GetDecryptedKey fetches and decrypts the stored key for a provider.
func (s *ChatStore) GetDecryptedKey(ctx context.Context, userID, provider string) (string, error) {
	query := fmt.Sprintf(`
		SELECT encrypted_key FROM %s
		WHERE user_id = $1 AND provider = $2
	`, s.tables.APIKeys)

	var ciphertext []byte
	executor := GetExecutor(ctx, s.pool)
	err := executor.QueryRow(ctx, query, userID, provider).Scan(&ciphertext)
	if err != nil {
		if IsPgNoRowsError(err) {
			return "", fmt.Errorf("key for %s: %w", provider, domain.ErrNotFound)
		}
		return "", fmt.Errorf("get encrypted key: %w", err)
	}

	plaintext, err := s.decrypt(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decrypt key for %s: %w", provider, err)
	}

	return plaintext, nil
}

// PutKey encrypts and stores (or replaces) a user's provider key.
func (s *ChatStore) PutKey(ctx context.Context, userID, provider, plaintextKey, mode string) error {
	ciphertext, err := s.encrypt(plaintextKey)
	if err != nil {
		return fmt.Errorf("encrypt key: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, provider, encrypted_key, mode, usage_count, created_at)
		VALUES ($1, $2, $3, $4, 0, $5)
		ON CONFLICT (user_id, provider)
		DO UPDATE SET encrypted_key = EXCLUDED.encrypted_key, mode = EXCLUDED.mode
	`, s.tables.APIKeys)

	executor := GetExecutor(ctx, s.pool)
	if _, err := executor.Exec(ctx, query, userID, provider, ciphertext, mode, time.Now()); err != nil {
		return fmt.Errorf("put key: %w", err)
	}

	return nil
}

// DeleteKey removes a user's provider key.
func (s *ChatStore) DeleteKey(ctx context.Context, userID, provider string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE user_id = $1 AND provider = $2
	`, s.tables.APIKeys)

	executor := GetExecutor(ctx, s.pool)
	tag, err := executor.Exec(ctx, query, userID, provider)
	if err != nil {
		return fmt.Errorf("delete key: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("key for %s: %w", provider, domain.ErrNotFound)
	}

	return nil
}

// encrypt seals plaintext with XChaCha20-Poly1305; the random nonce is
// prepended to the ciphertext.
func (s *ChatStore) encrypt(plaintext string) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.encryptionKey[:])
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	return aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// decrypt opens a nonce-prefixed XChaCha20-Poly1305 ciphertext.
func (s *ChatStore) decrypt(data []byte) (string, error) {
	aead, err := chacha20poly1305.NewX(s.encryptionKey[:])
	if err != nil {
		return "", err
	}

	if len(data) < aead.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}
