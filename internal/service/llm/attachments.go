package llm

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"strand/internal/domain/models"
	"strand/internal/domain/repositories"
)

// AttachmentResolver refreshes storage-reference attachments to
// fetchable URLs immediately before a provider call. Stored URLs may
// have expired since the message was created.
type AttachmentResolver struct {
	store  repositories.ChatStore
	logger *slog.Logger
}

// NewAttachmentResolver creates an attachment resolver.
func NewAttachmentResolver(store repositories.ChatStore, logger *slog.Logger) *AttachmentResolver {
	return &AttachmentResolver{store: store, logger: logger}
}

// ResolveAll refreshes every attachment across the message history
// concurrently, one task per attachment. A failed resolution degrades
// to the attachment's last-known URL instead of aborting the turn.
func (r *AttachmentResolver) ResolveAll(ctx context.Context, messages []models.IncomingMessage) [][]ResolvedAttachment {
	resolved := make([][]ResolvedAttachment, len(messages))

	g, gctx := errgroup.WithContext(ctx)
	for i, msg := range messages {
		if len(msg.Attachments) == 0 {
			continue
		}
		resolved[i] = make([]ResolvedAttachment, len(msg.Attachments))

		for j, att := range msg.Attachments {
			i, j, att := i, j, att
			g.Go(func() error {
				resolved[i][j] = r.resolve(gctx, att)
				return nil
			})
		}
	}

	// Tasks never return errors; Wait is a join point only.
	_ = g.Wait()

	return resolved
}

func (r *AttachmentResolver) resolve(ctx context.Context, att models.Attachment) ResolvedAttachment {
	out := ResolvedAttachment{
		URL:         att.URL,
		Name:        att.Name,
		ContentType: att.ContentType,
	}

	if att.StorageID == "" {
		return out
	}

	url, err := r.store.GetStorageURL(ctx, att.StorageID)
	if err != nil {
		r.logger.Warn("attachment resolution failed, using last-known URL",
			"storage_id", att.StorageID,
			"error", err)
		return out
	}

	out.URL = url
	return out
}
