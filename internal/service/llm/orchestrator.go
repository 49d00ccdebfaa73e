package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"strand/internal/catalog"
	"strand/internal/domain/models"
	"strand/internal/domain/repositories"
	"strand/internal/service/search"
)

const searchInstructions = "\n\nYou have access to a web_search tool. " +
	"Use it when the user asks about current events or information you are unsure about. " +
	"Cite the sources you used in your answer."

// Orchestrator composes the pipeline for one chat turn: validation,
// usage checks, credential resolution, the primary and fallback
// generation attempts, aggregation, and persistence.
type Orchestrator struct {
	registry    *catalog.Registry
	store       repositories.ChatStore
	txManager   repositories.TransactionManager
	providers   *ProviderSet
	credentials *CredentialResolver
	attachments *AttachmentResolver
	engine      *Engine
	limiter     *PlatformLimiter
	search      *search.Fallback
	logger      *slog.Logger
}

// OrchestratorConfig wires the orchestrator's collaborators.
type OrchestratorConfig struct {
	Registry    *catalog.Registry
	Store       repositories.ChatStore
	TxManager   repositories.TransactionManager
	Providers   *ProviderSet
	Credentials *CredentialResolver
	Attachments *AttachmentResolver
	Engine      *Engine
	Limiter     *PlatformLimiter
	Search      *search.Fallback
	Logger      *slog.Logger
}

// NewOrchestrator creates the turn orchestrator.
func NewOrchestrator(cfg *OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		registry:    cfg.Registry,
		store:       cfg.Store,
		txManager:   cfg.TxManager,
		providers:   cfg.Providers,
		credentials: cfg.Credentials,
		attachments: cfg.Attachments,
		engine:      cfg.Engine,
		limiter:     cfg.Limiter,
		search:      cfg.Search,
		logger:      cfg.Logger,
	}
}

// HandleTurn runs one chat turn end to end, streaming events to the
// sink. A non-nil return is always a *ClassifiedError; the HTTP layer
// decides whether it becomes a JSON response or a stream error event.
func (o *Orchestrator) HandleTurn(ctx context.Context, userID string, req *ChatTurnRequest, sink EventSink) *ClassifiedError {
	if err := req.Validate(o.registry); err != nil {
		return Classify(err)
	}

	model, _ := o.registry.Lookup(req.Model)

	decision, err := o.credentials.Resolve(ctx, userID, model)
	if err != nil {
		return Classify(err)
	}

	// The shared quota only guards platform-billed turns.
	if !decision.UsesUserKey() {
		if err := o.store.AssertNotOverLimit(ctx, userID); err != nil {
			return Classify(err)
		}
	}

	userMessageID, cerr := o.resolveParentMessage(ctx, userID, req)
	if cerr != nil {
		return cerr
	}

	provider, err := o.providers.ForTag(model.Provider)
	if err != nil {
		return Classify(err)
	}

	prompt := o.buildPrompt(ctx, req, model)

	if err := sink.Send("message_start", map[string]string{
		"model":           model.ID,
		"parentMessageId": userMessageID,
	}); err != nil {
		return Classify(err)
	}

	attempts := []Credential{decision.Primary}
	if decision.Fallback != nil {
		attempts = append(attempts, *decision.Fallback)
	}

	turnStart := time.Now()
	var lastErr *ClassifiedError
	for attemptIndex, cred := range attempts {
		session, cerr := o.runAttempt(ctx, userID, provider, prompt, cred, sink)
		if cerr == nil {
			o.finalize(ctx, userID, req, model, session, cred, userMessageID, attemptIndex, turnStart, sink)
			return nil
		}

		lastErr = cerr
		o.logger.Warn("generation attempt failed",
			"model", model.ID,
			"attempt", attemptIndex,
			"source", cred.Source,
			"kind", cerr.Kind)

		// Conversation-visible failures land in the transcript before
		// any retry or propagation, so a turn is never silently lost.
		if cerr.ConversationVisible() {
			o.persistErrorMessage(ctx, userID, req.ChatID, userMessageID, cerr)
		}
	}

	return lastErr
}

// resolveParentMessage persists the inbound user message, or for a
// reload request deletes the assistant message being replaced and
// reuses its parent.
func (o *Orchestrator) resolveParentMessage(ctx context.Context, userID string, req *ChatTurnRequest) (string, *ClassifiedError) {
	if req.ReloadMessageID != "" {
		existing, err := o.store.GetMessage(ctx, userID, req.ReloadMessageID)
		if err != nil {
			return "", Classify(err)
		}
		if existing.ParentMessageID == nil {
			return "", Classify(fmt.Errorf("message %s has no parent to regenerate from", req.ReloadMessageID))
		}
		if err := o.store.DeleteMessageAndDescendants(ctx, userID, req.ReloadMessageID); err != nil {
			return "", Classify(err)
		}
		return *existing.ParentMessageID, nil
	}

	last := req.Messages[len(req.Messages)-1]
	saved, err := o.store.SaveUserMessage(ctx, &repositories.SaveMessageInput{
		ChatID:  req.ChatID,
		UserID:  userID,
		Content: last.Content,
	})
	if err != nil {
		return "", Classify(err)
	}
	return saved.ID, nil
}

// buildPrompt assembles the provider-neutral request: system prompt,
// history with refreshed attachments, tools, and reasoning options.
func (o *Orchestrator) buildPrompt(ctx context.Context, req *ChatTurnRequest, model *catalog.ModelDefinition) *GenerateRequest {
	system := req.SystemPrompt

	searchEnabled := req.EnableSearch && model.SupportsTools && o.search.Available()
	if searchEnabled {
		system += searchInstructions
	}

	resolved := o.attachments.ResolveAll(ctx, req.Messages)

	messages := make([]PromptMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = PromptMessage{
			Role:        m.Role,
			Content:     m.Content,
			Attachments: resolved[i],
		}
	}

	prompt := &GenerateRequest{
		Model:    model.ID,
		System:   system,
		Messages: messages,
		Options:  BuildProviderOptions(model.Provider, model.ID, req.ReasoningEffort),
	}
	if searchEnabled {
		prompt.Tools = []ToolDefinition{WebSearchTool()}
	}

	return prompt
}

// runAttempt executes one generation attempt with one credential. The
// prompt is copied so a fallback attempt starts from clean history.
func (o *Orchestrator) runAttempt(ctx context.Context, userID string, provider Provider, prompt *GenerateRequest, cred Credential, sink EventSink) (*StreamSession, *ClassifiedError) {
	if cred.Source == SourcePlatform {
		if err := o.limiter.Allow(userID); err != nil {
			return nil, Classify(err)
		}
	}

	attempt := *prompt
	attempt.Messages = append([]PromptMessage(nil), prompt.Messages...)
	attempt.APIKey = cred.Key

	start := time.Now()
	session, err := o.engine.Run(ctx, provider, &attempt, sink)
	if err != nil {
		if ctx.Err() != nil {
			o.logger.Info("turn aborted by caller", "elapsed", time.Since(start))
		}
		return nil, Classify(err)
	}

	return session, nil
}

// finalize aggregates the finished session, persists the assistant
// message together with the matching usage counter, and emits the
// terminal event. Persistence failures are logged, never retried: the
// generation already succeeded and re-attempting it would duplicate
// provider cost.
func (o *Orchestrator) finalize(ctx context.Context, userID string, req *ChatTurnRequest, model *catalog.ModelDefinition, session *StreamSession, cred Credential, userMessageID string, attemptIndex int, turnStart time.Time, sink EventSink) {
	parts := Aggregate(session)
	metadata := &models.MessageMetadata{
		Model:            session.Model,
		InputTokens:      session.InputTokens,
		OutputTokens:     session.OutputTokens,
		DurationMS:       time.Since(turnStart).Milliseconds(),
		SearchEnabled:    req.EnableSearch,
		ReasoningEffort:  req.ReasoningEffort,
		UsedUserKey:      cred.Source == SourceUser,
		FallbackAttempts: attemptIndex,
	}

	var saved *models.Message
	err := o.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var txErr error
		saved, txErr = o.store.SaveAssistantMessage(txCtx, &repositories.SaveMessageInput{
			ChatID:          req.ChatID,
			UserID:          userID,
			Content:         AggregatedText(session),
			ParentMessageID: &userMessageID,
			Parts:           parts,
			Metadata:        metadata,
		})
		if txErr != nil {
			return txErr
		}

		// Exactly one counter per turn: the user's key counter when
		// their key was billed, the shared counter otherwise.
		if cred.Source == SourceUser {
			return o.store.IncrementUserKeyUsage(txCtx, userID, model.Provider)
		}
		return o.store.IncrementMessageCount(txCtx, userID)
	})
	if err != nil {
		o.logger.Error("failed to persist assistant message",
			"chat_id", req.ChatID,
			"error", err)
	}

	payload := map[string]any{
		"model":        session.Model,
		"inputTokens":  session.InputTokens,
		"outputTokens": session.OutputTokens,
		"stopReason":   session.StopReason,
	}
	if saved != nil {
		payload["messageId"] = saved.ID
	}
	if err := sink.Send("done", payload); err != nil {
		o.logger.Warn("failed to send terminal event", "error", err)
	}
}

// persistErrorMessage writes a conversation-visible failure into the
// transcript as an assistant message holding a single error part.
func (o *Orchestrator) persistErrorMessage(ctx context.Context, userID, chatID, userMessageID string, cerr *ClassifiedError) {
	_, err := o.store.SaveAssistantMessage(ctx, &repositories.SaveMessageInput{
		ChatID:          chatID,
		UserID:          userID,
		ParentMessageID: &userMessageID,
		Parts: []models.MessagePart{{
			Type:         models.PartTypeError,
			ErrorKind:    cerr.Kind,
			ErrorMessage: cerr.UserFacingMessage,
		}},
	})
	if err != nil {
		o.logger.Error("failed to persist error message",
			"chat_id", chatID,
			"kind", cerr.Kind,
			"error", err)
	}
}
