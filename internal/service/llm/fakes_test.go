package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"strand/internal/domain"
	"strand/internal/domain/models"
	"strand/internal/domain/repositories"
)

// fakeStore is an in-memory ChatStore for pipeline tests.
type fakeStore struct {
	mu sync.Mutex

	keyEntries   map[string]models.APIKeyEntry
	decryptedKey map[string]string

	messages    []*models.Message
	nextID      int
	deletedIDs  []string
	existing    map[string]*models.Message
	storageURLs map[string]string

	overLimit bool
	saveErr   error

	userKeyIncrements      int
	messageCountIncrements int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		keyEntries:   make(map[string]models.APIKeyEntry),
		decryptedKey: make(map[string]string),
		existing:     make(map[string]*models.Message),
		storageURLs:  make(map[string]string),
	}
}

func (s *fakeStore) addUserKey(provider, key, mode string) {
	s.keyEntries[provider] = models.APIKeyEntry{Provider: provider, Mode: mode}
	s.decryptedKey[provider] = key
}

func (s *fakeStore) saveMessage(in *repositories.SaveMessageInput, role string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return nil, s.saveErr
	}

	s.nextID++
	msg := &models.Message{
		ID:              fmt.Sprintf("msg-%d", s.nextID),
		ChatID:          in.ChatID,
		Role:            role,
		Content:         in.Content,
		ParentMessageID: in.ParentMessageID,
		Parts:           in.Parts,
		Metadata:        in.Metadata,
		CreatedAt:       time.Now(),
	}
	s.messages = append(s.messages, msg)
	return msg, nil
}

func (s *fakeStore) SaveUserMessage(ctx context.Context, in *repositories.SaveMessageInput) (*models.Message, error) {
	return s.saveMessage(in, "user")
}

func (s *fakeStore) SaveAssistantMessage(ctx context.Context, in *repositories.SaveMessageInput) (*models.Message, error) {
	return s.saveMessage(in, "assistant")
}

func (s *fakeStore) GetMessage(ctx context.Context, userID, messageID string) (*models.Message, error) {
	if msg, ok := s.existing[messageID]; ok {
		return msg, nil
	}
	return nil, fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
}

func (s *fakeStore) ListMessages(ctx context.Context, userID, chatID string) ([]models.Message, error) {
	var out []models.Message
	for _, m := range s.messages {
		out = append(out, *m)
	}
	return out, nil
}

func (s *fakeStore) DeleteMessageAndDescendants(ctx context.Context, userID, messageID string) error {
	s.deletedIDs = append(s.deletedIDs, messageID)
	return nil
}

func (s *fakeStore) ListKeyEntries(ctx context.Context, userID string) ([]models.APIKeyEntry, error) {
	var out []models.APIKeyEntry
	for _, e := range s.keyEntries {
		out = append(out, e)
	}
	return out, nil
}

func (s *fakeStore) GetKeyEntry(ctx context.Context, userID, provider string) (*models.APIKeyEntry, error) {
	if e, ok := s.keyEntries[provider]; ok {
		return &e, nil
	}
	return nil, fmt.Errorf("key for %s: %w", provider, domain.ErrNotFound)
}

func (s *fakeStore) GetDecryptedKey(ctx context.Context, userID, provider string) (string, error) {
	if k, ok := s.decryptedKey[provider]; ok {
		return k, nil
	}
	return "", fmt.Errorf("key for %s: %w", provider, domain.ErrNotFound)
}

func (s *fakeStore) PutKey(ctx context.Context, userID, provider, plaintextKey, mode string) error {
	s.addUserKey(provider, plaintextKey, mode)
	return nil
}

func (s *fakeStore) DeleteKey(ctx context.Context, userID, provider string) error {
	delete(s.keyEntries, provider)
	delete(s.decryptedKey, provider)
	return nil
}

func (s *fakeStore) IncrementUserKeyUsage(ctx context.Context, userID, provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userKeyIncrements++
	return nil
}

func (s *fakeStore) IncrementMessageCount(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messageCountIncrements++
	return nil
}

func (s *fakeStore) AssertNotOverLimit(ctx context.Context, userID string) error {
	if s.overLimit {
		return fmt.Errorf("monthly message limit reached: %w", domain.ErrUsageLimit)
	}
	return nil
}

func (s *fakeStore) GetStorageURL(ctx context.Context, storageID string) (string, error) {
	if url, ok := s.storageURLs[storageID]; ok {
		return url, nil
	}
	return "", fmt.Errorf("attachment %s: %w", storageID, domain.ErrNotFound)
}

func (s *fakeStore) assistantMessages() []*models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Message
	for _, m := range s.messages {
		if m.Role == "assistant" {
			out = append(out, m)
		}
	}
	return out
}

// fakeTxManager runs the function directly; the fake store has no
// transaction semantics.
type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

// scriptedProvider replays one script per generation attempt.
type scriptedProvider struct {
	mu       sync.Mutex
	scripts  []providerScript
	attempts int
	// apiKeys records the credential used on each attempt
	apiKeys []string
}

type providerScript struct {
	startErr error
	events   []StreamEvent
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Stream(ctx context.Context, req *GenerateRequest) (<-chan StreamEvent, error) {
	p.mu.Lock()
	index := p.attempts
	p.attempts++
	p.apiKeys = append(p.apiKeys, req.APIKey)
	p.mu.Unlock()

	if index >= len(p.scripts) {
		return nil, fmt.Errorf("no script for attempt %d", index)
	}

	script := p.scripts[index]
	if script.startErr != nil {
		return nil, script.startErr
	}

	ch := make(chan StreamEvent, len(script.events))
	for _, e := range script.events {
		ch <- e
	}
	close(ch)
	return ch, nil
}

func (p *scriptedProvider) attemptCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

func textStream(text string) []StreamEvent {
	return []StreamEvent{
		{Delta: &Delta{Type: DeltaText, Text: text}},
		{Metadata: &StreamMetadata{Model: "scripted-model", InputTokens: 10, OutputTokens: 5, StopReason: StopEndTurn}},
	}
}

// memSink records every stream event in order.
type memSink struct {
	mu     sync.Mutex
	events []sinkEvent
}

type sinkEvent struct {
	name    string
	payload any
}

func (s *memSink) Send(event string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, sinkEvent{name: event, payload: payload})
	return nil
}

func (s *memSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, e := range s.events {
		out = append(out, e.name)
	}
	return out
}
