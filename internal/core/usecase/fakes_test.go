package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
)

type chunkStoreFake struct {
	mu        sync.Mutex
	byProject map[string][]domain.Chunk
	batches   int
	insertErr error
	listErr   error
	listCalls []int
}

func newChunkStoreFake() *chunkStoreFake {
	return &chunkStoreFake{byProject: map[string][]domain.Chunk{}}
}

func (f *chunkStoreFake) InsertBatch(_ context.Context, chunks []domain.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.batches++
	for _, c := range chunks {
		f.byProject[c.ProjectID] = append(f.byProject[c.ProjectID], c)
	}
	return nil
}

func (f *chunkStoreFake) ListByProject(_ context.Context, projectID string, limit int) ([]domain.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, limit)
	if f.listErr != nil {
		return nil, f.listErr
	}
	chunks := f.byProject[projectID]
	if limit > 0 && len(chunks) > limit {
		chunks = chunks[:limit]
	}
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	return out, nil
}

func (f *chunkStoreFake) DeleteBySource(_ context.Context, projectID, source string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.byProject[projectID][:0]
	removed := 0
	for _, c := range f.byProject[projectID] {
		if c.Metadata.Source == source {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	f.byProject[projectID] = kept
	return removed, nil
}

func (f *chunkStoreFake) DeleteByProject(_ context.Context, projectID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.byProject[projectID])
	delete(f.byProject, projectID)
	return n, nil
}

func (f *chunkStoreFake) CountBySourceType(_ context.Context, projectID string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]int{}
	for _, c := range f.byProject[projectID] {
		out[c.SourceType]++
	}
	return out, nil
}

func (f *chunkStoreFake) count(projectID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byProject[projectID])
}

func (f *chunkStoreFake) seed(projectID string, contents ...string) {
	for i, content := range contents {
		f.byProject[projectID] = append(f.byProject[projectID], domain.Chunk{
			ID:         projectID + "-" + string(rune('a'+i)),
			ProjectID:  projectID,
			Content:    content,
			SourceType: domain.SourceTypeFile,
			ChunkIndex: i,
			Metadata:   domain.ChunkMetadata{Source: projectID + ".txt", Title: projectID + ".txt", ChunkIndex: i, TotalChunks: len(contents)},
		})
	}
}

type projectStoreFake struct {
	mu       sync.Mutex
	projects []domain.Project
	created  int
	listErr  error
	deleted  []string
	counts   map[string][2]int
}

func (f *projectStoreFake) FindOrCreateDefault(_ context.Context, ownerID string) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.projects {
		if p.OwnerID == ownerID && p.Name == domain.DefaultProjectName {
			copyP := p
			return &copyP, nil
		}
	}
	f.created++
	p := domain.Project{
		ID:      "default-" + ownerID,
		OwnerID: ownerID,
		Name:    domain.DefaultProjectName,
		Type:    domain.DefaultProjectType,
	}
	f.projects = append(f.projects, p)
	return &p, nil
}

func (f *projectStoreFake) FindDefault(_ context.Context, ownerID string) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.projects {
		if p.OwnerID == ownerID && p.Name == domain.DefaultProjectName {
			copyP := p
			return &copyP, nil
		}
	}
	return nil, domain.ErrProjectNotFound
}

func (f *projectStoreFake) GetByID(_ context.Context, ownerID, projectID string) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.projects {
		if p.ID == projectID && p.OwnerID == ownerID {
			copyP := p
			return &copyP, nil
		}
	}
	return nil, domain.ErrProjectNotFound
}

func (f *projectStoreFake) ListByOwner(_ context.Context, ownerID string) ([]domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []domain.Project{}
	for _, p := range f.projects {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *projectStoreFake) Create(_ context.Context, project *domain.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if project.ID == "" {
		project.ID = fmt.Sprintf("proj-%d", len(f.projects)+1)
	}
	f.projects = append(f.projects, *project)
	return nil
}

func (f *projectStoreFake) Update(_ context.Context, project *domain.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.projects {
		if p.ID == project.ID && p.OwnerID == project.OwnerID {
			f.projects[i] = *project
			return nil
		}
	}
	return domain.ErrProjectNotFound
}

func (f *projectStoreFake) Delete(_ context.Context, ownerID, projectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.projects {
		if p.ID == projectID && p.OwnerID == ownerID {
			f.projects = append(f.projects[:i], f.projects[i+1:]...)
			f.deleted = append(f.deleted, projectID)
			return nil
		}
	}
	return domain.ErrProjectNotFound
}

func (f *projectStoreFake) CountContents(_ context.Context, projectID string) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.counts[projectID]
	return c[0], c[1], nil
}

type docRepoFake struct {
	docs      map[string]*domain.Document
	order     []string
	createErr error
	failed    map[string]string
}

func newDocRepoFake() *docRepoFake {
	return &docRepoFake{docs: map[string]*domain.Document{}, failed: map[string]string{}}
}

func (f *docRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	copyDoc := *doc
	f.docs[doc.ID] = &copyDoc
	f.order = append(f.order, doc.ID)
	return nil
}

func (f *docRepoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	copyDoc := *doc
	return &copyDoc, nil
}

func (f *docRepoFake) MarkCompleted(_ context.Context, id string, meta domain.DocumentMetadata) error {
	doc, ok := f.docs[id]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	doc.Status = domain.StatusCompleted
	doc.Metadata = meta
	return nil
}

func (f *docRepoFake) MarkFailed(_ context.Context, id string, errMessage string) error {
	doc, ok := f.docs[id]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	doc.Status = domain.StatusFailed
	doc.Error = errMessage
	f.failed[id] = errMessage
	return nil
}

func (f *docRepoFake) ListByProject(_ context.Context, projectID string) ([]domain.Document, error) {
	out := []domain.Document{}
	for i := len(f.order) - 1; i >= 0; i-- {
		doc, ok := f.docs[f.order[i]]
		if ok && doc.ProjectID == projectID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f *docRepoFake) Delete(_ context.Context, id string) error {
	if _, ok := f.docs[id]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(f.docs, id)
	return nil
}

func (f *docRepoFake) DeleteByProject(_ context.Context, projectID string) (int, error) {
	n := 0
	for id, doc := range f.docs {
		if doc.ProjectID == projectID {
			delete(f.docs, id)
			n++
		}
	}
	return n, nil
}

type storageFake struct {
	objects map[string][]byte
	saveErr error
	deleted []string
}

func newStorageFake() *storageFake {
	return &storageFake{objects: map[string][]byte{}}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.objects[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *storageFake) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	delete(f.objects, key)
	return nil
}

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishDocumentUploaded(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *queueFake) SubscribeDocumentUploaded(context.Context, func(context.Context, string) error) error {
	return nil
}

// extractorFake returns the raw bytes as text unless err is set.
type extractorFake struct {
	err error
}

func (f *extractorFake) Extract(_ context.Context, data []byte, _, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return string(data), nil
}

type chatModelFake struct {
	reply    string
	err      error
	received []domain.ChatMessage
	block    bool
}

func (f *chatModelFake) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	f.received = messages
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type conversationFake struct {
	chats    map[string]domain.Chat
	messages []domain.ChatMessage
	order    []string
}

func newConversationFake() *conversationFake {
	return &conversationFake{chats: map[string]domain.Chat{}}
}

func (f *conversationFake) CreateChat(_ context.Context, chat *domain.Chat) error {
	f.chats[chat.ID] = *chat
	f.order = append(f.order, chat.ID)
	return nil
}

func (f *conversationFake) GetChat(_ context.Context, ownerID, chatID string) (*domain.Chat, error) {
	chat, ok := f.chats[chatID]
	if !ok || chat.OwnerID != ownerID {
		return nil, domain.ErrChatNotFound
	}
	return &chat, nil
}

func (f *conversationFake) AppendMessage(_ context.Context, message *domain.ChatMessage) error {
	f.messages = append(f.messages, *message)
	return nil
}

func (f *conversationFake) ListRecentMessages(ctx context.Context, chatID string, limit int) ([]domain.ChatMessage, error) {
	all, _ := f.ListMessages(ctx, chatID)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (f *conversationFake) ListMessages(_ context.Context, chatID string) ([]domain.ChatMessage, error) {
	out := []domain.ChatMessage{}
	for _, m := range f.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *conversationFake) SearchMessages(_ context.Context, ownerID, query, _ string, limit int) ([]domain.MessageHit, error) {
	out := []domain.MessageHit{}
	for i := len(f.messages) - 1; i >= 0; i-- {
		m := f.messages[i]
		chat := f.chats[m.ChatID]
		if chat.OwnerID != ownerID || !strings.Contains(strings.ToLower(m.Content), strings.ToLower(query)) {
			continue
		}
		out = append(out, domain.MessageHit{ChatMessage: m, ChatTitle: chat.Title})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// ListChats orders by creation; tests seed chats in activity order.
func (f *conversationFake) ListChats(_ context.Context, ownerID, projectID string, limit int) ([]domain.ChatSummary, error) {
	out := []domain.ChatSummary{}
	for i := len(f.order) - 1; i >= 0 && len(out) < limit; i-- {
		chat, ok := f.chats[f.order[i]]
		if !ok || chat.OwnerID != ownerID || (projectID != "" && chat.ProjectID != projectID) {
			continue
		}
		summary := domain.ChatSummary{Chat: chat, UpdatedAt: chat.CreatedAt}
		for _, m := range f.messages {
			if m.ChatID == chat.ID {
				summary.MessageCount++
				summary.LastMessage = m.Content
			}
		}
		out = append(out, summary)
	}
	return out, nil
}

func (f *conversationFake) SetChatProject(_ context.Context, ownerID, chatID, projectID string) error {
	chat, ok := f.chats[chatID]
	if !ok || chat.OwnerID != ownerID {
		return domain.ErrChatNotFound
	}
	chat.ProjectID = projectID
	f.chats[chatID] = chat
	return nil
}

func (f *conversationFake) DeleteChat(_ context.Context, ownerID, chatID string) error {
	chat, ok := f.chats[chatID]
	if !ok || chat.OwnerID != ownerID {
		return domain.ErrChatNotFound
	}
	delete(f.chats, chatID)
	kept := f.messages[:0]
	for _, m := range f.messages {
		if m.ChatID != chatID {
			kept = append(kept, m)
		}
	}
	f.messages = kept
	return nil
}

// searcherFake records which retrieval mode was used.
type searcherFake struct {
	results     []domain.RetrievalResult
	err         error
	scopedCalls []string
	allCalls    []string
}

func (f *searcherFake) SimilaritySearch(_ context.Context, _ string, projectID string, _ int) ([]domain.RetrievalResult, error) {
	f.scopedCalls = append(f.scopedCalls, projectID)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *searcherFake) SearchProject(ctx context.Context, query, _ string, projectID string, topK int) ([]domain.RetrievalResult, error) {
	return f.SimilaritySearch(ctx, query, projectID, topK)
}

func (f *searcherFake) SearchAll(_ context.Context, _ string, ownerID string) ([]domain.RetrievalResult, error) {
	f.allCalls = append(f.allCalls, ownerID)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type responderFake struct {
	reply   string
	history []domain.ChatMessage
}

func (f *responderFake) GenerateResponse(_ context.Context, _ string, _ []domain.RetrievalResult, history []domain.ChatMessage) string {
	f.history = history
	return f.reply
}

type observerFake struct {
	reasons []string
}

func (f *observerFake) RecordLLMFallback(reason string) {
	f.reasons = append(f.reasons, reason)
}

// fixedScorer scores by a lookup table keyed on chunk content.
type fixedScorer map[string]float64

func (s fixedScorer) Score(_ string, content string) float64 {
	return s[content]
}

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
