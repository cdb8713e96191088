package db

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/markdave123-py/EduAI/internal/core"
	"github.com/markdave123-py/EduAI/internal/models"
)

// table keeps rows in insertion order with an id index. Ids come from a
// per-table counter that is never rewound, so ids are never reused.
type table[T any] struct {
	rows  []T
	ids   []int64
	index map[int64]int
	next  int64
}

func newTable[T any]() *table[T] {
	return &table[T]{index: make(map[int64]int)}
}

func (t *table[T]) allocate() int64 {
	t.next++
	return t.next
}

func (t *table[T]) insert(id int64, row T) {
	t.index[id] = len(t.rows)
	t.rows = append(t.rows, row)
	t.ids = append(t.ids, id)
}

func (t *table[T]) get(id int64) (T, bool) {
	i, ok := t.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return t.rows[i], true
}

func (t *table[T]) set(id int64, row T) {
	t.rows[t.index[id]] = row
}

func (t *table[T]) has(id int64) bool {
	_, ok := t.index[id]
	return ok
}

// remove drops the rows matching drop and rebuilds the index. The counter
// is left alone.
func (t *table[T]) remove(drop func(T) bool) int {
	rows := make([]T, 0, len(t.rows))
	ids := make([]int64, 0, len(t.ids))
	index := make(map[int64]int, len(t.index))
	for i, row := range t.rows {
		if drop(row) {
			continue
		}
		index[t.ids[i]] = len(rows)
		rows = append(rows, row)
		ids = append(ids, t.ids[i])
	}
	removed := len(t.rows) - len(rows)
	t.rows, t.ids, t.index = rows, ids, index
	return removed
}

func (t *table[T]) reset() {
	t.rows = nil
	t.ids = nil
	t.index = make(map[int64]int)
}

// MemoryStore is a process-lifetime DomainStore. It is the default backend for
// local development and the test double for everything above the store.
type MemoryStore struct {
	mu  sync.RWMutex
	now func() time.Time

	users     *table[models.User]
	configs   *table[models.AgentConfiguration]
	sessions  *table[models.ChatSession]
	messages  *table[models.ChatMessage]
	contents  *table[models.GeneratedContent]
	textbooks *table[models.NCERTTextbook]
	chunks    *table[models.TextbookChunk]
	history   *table[models.KnowledgeEntry]
}

var _ core.DomainStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:       time.Now,
		users:     newTable[models.User](),
		configs:   newTable[models.AgentConfiguration](),
		sessions:  newTable[models.ChatSession](),
		messages:  newTable[models.ChatMessage](),
		contents:  newTable[models.GeneratedContent](),
		textbooks: newTable[models.NCERTTextbook](),
		chunks:    newTable[models.TextbookChunk](),
		history:   newTable[models.KnowledgeEntry](),
	}
}

func (s *MemoryStore) Close() error { return nil }

// Users

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("nil user")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.users.allocate()
	for _, u := range s.users.rows {
		if u.Email == user.Email || u.ExternalID == user.ExternalID {
			return fmt.Errorf("create user %q: %w", user.Email, models.ErrConflict)
		}
	}
	user.ID = id
	user.CreatedAt = s.now()
	s.users.insert(id, *user)
	return nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users.get(id)
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByExternalID(_ context.Context, externalID string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.ExternalID == externalID }, externalID)
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Email == email }, email)
}

func (s *MemoryStore) findUser(match func(models.User) bool, key string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users.rows {
		if match(u) {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", key, models.ErrNotFound)
}

// Agent configurations

func (s *MemoryStore) CreateAgentConfiguration(_ context.Context, cfg *models.AgentConfiguration) error {
	if cfg == nil {
		return fmt.Errorf("nil agent configuration")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.configs.allocate()
	if !s.users.has(cfg.UserID) {
		return fmt.Errorf("agent configuration for user %d: %w", cfg.UserID, models.ErrInvalidReference)
	}
	cfg.ID = id
	cfg.IsActive = true
	cfg.CreatedAt = s.now()
	s.configs.insert(id, cfg.Clone())
	return nil
}

func (s *MemoryStore) GetAgentConfiguration(_ context.Context, id int64) (*models.AgentConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.configs.get(id)
	if !ok {
		return nil, fmt.Errorf("agent configuration %d: %w", id, models.ErrNotFound)
	}
	c = c.Clone()
	return &c, nil
}

func (s *MemoryStore) ListAgentConfigurations(_ context.Context, userID int64) ([]models.AgentConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.AgentConfiguration{}
	for _, c := range s.configs.rows {
		if c.UserID == userID {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateAgentConfiguration(_ context.Context, id int64, patch models.AgentConfigPatch) (*models.AgentConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.configs.get(id)
	if !ok {
		return nil, fmt.Errorf("agent configuration %d: %w", id, models.ErrNotFound)
	}
	updated := patch.Apply(c.Clone())
	s.configs.set(id, updated)
	updated = updated.Clone()
	return &updated, nil
}

// Chat

func (s *MemoryStore) CreateChatSession(_ context.Context, session *models.ChatSession) error {
	if session == nil {
		return fmt.Errorf("nil chat session")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.sessions.allocate()
	if !s.users.has(session.UserID) {
		return fmt.Errorf("chat session for user %d: %w", session.UserID, models.ErrInvalidReference)
	}
	session.ID = id
	session.CreatedAt = s.now()
	s.sessions.insert(id, *session)
	return nil
}

func (s *MemoryStore) GetChatSession(_ context.Context, id int64) (*models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cs, ok := s.sessions.get(id)
	if !ok {
		return nil, fmt.Errorf("chat session %d: %w", id, models.ErrNotFound)
	}
	return &cs, nil
}

func (s *MemoryStore) ListChatSessions(_ context.Context, userID int64) ([]models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.ChatSession{}
	for _, cs := range s.sessions.rows {
		if cs.UserID == userID {
			out = append(out, cs)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateChatMessage(_ context.Context, msg *models.ChatMessage) error {
	if msg == nil {
		return fmt.Errorf("nil chat message")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.messages.allocate()
	if !s.sessions.has(msg.SessionID) {
		return fmt.Errorf("chat message for session %d: %w", msg.SessionID, models.ErrInvalidReference)
	}
	msg.ID = id
	msg.CreatedAt = s.now()
	s.messages.insert(id, msg.Clone())
	return nil
}

func (s *MemoryStore) ListChatMessages(_ context.Context, sessionID int64) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.ChatMessage{}
	for _, m := range s.messages.rows {
		if m.SessionID == sessionID {
			out = append(out, m.Clone())
		}
	}
	return out, nil
}

// Generated content

func (s *MemoryStore) CreateGeneratedContent(_ context.Context, content *models.GeneratedContent) error {
	if content == nil {
		return fmt.Errorf("nil generated content")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.contents.allocate()
	if !s.users.has(content.UserID) {
		return fmt.Errorf("generated content for user %d: %w", content.UserID, models.ErrInvalidReference)
	}
	content.ID = id
	content.CreatedAt = s.now()
	s.contents.insert(id, content.Clone())
	return nil
}

func (s *MemoryStore) GetGeneratedContent(_ context.Context, id int64) (*models.GeneratedContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.contents.get(id)
	if !ok {
		return nil, fmt.Errorf("generated content %d: %w", id, models.ErrNotFound)
	}
	g = g.Clone()
	return &g, nil
}

func (s *MemoryStore) ListGeneratedContent(_ context.Context, userID int64, agentType string) ([]models.GeneratedContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.GeneratedContent{}
	for _, g := range s.contents.rows {
		if g.UserID != userID {
			continue
		}
		if agentType != "" && g.AgentType != agentType {
			continue
		}
		out = append(out, g.Clone())
	}
	return out, nil
}

// NCERT textbooks

func (s *MemoryStore) CreateNCERTTextbook(_ context.Context, book *models.NCERTTextbook) error {
	if book == nil {
		return fmt.Errorf("nil textbook")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	book.ID = s.textbooks.allocate()
	book.CreatedAt = now
	book.UpdatedAt = now
	s.textbooks.insert(book.ID, book.Clone())
	return nil
}

func (s *MemoryStore) GetNCERTTextbook(_ context.Context, id int64) (*models.NCERTTextbook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.textbooks.get(id)
	if !ok {
		return nil, fmt.Errorf("textbook %d: %w", id, models.ErrNotFound)
	}
	t = t.Clone()
	return &t, nil
}

func (s *MemoryStore) ListNCERTTextbooks(_ context.Context, filter models.TextbookFilter) ([]models.NCERTTextbook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.NCERTTextbook{}
	for _, t := range s.textbooks.rows {
		if filter.Match(t) {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateNCERTTextbook(_ context.Context, id int64, patch models.TextbookPatch) (*models.NCERTTextbook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.textbooks.get(id)
	if !ok {
		return nil, fmt.Errorf("textbook %d: %w", id, models.ErrNotFound)
	}
	updated := patch.Apply(t.Clone())
	updated.UpdatedAt = s.now()
	s.textbooks.set(id, updated)
	updated = updated.Clone()
	return &updated, nil
}

func (s *MemoryStore) ClearNCERTTextbooks(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chunks.reset()
	s.textbooks.reset()
	return nil
}

func (s *MemoryStore) InsertTextbookChunks(_ context.Context, chunks []models.TextbookChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range chunks {
		if !s.textbooks.has(ch.TextbookID) {
			return fmt.Errorf("chunk for textbook %d: %w", ch.TextbookID, models.ErrInvalidReference)
		}
	}
	now := s.now()
	for _, ch := range chunks {
		ch.ID = s.chunks.allocate()
		ch.CreatedAt = now
		ch.Embedding = append([]float32(nil), ch.Embedding...)
		s.chunks.insert(ch.ID, ch)
	}
	return nil
}

func (s *MemoryStore) DeleteTextbookChunks(_ context.Context, textbookID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.chunks.remove(func(ch models.TextbookChunk) bool { return ch.TextbookID == textbookID })
	return n, nil
}

func (s *MemoryStore) SearchTextbookChunks(_ context.Context, queryVec []float32, filter models.ChunkFilter, limit int) ([]models.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookFilter := models.TextbookFilter{Class: filter.Class, Subject: filter.Subject}
	var out []models.ScoredChunk
	for _, ch := range s.chunks.rows {
		book, ok := s.textbooks.get(ch.TextbookID)
		if !ok || !bookFilter.Match(book) {
			continue
		}
		score, err := cosineSimilarity(queryVec, ch.Embedding)
		if err != nil {
			continue
		}
		ch.Embedding = append([]float32(nil), ch.Embedding...)
		out = append(out, models.ScoredChunk{Chunk: ch, Textbook: book.Clone(), Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Knowledge base history

func (s *MemoryStore) CreateKnowledgeEntry(_ context.Context, entry *models.KnowledgeEntry) error {
	if entry == nil {
		return fmt.Errorf("nil knowledge entry")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.history.allocate()
	if !s.users.has(entry.UserID) {
		return fmt.Errorf("knowledge entry for user %d: %w", entry.UserID, models.ErrInvalidReference)
	}
	entry.ID = id
	entry.CreatedAt = s.now()
	s.history.insert(id, entry.Clone())
	return nil
}

func (s *MemoryStore) ListKnowledgeHistory(_ context.Context, userID int64, limit, offset int) ([]models.KnowledgeEntry, error) {
	entries := s.newestFirst(userID, func(models.KnowledgeEntry) bool { return true })
	return page(entries, limit, offset), nil
}

func (s *MemoryStore) SearchKnowledgeHistory(_ context.Context, userID int64, search models.KnowledgeSearch) ([]models.KnowledgeEntry, error) {
	term := strings.ToLower(search.Query)
	return s.newestFirst(userID, func(e models.KnowledgeEntry) bool {
		if search.Subject != "" && e.Subject != search.Subject {
			return false
		}
		if search.Grade != 0 && e.Grade != search.Grade {
			return false
		}
		return strings.Contains(strings.ToLower(e.Question), term) ||
			strings.Contains(strings.ToLower(e.Answer), term) ||
			strings.Contains(strings.ToLower(e.Explanation), term)
	}), nil
}

// newestFirst walks history backwards; ids grow with creation time.
func (s *MemoryStore) newestFirst(userID int64, match func(models.KnowledgeEntry) bool) []models.KnowledgeEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.KnowledgeEntry{}
	for i := len(s.history.rows) - 1; i >= 0; i-- {
		e := s.history.rows[i]
		if e.UserID == userID && match(e) {
			out = append(out, e.Clone())
		}
	}
	return out
}

func page[T any](rows []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return []T{}
	}
	rows = rows[offset:]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
