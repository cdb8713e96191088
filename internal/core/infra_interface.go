package core

import (
	"context"
	"io"

	"github.com/markdave123-py/EduAI/internal/models"
)

// DomainStore defines all persistence operations the services need.
// It abstracts Postgres/pgvector and the in-memory store so higher layers
// never depend on a specific backend. Create methods fill in the id and
// timestamps of the passed record.
type DomainStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateAgentConfiguration(ctx context.Context, cfg *models.AgentConfiguration) error
	GetAgentConfiguration(ctx context.Context, id int64) (*models.AgentConfiguration, error)
	ListAgentConfigurations(ctx context.Context, userID int64) ([]models.AgentConfiguration, error)
	UpdateAgentConfiguration(ctx context.Context, id int64, patch models.AgentConfigPatch) (*models.AgentConfiguration, error)

	CreateChatSession(ctx context.Context, session *models.ChatSession) error
	GetChatSession(ctx context.Context, id int64) (*models.ChatSession, error)
	ListChatSessions(ctx context.Context, userID int64) ([]models.ChatSession, error)

	CreateChatMessage(ctx context.Context, msg *models.ChatMessage) error
	ListChatMessages(ctx context.Context, sessionID int64) ([]models.ChatMessage, error)

	CreateGeneratedContent(ctx context.Context, content *models.GeneratedContent) error
	GetGeneratedContent(ctx context.Context, id int64) (*models.GeneratedContent, error)
	// ListGeneratedContent returns a user's content; an empty agentType means all types.
	ListGeneratedContent(ctx context.Context, userID int64, agentType string) ([]models.GeneratedContent, error)

	CreateNCERTTextbook(ctx context.Context, book *models.NCERTTextbook) error
	GetNCERTTextbook(ctx context.Context, id int64) (*models.NCERTTextbook, error)
	ListNCERTTextbooks(ctx context.Context, filter models.TextbookFilter) ([]models.NCERTTextbook, error)
	UpdateNCERTTextbook(ctx context.Context, id int64, patch models.TextbookPatch) (*models.NCERTTextbook, error)
	// ClearNCERTTextbooks removes every textbook and its chunks.
	ClearNCERTTextbooks(ctx context.Context) error

	InsertTextbookChunks(ctx context.Context, chunks []models.TextbookChunk) error
	// DeleteTextbookChunks removes a textbook's chunks and reports how many were removed.
	DeleteTextbookChunks(ctx context.Context, textbookID int64) (int, error)
	SearchTextbookChunks(ctx context.Context, queryVec []float32, filter models.ChunkFilter, limit int) ([]models.ScoredChunk, error)

	CreateKnowledgeEntry(ctx context.Context, entry *models.KnowledgeEntry) error
	// ListKnowledgeHistory is newest-first; limit <= 0 returns everything after offset.
	ListKnowledgeHistory(ctx context.Context, userID int64, limit, offset int) ([]models.KnowledgeEntry, error)
	SearchKnowledgeHistory(ctx context.Context, userID int64, search models.KnowledgeSearch) ([]models.KnowledgeEntry, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data io.Reader, contentType string) (url string, err error)
	GetFile(ctx context.Context, key string) ([]byte, error)
	DeleteFile(ctx context.Context, key string) error
}

// AssetSearcher finds 3D models for AR lessons.
type AssetSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.AssetModel, error)
	EmbedURL(id string, options map[string]bool) string
}
