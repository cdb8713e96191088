package models

import (
	"maps"
	"slices"
	"time"
)

// ContentSource says where generated material draws its facts from.
type ContentSource string

const (
	ContentSourcePrebook  ContentSource = "prebook"
	ContentSourceExternal ContentSource = "external"
)

// Valid reports whether s is one of the known content sources.
func (s ContentSource) Valid() bool {
	return s == ContentSourcePrebook || s == ContentSourceExternal
}

// Role of a chat message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

// Agent types known to the platform.
const (
	AgentLessonPlanner          = "lesson-planner"
	AgentDifferentiatedMaterial = "differentiated-materials"
	AgentKnowledgeBase          = "knowledge-base"
	AgentVisualAids             = "visual-aids"
	AgentARIntegration          = "ar-integration"
	AgentGamifiedTeaching       = "gamified-teaching"
	AgentContentGeneration      = "content-generation"
)

// User represents a teacher signed in through the external identity provider.
type User struct {
	ID         int64     `db:"id" json:"id"`
	Email      string    `db:"email" json:"email"`
	Name       string    `db:"name" json:"name"`
	ExternalID string    `db:"external_id" json:"externalId"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// AgentConfiguration is a user's grade/language/source settings for one agent.
type AgentConfiguration struct {
	ID            int64         `db:"id" json:"id"`
	UserID        int64         `db:"user_id" json:"userId"`
	AgentType     string        `db:"agent_type" json:"agentType"`
	Grades        []int         `db:"grades" json:"grades"`
	ContentSource ContentSource `db:"content_source" json:"contentSource"`
	Languages     []string      `db:"languages" json:"languages,omitempty"`
	IsActive      bool          `db:"is_active" json:"isActive"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
}

func (c AgentConfiguration) Clone() AgentConfiguration {
	c.Grades = slices.Clone(c.Grades)
	c.Languages = slices.Clone(c.Languages)
	return c
}

// AgentConfigPatch carries the fields of an AgentConfiguration update.
// Nil fields are left untouched.
type AgentConfigPatch struct {
	AgentType     *string        `json:"agentType,omitempty"`
	Grades        *[]int         `json:"grades,omitempty"`
	ContentSource *ContentSource `json:"contentSource,omitempty"`
	Languages     *[]string      `json:"languages,omitempty"`
	IsActive      *bool          `json:"isActive,omitempty"`
}

// Apply merges the patch over c. ID, UserID and CreatedAt are never touched.
func (p AgentConfigPatch) Apply(c AgentConfiguration) AgentConfiguration {
	if p.AgentType != nil {
		c.AgentType = *p.AgentType
	}
	if p.Grades != nil {
		c.Grades = slices.Clone(*p.Grades)
	}
	if p.ContentSource != nil {
		c.ContentSource = *p.ContentSource
	}
	if p.Languages != nil {
		c.Languages = slices.Clone(*p.Languages)
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
	return c
}

// ChatSession groups the messages of one conversation.
type ChatSession struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"userId"`
	SessionName string    `db:"session_name" json:"sessionName"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// ChatMessage is one turn of a chat session.
type ChatMessage struct {
	ID        int64          `db:"id" json:"id"`
	SessionID int64          `db:"session_id" json:"sessionId"`
	Role      Role           `db:"role" json:"role"`
	Content   string         `db:"content" json:"content"`
	Metadata  map[string]any `db:"metadata" json:"metadata"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

func (m ChatMessage) Clone() ChatMessage {
	m.Metadata = CloneMetadata(m.Metadata)
	return m
}

// GeneratedContent is an AI generated artefact saved for a user.
type GeneratedContent struct {
	ID        int64          `db:"id" json:"id"`
	UserID    int64          `db:"user_id" json:"userId"`
	AgentType string         `db:"agent_type" json:"agentType"`
	Title     string         `db:"title" json:"title"`
	Content   string         `db:"content" json:"content"`
	Metadata  map[string]any `db:"metadata" json:"metadata"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

func (g GeneratedContent) Clone() GeneratedContent {
	g.Metadata = CloneMetadata(g.Metadata)
	return g
}

// NCERTTextbook is one catalogued NCERT book.
type NCERTTextbook struct {
	ID               int64          `db:"id" json:"id"`
	Class            int            `db:"class" json:"class"`
	Subject          string         `db:"subject" json:"subject"`
	BookTitle        string         `db:"book_title" json:"bookTitle"`
	Language         string         `db:"language" json:"language"`
	PDFURL           string         `db:"pdf_url" json:"pdfUrl"`
	DownloadedAt     *time.Time     `db:"downloaded_at" json:"downloadedAt,omitempty"`
	ContentExtracted bool           `db:"content_extracted" json:"contentExtracted"`
	Metadata         map[string]any `db:"metadata" json:"metadata"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updatedAt"`
}

func (t NCERTTextbook) Clone() NCERTTextbook {
	t.Metadata = CloneMetadata(t.Metadata)
	if t.DownloadedAt != nil {
		d := *t.DownloadedAt
		t.DownloadedAt = &d
	}
	return t
}

// TextbookPatch carries the mutable fields of a textbook.
type TextbookPatch struct {
	PDFURL           *string        `json:"pdfUrl,omitempty"`
	DownloadedAt     *time.Time     `json:"downloadedAt,omitempty"`
	ContentExtracted *bool          `json:"contentExtracted,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// Apply merges the patch over t. Metadata keys are merged one by one.
func (p TextbookPatch) Apply(t NCERTTextbook) NCERTTextbook {
	if p.PDFURL != nil {
		t.PDFURL = *p.PDFURL
	}
	if p.DownloadedAt != nil {
		d := *p.DownloadedAt
		t.DownloadedAt = &d
	}
	if p.ContentExtracted != nil {
		t.ContentExtracted = *p.ContentExtracted
	}
	if p.Metadata != nil {
		merged := CloneMetadata(t.Metadata)
		if merged == nil {
			merged = make(map[string]any, len(p.Metadata))
		}
		maps.Copy(merged, CloneMetadata(p.Metadata))
		t.Metadata = merged
	}
	return t
}

// TextbookFilter narrows textbook listings. Zero values mean "any".
type TextbookFilter struct {
	Class    int
	Subject  string
	Language string
}

func (f TextbookFilter) Match(t NCERTTextbook) bool {
	if f.Class != 0 && t.Class != f.Class {
		return false
	}
	if f.Subject != "" && t.Subject != f.Subject {
		return false
	}
	if f.Language != "" && t.Language != f.Language {
		return false
	}
	return true
}

// TextbookChunk is a passage of extracted textbook text with its embedding.
type TextbookChunk struct {
	ID         int64     `db:"id" json:"id"`
	TextbookID int64     `db:"textbook_id" json:"textbookId"`
	Position   int       `db:"position" json:"position"`
	Text       string    `db:"text" json:"text"`
	Embedding  []float32 `db:"embedding" json:"-"`
	TokenCount int       `db:"token_count" json:"tokenCount"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// ScoredChunk is a search hit joined with its textbook.
type ScoredChunk struct {
	Chunk    TextbookChunk `json:"chunk"`
	Textbook NCERTTextbook `json:"textbook"`
	Score    float32       `json:"score"`
}

// ChunkFilter restricts chunk search to textbooks of a class/subject.
type ChunkFilter struct {
	Class   int
	Subject string
}

// Source is a reference backing a knowledge-base answer.
type Source struct {
	Kind    string `json:"kind"` // "ncert" or "external"
	Title   string `json:"title"`
	Class   int    `json:"class,omitempty"`
	Subject string `json:"subject,omitempty"`
	Chapter string `json:"chapter,omitempty"`
	URL     string `json:"url,omitempty"`
}

// KnowledgeEntry is one question/answer exchange of the knowledge base.
type KnowledgeEntry struct {
	ID                int64          `db:"id" json:"id"`
	UserID            int64          `db:"user_id" json:"userId"`
	Question          string         `db:"question" json:"question"`
	Answer            string         `db:"answer" json:"answer"`
	Explanation       string         `db:"explanation" json:"explanation"`
	Grade             int            `db:"grade" json:"grade"`
	Subject           string         `db:"subject" json:"subject"`
	Language          string         `db:"language" json:"language"`
	Confidence        float64        `db:"confidence" json:"confidence"`
	Sources           []Source       `db:"sources" json:"sources"`
	Analogies         []string       `db:"analogies" json:"analogies"`
	FollowUpQuestions []string       `db:"follow_up_questions" json:"followUpQuestions"`
	Metadata          map[string]any `db:"metadata" json:"metadata"`
	CreatedAt         time.Time      `db:"created_at" json:"createdAt"`
}

func (k KnowledgeEntry) Clone() KnowledgeEntry {
	k.Sources = slices.Clone(k.Sources)
	k.Analogies = slices.Clone(k.Analogies)
	k.FollowUpQuestions = slices.Clone(k.FollowUpQuestions)
	k.Metadata = CloneMetadata(k.Metadata)
	return k
}

// KnowledgeSearch is a history search request. Zero Subject/Grade mean "any".
type KnowledgeSearch struct {
	Query   string
	Subject string
	Grade   int
}

// AssetModel describes a 3D model found by the asset search.
type AssetModel struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Thumbnail   string   `json:"thumbnail"`
	Source      string   `json:"source"`
	URL         string   `json:"url"`
	EmbedURL    string   `json:"embedUrl"`
	Tags        []string `json:"tags"`
	Author      string   `json:"author"`
	License     string   `json:"license"`
}
