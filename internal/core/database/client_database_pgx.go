package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/markdave123-py/EduAI/internal/config"
	"github.com/markdave123-py/EduAI/internal/core"
	"github.com/markdave123-py/EduAI/internal/models"
)

// Postgres error codes mapped onto store errors.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// DatabaseClient is the Postgres/pgvector DomainStore.
type DatabaseClient struct {
	db *sql.DB
}

var _ core.DomainStore = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	dsn := cfg.DatabaseURL
	if cfg.SslCertPath != "" {
		if _, err := os.Stat(cfg.SslCertPath); err != nil {
			return nil, fmt.Errorf("ssl cert not accessible at %q: %w", cfg.SslCertPath, err)
		}
		u, err := url.Parse(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		q := u.Query()
		q.Set("sslmode", "verify-ca")
		q.Set("sslrootcert", cfg.SslCertPath)
		u.RawQuery = q.Encode()
		dsn = u.String()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// mapError translates driver errors into store errors.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, models.ErrInvalidReference)
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w", op, models.ErrConflict)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// jsonValue encodes v for a JSONB column; nil maps and slices become SQL NULL.
func jsonValue(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return nil, nil
		}
	case []string:
		if t == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func scanJSON(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// Users

const userColumns = `id, email, name, external_id, created_at`

func scanUser(r rowScanner) (*models.User, error) {
	var u models.User
	if err := r.Scan(&u.ID, &u.Email, &u.Name, &u.ExternalID, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (email, name, external_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := c.db.QueryRowContext(ctx, q, user.Email, user.Name, user.ExternalID).Scan(&user.ID, &user.CreatedAt)
	return mapError("create user", err)
}

func (c *DatabaseClient) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(c.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return u, mapError(fmt.Sprintf("user %d", id), err)
}

func (c *DatabaseClient) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	u, err := scanUser(c.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE external_id = $1`, externalID))
	return u, mapError(fmt.Sprintf("user %q", externalID), err)
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(c.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	return u, mapError(fmt.Sprintf("user %q", email), err)
}

// Agent configurations

const configColumns = `id, user_id, agent_type, grades, content_source, languages, is_active, created_at`

func scanConfig(r rowScanner) (*models.AgentConfiguration, error) {
	var (
		cfg       models.AgentConfiguration
		grades    []byte
		languages []byte
	)
	if err := r.Scan(&cfg.ID, &cfg.UserID, &cfg.AgentType, &grades, &cfg.ContentSource, &languages, &cfg.IsActive, &cfg.CreatedAt); err != nil {
		return nil, err
	}
	if err := scanJSON(grades, &cfg.Grades); err != nil {
		return nil, fmt.Errorf("decode grades: %w", err)
	}
	if err := scanJSON(languages, &cfg.Languages); err != nil {
		return nil, fmt.Errorf("decode languages: %w", err)
	}
	return &cfg, nil
}

func (c *DatabaseClient) CreateAgentConfiguration(ctx context.Context, cfg *models.AgentConfiguration) error {
	if cfg == nil {
		return errors.New("nil agent configuration")
	}
	grades, err := json.Marshal(cfg.Grades)
	if err != nil {
		return fmt.Errorf("encode grades: %w", err)
	}
	languages, err := jsonValue(cfg.Languages)
	if err != nil {
		return fmt.Errorf("encode languages: %w", err)
	}
	const q = `
		INSERT INTO agent_configurations (user_id, agent_type, grades, content_source, languages, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id, is_active, created_at
	`
	err = c.db.QueryRowContext(ctx, q, cfg.UserID, cfg.AgentType, string(grades), cfg.ContentSource, languages).
		Scan(&cfg.ID, &cfg.IsActive, &cfg.CreatedAt)
	return mapError("create agent configuration", err)
}

func (c *DatabaseClient) GetAgentConfiguration(ctx context.Context, id int64) (*models.AgentConfiguration, error) {
	cfg, err := scanConfig(c.db.QueryRowContext(ctx, `SELECT `+configColumns+` FROM agent_configurations WHERE id = $1`, id))
	return cfg, mapError(fmt.Sprintf("agent configuration %d", id), err)
}

func (c *DatabaseClient) ListAgentConfigurations(ctx context.Context, userID int64) ([]models.AgentConfiguration, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+configColumns+` FROM agent_configurations WHERE user_id = $1 ORDER BY id ASC`, userID)
	if err != nil {
		return nil, mapError("list agent configurations", err)
	}
	defer rows.Close()

	out := []models.AgentConfiguration{}
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cfg)
	}
	return out, rows.Err()
}

// UpdateAgentConfiguration merges the patch in Go under a row lock so both
// backends share one merge rule.
func (c *DatabaseClient) UpdateAgentConfiguration(ctx context.Context, id int64, patch models.AgentConfigPatch) (*models.AgentConfiguration, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanConfig(tx.QueryRowContext(ctx, `SELECT `+configColumns+` FROM agent_configurations WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapError(fmt.Sprintf("agent configuration %d", id), err)
	}
	updated := patch.Apply(*current)

	grades, err := json.Marshal(updated.Grades)
	if err != nil {
		return nil, fmt.Errorf("encode grades: %w", err)
	}
	languages, err := jsonValue(updated.Languages)
	if err != nil {
		return nil, fmt.Errorf("encode languages: %w", err)
	}
	const q = `
		UPDATE agent_configurations
		SET agent_type = $2, grades = $3, content_source = $4, languages = $5, is_active = $6
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, q, id, updated.AgentType, string(grades), updated.ContentSource, languages, updated.IsActive); err != nil {
		return nil, mapError(fmt.Sprintf("update agent configuration %d", id), err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &updated, nil
}

// Chat

const sessionColumns = `id, user_id, session_name, created_at`

func scanSession(r rowScanner) (*models.ChatSession, error) {
	var s models.ChatSession
	if err := r.Scan(&s.ID, &s.UserID, &s.SessionName, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *DatabaseClient) CreateChatSession(ctx context.Context, session *models.ChatSession) error {
	if session == nil {
		return errors.New("nil chat session")
	}
	const q = `
		INSERT INTO chat_sessions (user_id, session_name)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	err := c.db.QueryRowContext(ctx, q, session.UserID, session.SessionName).Scan(&session.ID, &session.CreatedAt)
	return mapError("create chat session", err)
}

func (c *DatabaseClient) GetChatSession(ctx context.Context, id int64) (*models.ChatSession, error) {
	s, err := scanSession(c.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM chat_sessions WHERE id = $1`, id))
	return s, mapError(fmt.Sprintf("chat session %d", id), err)
}

func (c *DatabaseClient) ListChatSessions(ctx context.Context, userID int64) ([]models.ChatSession, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM chat_sessions WHERE user_id = $1 ORDER BY id ASC`, userID)
	if err != nil {
		return nil, mapError("list chat sessions", err)
	}
	defer rows.Close()

	out := []models.ChatSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) CreateChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	if msg == nil {
		return errors.New("nil chat message")
	}
	meta, err := jsonValue(msg.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	const q = `
		INSERT INTO chat_messages (session_id, role, content, metadata)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err = c.db.QueryRowContext(ctx, q, msg.SessionID, msg.Role, msg.Content, meta).Scan(&msg.ID, &msg.CreatedAt)
	return mapError("create chat message", err)
}

func (c *DatabaseClient) ListChatMessages(ctx context.Context, sessionID int64) ([]models.ChatMessage, error) {
	const q = `
		SELECT id, session_id, role, content, metadata, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY id ASC
	`
	rows, err := c.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, mapError("list chat messages", err)
	}
	defer rows.Close()

	out := []models.ChatMessage{}
	for rows.Next() {
		var (
			m    models.ChatMessage
			meta []byte
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &meta, &m.CreatedAt); err != nil {
			return nil, err
		}
		if err := scanJSON(meta, &m.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Generated content

const contentColumns = `id, user_id, agent_type, title, content, metadata, created_at`

func scanContent(r rowScanner) (*models.GeneratedContent, error) {
	var (
		g    models.GeneratedContent
		meta []byte
	)
	if err := r.Scan(&g.ID, &g.UserID, &g.AgentType, &g.Title, &g.Content, &meta, &g.CreatedAt); err != nil {
		return nil, err
	}
	if err := scanJSON(meta, &g.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &g, nil
}

func (c *DatabaseClient) CreateGeneratedContent(ctx context.Context, content *models.GeneratedContent) error {
	if content == nil {
		return errors.New("nil generated content")
	}
	meta, err := jsonValue(content.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	const q = `
		INSERT INTO generated_content (user_id, agent_type, title, content, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err = c.db.QueryRowContext(ctx, q, content.UserID, content.AgentType, content.Title, content.Content, meta).
		Scan(&content.ID, &content.CreatedAt)
	return mapError("create generated content", err)
}

func (c *DatabaseClient) GetGeneratedContent(ctx context.Context, id int64) (*models.GeneratedContent, error) {
	g, err := scanContent(c.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM generated_content WHERE id = $1`, id))
	return g, mapError(fmt.Sprintf("generated content %d", id), err)
}

func (c *DatabaseClient) ListGeneratedContent(ctx context.Context, userID int64, agentType string) ([]models.GeneratedContent, error) {
	const q = `
		SELECT ` + contentColumns + `
		FROM generated_content
		WHERE user_id = $1 AND ($2 = '' OR agent_type = $2)
		ORDER BY id ASC
	`
	rows, err := c.db.QueryContext(ctx, q, userID, agentType)
	if err != nil {
		return nil, mapError("list generated content", err)
	}
	defer rows.Close()

	out := []models.GeneratedContent{}
	for rows.Next() {
		g, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

// NCERT textbooks

const textbookColumns = `id, class, subject, book_title, language, pdf_url, downloaded_at, content_extracted, metadata, created_at, updated_at`

func scanTextbook(r rowScanner) (*models.NCERTTextbook, error) {
	var (
		t            models.NCERTTextbook
		downloadedAt sql.NullTime
		meta         []byte
	)
	if err := r.Scan(&t.ID, &t.Class, &t.Subject, &t.BookTitle, &t.Language, &t.PDFURL, &downloadedAt,
		&t.ContentExtracted, &meta, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if downloadedAt.Valid {
		t.DownloadedAt = &downloadedAt.Time
	}
	if err := scanJSON(meta, &t.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &t, nil
}

func (c *DatabaseClient) CreateNCERTTextbook(ctx context.Context, book *models.NCERTTextbook) error {
	if book == nil {
		return errors.New("nil textbook")
	}
	meta, err := jsonValue(book.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	const q = `
		INSERT INTO ncert_textbooks (class, subject, book_title, language, pdf_url, downloaded_at, content_extracted, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err = c.db.QueryRowContext(ctx, q, book.Class, book.Subject, book.BookTitle, book.Language, book.PDFURL,
		book.DownloadedAt, book.ContentExtracted, meta).
		Scan(&book.ID, &book.CreatedAt, &book.UpdatedAt)
	return mapError("create textbook", err)
}

func (c *DatabaseClient) GetNCERTTextbook(ctx context.Context, id int64) (*models.NCERTTextbook, error) {
	t, err := scanTextbook(c.db.QueryRowContext(ctx, `SELECT `+textbookColumns+` FROM ncert_textbooks WHERE id = $1`, id))
	return t, mapError(fmt.Sprintf("textbook %d", id), err)
}

func (c *DatabaseClient) ListNCERTTextbooks(ctx context.Context, filter models.TextbookFilter) ([]models.NCERTTextbook, error) {
	const q = `
		SELECT ` + textbookColumns + `
		FROM ncert_textbooks
		WHERE ($1 = 0 OR class = $1)
		  AND ($2 = '' OR subject = $2)
		  AND ($3 = '' OR language = $3)
		ORDER BY id ASC
	`
	rows, err := c.db.QueryContext(ctx, q, filter.Class, filter.Subject, filter.Language)
	if err != nil {
		return nil, mapError("list textbooks", err)
	}
	defer rows.Close()

	out := []models.NCERTTextbook{}
	for rows.Next() {
		t, err := scanTextbook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateNCERTTextbook(ctx context.Context, id int64, patch models.TextbookPatch) (*models.NCERTTextbook, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanTextbook(tx.QueryRowContext(ctx, `SELECT `+textbookColumns+` FROM ncert_textbooks WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapError(fmt.Sprintf("textbook %d", id), err)
	}
	updated := patch.Apply(*current)

	meta, err := jsonValue(updated.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	const q = `
		UPDATE ncert_textbooks
		SET pdf_url = $2, downloaded_at = $3, content_extracted = $4, metadata = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	if err := tx.QueryRowContext(ctx, q, id, updated.PDFURL, updated.DownloadedAt, updated.ContentExtracted, meta).
		Scan(&updated.UpdatedAt); err != nil {
		return nil, mapError(fmt.Sprintf("update textbook %d", id), err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &updated, nil
}

// ClearNCERTTextbooks keeps the id sequences running so ids are never reused.
func (c *DatabaseClient) ClearNCERTTextbooks(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `TRUNCATE ncert_chunks, ncert_textbooks CONTINUE IDENTITY`)
	return mapError("clear textbooks", err)
}

// InsertTextbookChunks inserts chunks in a single transaction.
func (c *DatabaseClient) InsertTextbookChunks(ctx context.Context, chunks []models.TextbookChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO ncert_chunks (textbook_id, position, text, embedding, token_count)
		VALUES ($1, $2, $3, $4, $5)
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		vec := pgvector.NewVector(ch.Embedding)
		if _, err := stmt.ExecContext(ctx, ch.TextbookID, ch.Position, ch.Text, vec, ch.TokenCount); err != nil {
			_ = tx.Rollback()
			return mapError("insert chunk", err)
		}
	}
	return tx.Commit()
}

func (c *DatabaseClient) DeleteTextbookChunks(ctx context.Context, textbookID int64) (int, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM ncert_chunks WHERE textbook_id = $1`, textbookID)
	if err != nil {
		return 0, mapError("delete chunks", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// SearchTextbookChunks ranks chunks by cosine distance to queryVec. A
// non-positive limit returns every match.
func (c *DatabaseClient) SearchTextbookChunks(ctx context.Context, queryVec []float32, filter models.ChunkFilter, limit int) ([]models.ScoredChunk, error) {
	const q = `
		SELECT c.id, c.textbook_id, c.position, c.text, c.token_count, c.created_at,
		       1 - (c.embedding <=> $1) AS score,
		       t.id, t.class, t.subject, t.book_title, t.language, t.pdf_url, t.downloaded_at,
		       t.content_extracted, t.metadata, t.created_at, t.updated_at
		FROM ncert_chunks c
		JOIN ncert_textbooks t ON t.id = c.textbook_id
		WHERE ($2 = 0 OR t.class = $2)
		  AND ($3 = '' OR t.subject = $3)
		ORDER BY c.embedding <=> $1
		LIMIT $4
	`
	vec := pgvector.NewVector(queryVec)
	rows, err := c.db.QueryContext(ctx, q, vec, filter.Class, filter.Subject, nullLimit(limit))
	if err != nil {
		return nil, mapError("search chunks", err)
	}
	defer rows.Close()

	var out []models.ScoredChunk
	for rows.Next() {
		var (
			sc           models.ScoredChunk
			downloadedAt sql.NullTime
			meta         []byte
		)
		ch, t := &sc.Chunk, &sc.Textbook
		if err := rows.Scan(&ch.ID, &ch.TextbookID, &ch.Position, &ch.Text, &ch.TokenCount, &ch.CreatedAt, &sc.Score,
			&t.ID, &t.Class, &t.Subject, &t.BookTitle, &t.Language, &t.PDFURL, &downloadedAt,
			&t.ContentExtracted, &meta, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if downloadedAt.Valid {
			t.DownloadedAt = &downloadedAt.Time
		}
		if err := scanJSON(meta, &t.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// Knowledge base history

const historyColumns = `id, user_id, question, answer, explanation, grade, subject, language, confidence,
	sources, analogies, follow_up_questions, metadata, created_at`

func scanKnowledge(r rowScanner) (*models.KnowledgeEntry, error) {
	var (
		e                                  models.KnowledgeEntry
		sources, analogies, followUps, meta []byte
	)
	if err := r.Scan(&e.ID, &e.UserID, &e.Question, &e.Answer, &e.Explanation, &e.Grade, &e.Subject, &e.Language,
		&e.Confidence, &sources, &analogies, &followUps, &meta, &e.CreatedAt); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		raw []byte
		dst any
	}{{sources, &e.Sources}, {analogies, &e.Analogies}, {followUps, &e.FollowUpQuestions}, {meta, &e.Metadata}} {
		if err := scanJSON(f.raw, f.dst); err != nil {
			return nil, fmt.Errorf("decode knowledge entry %d: %w", e.ID, err)
		}
	}
	return &e, nil
}

func (c *DatabaseClient) CreateKnowledgeEntry(ctx context.Context, entry *models.KnowledgeEntry) error {
	if entry == nil {
		return errors.New("nil knowledge entry")
	}
	var args [4]any
	for i, v := range []any{orEmpty(entry.Sources), orEmpty(entry.Analogies), orEmpty(entry.FollowUpQuestions)} {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode knowledge entry: %w", err)
		}
		args[i] = string(b)
	}
	meta, err := jsonValue(entry.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	args[3] = meta

	const q = `
		INSERT INTO knowledge_base_history
			(user_id, question, answer, explanation, grade, subject, language, confidence,
			 sources, analogies, follow_up_questions, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`
	err = c.db.QueryRowContext(ctx, q, entry.UserID, entry.Question, entry.Answer, entry.Explanation, entry.Grade,
		entry.Subject, entry.Language, entry.Confidence, args[0], args[1], args[2], args[3]).
		Scan(&entry.ID, &entry.CreatedAt)
	return mapError("create knowledge entry", err)
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (c *DatabaseClient) ListKnowledgeHistory(ctx context.Context, userID int64, limit, offset int) ([]models.KnowledgeEntry, error) {
	if offset < 0 {
		offset = 0
	}
	const q = `
		SELECT ` + historyColumns + `
		FROM knowledge_base_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	return c.queryKnowledge(ctx, q, userID, nullLimit(limit), offset)
}

// nullLimit maps a non-positive limit to LIMIT NULL, which Postgres treats as
// no limit.
func nullLimit(limit int) sql.NullInt64 {
	if limit <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(limit), Valid: true}
}

func (c *DatabaseClient) SearchKnowledgeHistory(ctx context.Context, userID int64, search models.KnowledgeSearch) ([]models.KnowledgeEntry, error) {
	const q = `
		SELECT ` + historyColumns + `
		FROM knowledge_base_history
		WHERE user_id = $1
		  AND (strpos(lower(question), lower($2)) > 0
		       OR strpos(lower(answer), lower($2)) > 0
		       OR strpos(lower(explanation), lower($2)) > 0)
		  AND ($3 = '' OR subject = $3)
		  AND ($4 = 0 OR grade = $4)
		ORDER BY created_at DESC, id DESC
	`
	return c.queryKnowledge(ctx, q, userID, search.Query, search.Subject, search.Grade)
}

func (c *DatabaseClient) queryKnowledge(ctx context.Context, q string, args ...any) ([]models.KnowledgeEntry, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapError("query knowledge history", err)
	}
	defer rows.Close()

	out := []models.KnowledgeEntry{}
	for rows.Next() {
		e, err := scanKnowledge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
