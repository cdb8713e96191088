package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/markdave123-py/EduAI/internal/core"
	"github.com/markdave123-py/EduAI/internal/models"
)

const (
	defaultSessionName = "New chat"
	historyWindow      = 20
)

const chatSystemPrompt = `You are a teaching assistant for teachers in Indian multi-grade classrooms.
Answer clearly, use local examples where they help, and follow NCERT pedagogy.
If you do not know something, say so.`

type ChatService struct {
	db     core.DomainStore
	llm    core.LLMProvider
	logger *zap.Logger
}

func NewChatService(db core.DomainStore, llm core.LLMProvider, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{db: db, llm: llm, logger: logger.Named("chat")}
}

func (s *ChatService) CreateSession(ctx context.Context, userID int64, name string) (*models.ChatSession, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultSessionName
	}
	session := &models.ChatSession{UserID: userID, SessionName: name}
	if err := s.db.CreateChatSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChatService) ListSessions(ctx context.Context, userID int64) ([]models.ChatSession, error) {
	return s.db.ListChatSessions(ctx, userID)
}

// Messages returns the session's messages in creation order.
func (s *ChatService) Messages(ctx context.Context, userID, sessionID int64) ([]models.ChatMessage, error) {
	if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.db.ListChatMessages(ctx, sessionID)
}

// PostMessage stores the user's message, asks the model for a reply and
// stores the reply. If the model fails the user message stays stored and
// the error wraps ErrUpstream.
func (s *ChatService) PostMessage(ctx context.Context, userID, sessionID int64, content string) (*models.ChatMessage, *models.ChatMessage, error) {
	if _, err := s.ownedSession(ctx, userID, sessionID); err != nil {
		return nil, nil, err
	}

	userMsg := &models.ChatMessage{SessionID: sessionID, Role: models.RoleUser, Content: strings.TrimSpace(content)}
	if err := userMsg.Validate(); err != nil {
		return nil, nil, err
	}

	history, err := s.db.ListChatMessages(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.db.CreateChatMessage(ctx, userMsg); err != nil {
		return nil, nil, fmt.Errorf("failed to store user message: %w", err)
	}

	reply, err := s.llm.Generate(ctx, chatSystemPrompt, transcript(history, userMsg.Content))
	if err != nil {
		s.logger.Warn("model reply failed", zap.Int64("session_id", sessionID), zap.Error(err))
		return userMsg, nil, upstream("chat reply", err)
	}

	modelMsg := &models.ChatMessage{
		SessionID: sessionID,
		Role:      models.RoleAssistant,
		Content:   strings.TrimSpace(reply),
		Metadata:  map[string]any{"replyTo": userMsg.ID},
	}
	if err := s.db.CreateChatMessage(ctx, modelMsg); err != nil {
		return userMsg, nil, fmt.Errorf("failed to store model message: %w", err)
	}
	return userMsg, modelMsg, nil
}

func (s *ChatService) ownedSession(ctx context.Context, userID, sessionID int64) (*models.ChatSession, error) {
	session, err := s.db.GetChatSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, fmt.Errorf("chat session %d: %w", sessionID, models.ErrNotFound)
	}
	return session, nil
}

// transcript renders the last messages of history followed by the new
// question.
func transcript(history []models.ChatMessage, question string) string {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, m := range history {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "user: %s", question)
	return b.String()
}
