package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/markdave123-py/EduAI/internal/auth"
	"github.com/markdave123-py/EduAI/internal/core"
	"github.com/markdave123-py/EduAI/internal/models"
)

type UserService struct {
	db core.DomainStore
}

func NewUserService(db core.DomainStore) *UserService {
	return &UserService{db: db}
}

// FindOrCreate returns the user linked to the verified identity, creating it
// on first sight.
func (s *UserService) FindOrCreate(ctx context.Context, id auth.Identity) (*models.User, error) {
	u, err := s.db.GetUserByExternalID(ctx, id.Subject)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	user := &models.User{
		ExternalID: id.Subject,
		Email:      strings.TrimSpace(id.Email),
		Name:       strings.TrimSpace(id.Name),
	}
	if user.Name == "" {
		user.Name = user.Email
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.db.CreateUser(ctx, user); err != nil {
		// a concurrent request may have created it first
		if errors.Is(err, models.ErrConflict) {
			if existing, lookupErr := s.db.GetUserByExternalID(ctx, id.Subject); lookupErr == nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.db.GetUserByID(ctx, id)
}
