package services

import (
	"context"
	"fmt"

	"github.com/markdave123-py/EduAI/internal/core"
	"github.com/markdave123-py/EduAI/internal/models"
)

type AgentConfigService struct {
	db core.DomainStore
}

func NewAgentConfigService(db core.DomainStore) *AgentConfigService {
	return &AgentConfigService{db: db}
}

func (s *AgentConfigService) Create(ctx context.Context, userID int64, cfg models.AgentConfiguration) (*models.AgentConfiguration, error) {
	cfg.UserID = userID
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := s.db.CreateAgentConfiguration(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *AgentConfigService) List(ctx context.Context, userID int64) ([]models.AgentConfiguration, error) {
	return s.db.ListAgentConfigurations(ctx, userID)
}

// Update applies patch to a configuration the user owns. Configurations of
// other users are reported as missing.
func (s *AgentConfigService) Update(ctx context.Context, userID, id int64, patch models.AgentConfigPatch) (*models.AgentConfiguration, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	current, err := s.db.GetAgentConfiguration(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.UserID != userID {
		return nil, fmt.Errorf("agent configuration %d: %w", id, models.ErrNotFound)
	}
	return s.db.UpdateAgentConfiguration(ctx, id, patch)
}

// Active returns the user's active configuration for agentType, or nil.
func (s *AgentConfigService) Active(ctx context.Context, userID int64, agentType string) (*models.AgentConfiguration, error) {
	cfgs, err := s.db.ListAgentConfigurations(ctx, userID)
	if err != nil {
		return nil, err
	}
	// latest wins
	for i := len(cfgs) - 1; i >= 0; i-- {
		if cfgs[i].AgentType == agentType && cfgs[i].IsActive {
			c := cfgs[i]
			return &c, nil
		}
	}
	return nil, nil
}
