package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/EduAI/internal/auth"
	db "github.com/markdave123-py/EduAI/internal/core/database"
	"github.com/markdave123-py/EduAI/internal/models"
)

func TestFindOrCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(db.NewMemoryStore())

	id := auth.Identity{Subject: "ext-1", Email: "asha@school.in", Name: "Asha"}
	first, err := svc.FindOrCreate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)

	again, err := svc.FindOrCreate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	got, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.Name)
}

func TestFindOrCreateValidatesIdentity(t *testing.T) {
	svc := NewUserService(db.NewMemoryStore())

	_, err := svc.FindOrCreate(context.Background(), auth.Identity{Subject: "ext-1", Email: "not-an-email"})
	assert.True(t, models.IsValidation(err))
}

func TestFindOrCreateNameFallsBackToEmail(t *testing.T) {
	svc := NewUserService(db.NewMemoryStore())

	u, err := svc.FindOrCreate(context.Background(), auth.Identity{Subject: "ext-2", Email: "ravi@school.in"})
	require.NoError(t, err)
	assert.Equal(t, "ravi@school.in", u.Name)
}
