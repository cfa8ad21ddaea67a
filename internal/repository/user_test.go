package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/testutil"
)

func TestUserRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &domain.User{
		ID:           uuid.New(),
		Email:        "ada@example.com",
		Name:         "Ada",
		Title:        domain.DefaultUserTitle,
		PasswordHash: "hash",
	}
	require.NoError(t, repo.Create(ctx, u))
	assert.False(t, u.CreatedAt.IsZero())

	t.Run("duplicate email", func(t *testing.T) {
		err := repo.Create(ctx, &domain.User{ID: uuid.New(), Email: "ada@example.com", Name: "Other", Title: "x", PasswordHash: "h"})
		assert.ErrorIs(t, err, domain.ErrUserExists)
	})

	t.Run("get by email ignores case", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "ADA@Example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ada", got.Name)
		assert.Equal(t, domain.DefaultUserTitle, got.Title)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := repo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("update profile", func(t *testing.T) {
		got, err := repo.UpdateProfile(ctx, u.ID, "Ada L.", "Investor")
		require.NoError(t, err)
		assert.Equal(t, "Ada L.", got.Name)
		assert.Equal(t, "Investor", got.Title)
		assert.Equal(t, u.Email, got.Email)
	})

	t.Run("update unknown user", func(t *testing.T) {
		_, err := repo.UpdateProfile(ctx, uuid.New(), "x", "y")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestUserRepository_SeededPasswordHash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewUserRepository(db)

	seeded := testutil.SeedTestUser(t, db, "Robert@Example.com", "Robert")

	got, err := repo.GetByEmail(context.Background(), "robert@example.com")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, got.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte(testutil.TestPassword)))
}
