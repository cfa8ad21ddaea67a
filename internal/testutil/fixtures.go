package testutil

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
)

const TestPassword = "password123"

func SeedTestUser(t *testing.T, db *sql.DB, email, name string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(email),
		Name:         name,
		Title:        domain.DefaultUserTitle,
		PasswordHash: string(hash),
	}

	err = db.QueryRow(
		`INSERT INTO users (id, email, name, title, password_hash)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		u.ID, u.Email, u.Name, u.Title, u.PasswordHash,
	).Scan(&u.CreatedAt)
	if err != nil {
		t.Fatalf("seed test user %s: %v", email, err)
	}
	return u
}

// CountRows counts a scope's rows in one of the ledger tables.
func CountRows(t *testing.T, db *sql.DB, table, scope string) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE scope = $1`, scope).Scan(&count)
	if err != nil {
		t.Fatalf("count %s for scope %s: %v", table, scope, err)
	}
	return count
}
