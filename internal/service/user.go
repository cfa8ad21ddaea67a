package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/cashflow-ledger/internal/auth"
	"github.com/josh-kwaku/cashflow-ledger/internal/domain"
	"github.com/josh-kwaku/cashflow-ledger/internal/logging"
)

const minPasswordLength = 8

type Session struct {
	Token string       `json:"token"`
	User  *domain.User `json:"-"`
}

// UserService owns registration, login and profiles. A user's ID is also
// the scope of their ledger, so logging out drops the scope's session.
type UserService struct {
	users     userRepository
	stores    storeRegistry
	jwtSecret string
	jwtExpiry time.Duration
	cost      int
}

func NewUserService(users userRepository, stores storeRegistry, jwtSecret string, jwtExpiry time.Duration) *UserService {
	return &UserService{
		users:     users,
		stores:    stores,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
		cost:      bcrypt.DefaultCost,
	}
}

func (s *UserService) Register(ctx context.Context, email, name, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("Register: email: %w", domain.ErrInvalidRequest)
	}
	if name == "" {
		return nil, fmt.Errorf("Register: name: %w", domain.ErrInvalidRequest)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("Register: password: %w", domain.ErrInvalidRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("Register: hash password: %w", err)
	}

	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		Title:        domain.DefaultUserTitle,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}
	logging.FromContext(ctx).Info("user registered", "user_id", u.ID)

	return s.issue(u)
}

// Login does not reveal whether the email or the password was wrong.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("Login: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
	}
	return s.issue(u)
}

// Logout forgets the in-memory ledger of the user's scope. The persisted
// ledger is untouched and is reloaded on the next request.
func (s *UserService) Logout(ctx context.Context, userID uuid.UUID) {
	s.stores.Drop(userID.String())
	logging.FromContext(ctx).Info("user logged out", "user_id", userID)
}

func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Profile: %w", err)
	}
	return u, nil
}

// UpdateProfile changes name and title. An empty field keeps its value; a
// blank title falls back to the default.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, name, title string) (*domain.User, error) {
	current, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("UpdateProfile: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = current.Name
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = current.Title
	}
	if title == "" {
		title = domain.DefaultUserTitle
	}

	u, err := s.users.UpdateProfile(ctx, userID, name, title)
	if err != nil {
		return nil, fmt.Errorf("UpdateProfile: %w", err)
	}
	return u, nil
}

func (s *UserService) issue(u *domain.User) (*Session, error) {
	token, err := auth.GenerateToken(u.ID, u.Email, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, User: u}, nil
}
