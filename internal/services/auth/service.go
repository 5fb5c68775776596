package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/playermanager/internal/dependencies/clock"
	"github.com/mcoot/playermanager/internal/dependencies/random"
	"github.com/mcoot/playermanager/internal/model"
	"github.com/mcoot/playermanager/internal/services/database"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
)

// TokenLength is the length of generated session tokens
const TokenLength = 48

// LoginResult is a freshly created session
type LoginResult struct {
	Token     string
	UserName  string
	ExpiresAt time.Time
}

// Service handles login, logout and user accounts
type Service struct {
	store  *database.Store
	clock  clock.Clock
	random random.Random
	logger *slog.Logger

	sessionDuration time.Duration
	bcryptCost      int
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
	BcryptCost      int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
		BcryptCost:      bcrypt.DefaultCost,
	}
}

// New creates a new auth Service
func New(store *database.Store, clock clock.Clock, random random.Random, logger *slog.Logger, cfg Config) *Service {
	defaults := DefaultConfig()
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = defaults.SessionDuration
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = defaults.BcryptCost
	}
	return &Service{
		store:           store,
		clock:           clock,
		random:          random,
		logger:          logger,
		sessionDuration: cfg.SessionDuration,
		bcryptCost:      cfg.BcryptCost,
	}
}

// Login checks the password and appends a new session to the user
func (s *Service) Login(ctx context.Context, name, password string) (*LoginResult, error) {
	user := s.findUser(name)
	if user == nil || user.Password == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token := s.random.String(TokenLength, random.TokenAlphabet)
	expires := s.clock.Now().Add(s.sessionDuration)

	found := false
	s.store.UpdateUsers(func(users []*model.User) []*model.User {
		for _, u := range users {
			if u.Name == name {
				u.Sessions = append(u.Sessions, model.NewSession(token, expires))
				found = true
				break
			}
		}
		return users
	})
	if !found {
		// Deleted between the password check and now
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("user logged in", "user", name)
	return &LoginResult{
		Token:     token,
		UserName:  name,
		ExpiresAt: expires,
	}, nil
}

// Logout removes every session carrying token
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidSession
	}

	removed := 0
	s.store.UpdateUsers(func(users []*model.User) []*model.User {
		for _, u := range users {
			kept := u.Sessions[:0]
			for _, session := range u.Sessions {
				if session.Token == token {
					removed++
					continue
				}
				kept = append(kept, session)
			}
			u.Sessions = kept
		}
		return users
	})

	if removed == 0 {
		return ErrInvalidSession
	}
	return nil
}

// CreateUserRequest holds the fields of a new user
type CreateUserRequest struct {
	Name              string
	Password          string
	Email             string
	Admin             bool
	FactorioLinkToken string
	Description       string
}

// CreateUser hashes the password and adds the user
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*model.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, model.ErrInvalidName
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:              name,
		Password:          hash,
		Email:             req.Email,
		Admin:             model.Flag(req.Admin),
		FactorioLinkToken: req.FactorioLinkToken,
		Description:       req.Description,
		Sessions:          []model.Session{},
	}

	exists := false
	s.store.UpdateUsers(func(users []*model.User) []*model.User {
		for _, u := range users {
			if u.Name == name {
				exists = true
				return users
			}
		}
		return append(users, user)
	})
	if exists {
		return nil, model.ErrUserExists
	}

	s.logger.Info("user created", "user", name, "admin", req.Admin)
	return user.Clone(), nil
}

// GetUser returns a copy of the named user
func (s *Service) GetUser(name string) (*model.User, error) {
	if u := s.findUser(name); u != nil {
		return u, nil
	}
	return nil, model.ErrUserNotFound
}

func (s *Service) findUser(name string) *model.User {
	for _, u := range s.store.Users() {
		if u.Name == name {
			return u
		}
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password must not be empty", ErrInvalidCredentials)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}
