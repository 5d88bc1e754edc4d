package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/coursereg/internal/models"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAuthDisabled       = errors.New("auth is disabled")
)

// Authenticator checks account passwords.
type Authenticator interface {
	Authenticate(ctx context.Context, role models.Role, id, password string) (bool, error)
}

type Auth struct {
	enabled     bool
	tokens      TokenStore
	accounts    Authenticator
	tokenHeader string
}

func NewAuth(config *Config, accounts Authenticator) (*Auth, error) {
	if !config.Server.EnableAuth {
		return &Auth{enabled: false, tokenHeader: config.Auth.TokenHeader}, nil
	}

	opt, err := redis.ParseURL(config.Auth.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewAuthWithTokens(NewTokenManager(client, config.TokenTTL()), accounts, config.Auth.TokenHeader), nil
}

// NewAuthWithTokens builds an enabled Auth over any token store.
func NewAuthWithTokens(tokens TokenStore, accounts Authenticator, tokenHeader string) *Auth {
	if tokenHeader == "" {
		tokenHeader = "Authorization"
	}
	return &Auth{
		enabled:     true,
		tokens:      tokens,
		accounts:    accounts,
		tokenHeader: tokenHeader,
	}
}

func (a *Auth) Enabled() bool {
	return a.enabled
}

func (a *Auth) Close() error {
	if a.tokens != nil {
		return a.tokens.Close()
	}
	return nil
}

// Login checks the password and issues a session token.
func (a *Auth) Login(ctx context.Context, role models.Role, id, password string) (*models.Session, error) {
	if !a.enabled {
		return nil, ErrAuthDisabled
	}
	if !role.Valid() {
		return nil, ErrInvalidCredentials
	}

	id = models.NormalizeID(id)
	ok, err := a.accounts.Authenticate(ctx, role, id, password)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	if !ok {
		logger.Debug.Printf("Rejected login for %s %s", role, id)
		return nil, ErrInvalidCredentials
	}

	return a.tokens.Issue(ctx, role, id)
}

func (a *Auth) Logout(ctx context.Context, token string) error {
	if !a.enabled {
		return ErrAuthDisabled
	}
	if err := a.tokens.Revoke(ctx, token); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	return nil
}

// BearerToken extracts the token from the configured header.
func (a *Auth) BearerToken(header func(string) string) (string, error) {
	authHeader := header(a.tokenHeader)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", fmt.Errorf("invalid authorization header format: %w", ErrUnauthorized)
	}
	return strings.TrimPrefix(authHeader, "Bearer "), nil
}

// Session resolves the caller. With auth disabled every caller is an admin.
func (a *Auth) Session(ctx context.Context, header func(string) string) (*models.Session, error) {
	if !a.enabled {
		return &models.Session{Role: models.RoleAdmin}, nil
	}

	token, err := a.BearerToken(header)
	if err != nil {
		return nil, err
	}

	session, err := a.tokens.Lookup(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		logger.Debug.Printf("Session not found for token %s", token)
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	return session, nil
}

// Authorize resolves the caller and checks it may act as userID in role.
func (a *Auth) Authorize(ctx context.Context, header func(string) string, role models.Role, userID string) (*models.Session, error) {
	session, err := a.Session(ctx, header)
	if err != nil {
		return nil, err
	}
	if !session.Can(role, userID) {
		return nil, ErrForbidden
	}
	return session, nil
}

// RequireRole resolves the caller and checks its role. Admins always pass.
func (a *Auth) RequireRole(ctx context.Context, header func(string) string, roles ...models.Role) (*models.Session, error) {
	session, err := a.Session(ctx, header)
	if err != nil {
		return nil, err
	}
	if session.Role == models.RoleAdmin {
		return session, nil
	}
	for _, r := range roles {
		if session.Role == r {
			return session, nil
		}
	}
	return nil, ErrForbidden
}
