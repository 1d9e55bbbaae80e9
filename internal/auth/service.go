package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/lectern-app/lectern/internal/shared"
)

// Service wraps authentication business rules. It authenticates only;
// authorization is the authz package's job.
type Service struct {
	repo     Repository
	tokens   *TokenManager
	denylist *Denylist
}

// NewService constructs a Service.
func NewService(repo Repository, tokens *TokenManager, denylist *Denylist) *Service {
	return &Service{repo: repo, tokens: tokens, denylist: denylist}
}

// Register creates a new account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, email, name, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	return s.repo.Create(ctx, email, name, string(hash))
}

// Authenticate validates email/password credentials. Every failure mode
// collapses into ErrInvalidCredentials so responses cannot distinguish
// unknown accounts from wrong passwords.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// IssueToken mints an access token for an authenticated user.
func (s *Service) IssueToken(user *User) (string, *Claims, error) {
	return s.tokens.Issue(user)
}

// Revoke denylists the token presented by the current request.
func (s *Service) Revoke(ctx context.Context, identity shared.Identity) error {
	if identity.TokenID == "" {
		return nil
	}
	return s.denylist.Revoke(ctx, identity.TokenID, identity.TokenExpiry)
}

// CurrentUser loads the account behind an identity.
func (s *Service) CurrentUser(ctx context.Context, identity shared.Identity) (*User, error) {
	return s.repo.FindByID(ctx, identity.ActorID)
}
