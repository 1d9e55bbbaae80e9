package users

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/lectern-app/lectern/internal/audit"
	"github.com/lectern-app/lectern/internal/authz"
	"github.com/lectern-app/lectern/internal/shared"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Service struct {
	repo   Repository
	audit  audit.Recorder
	logger *slog.Logger
}

func NewService(repo Repository, auditor audit.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: auditor, logger: logger}
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Get(ctx context.Context, id int64) (*UserDetail, error) {
	return s.repo.Get(ctx, id)
}

// SetActive toggles an account. The system actor can never be
// deactivated; everything privileged would stop working.
func (s *Service) SetActive(ctx context.Context, id int64, active bool, actorID int64) error {
	if id == authz.SystemActorID {
		return shared.ErrSystemActorImmutable
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	s.record(ctx, actorID, "user.set_active", id, map[string]any{"active": active})
	return nil
}

// Delete removes an account. The system actor is immutable.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	if id == authz.SystemActorID {
		return shared.ErrSystemActorImmutable
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.record(ctx, actorID, "user.delete", id, nil)
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, userID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Error("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
