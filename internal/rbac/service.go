package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/lectern-app/lectern/internal/audit"
)

// CatalogReloader rebuilds the authorization engine's permission
// snapshot. Permission mutations call it so gates see the change.
type CatalogReloader interface {
	Initialize(ctx context.Context) error
}

// permissionNamePattern enforces dotted lowercase names like
// "books.create".
var permissionNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)+$`)

// ErrInvalidPermissionName indicates a name outside the dotted
// lowercase format.
var ErrInvalidPermissionName = fmt.Errorf("rbac: invalid permission name")

type Service struct {
	repo     Repository
	audit    audit.Recorder
	reloader CatalogReloader
	logger   *slog.Logger
}

func NewService(repo Repository, auditor audit.Recorder, reloader CatalogReloader, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: auditor, reloader: reloader, logger: logger}
}

func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

func (s *Service) GetRole(ctx context.Context, id int64) (*RoleDetail, error) {
	return s.repo.GetRole(ctx, id)
}

func (s *Service) CreateRole(ctx context.Context, req CreateRoleRequest, actorID int64) (*Role, error) {
	role, err := s.repo.CreateRole(ctx, req.Name, req.Description)
	if err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}
	s.record(ctx, actorID, "role.create", "role", role.ID, map[string]any{"name": role.Name})
	return role, nil
}

func (s *Service) UpdateRole(ctx context.Context, id int64, req UpdateRoleRequest, actorID int64) (*RoleDetail, error) {
	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateRole(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("update role: %w", err)
		}
		s.record(ctx, actorID, "role.update", "role", id, nil)
	}
	return s.repo.GetRole(ctx, id)
}

func (s *Service) DeleteRole(ctx context.Context, id int64, actorID int64) error {
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	s.record(ctx, actorID, "role.delete", "role", id, nil)
	return nil
}

// SetRolePermissions replaces the role's permission set. Membership
// changes are visible to the engine immediately because role lookups
// are live; no snapshot rebuild is needed here.
func (s *Service) SetRolePermissions(ctx context.Context, roleID int64, req SetRolePermissionsRequest, actorID int64) (*RoleDetail, error) {
	if err := s.repo.SetRolePermissions(ctx, roleID, req.Permissions); err != nil {
		return nil, fmt.Errorf("set role permissions: %w", err)
	}
	s.record(ctx, actorID, "role.set_permissions", "role", roleID, map[string]any{"permissions": req.Permissions})
	return s.repo.GetRole(ctx, roleID)
}

func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// CreatePermission adds a catalog entry and re-initializes the engine
// so the new name becomes registered.
func (s *Service) CreatePermission(ctx context.Context, req CreatePermissionRequest, actorID int64) (*Permission, error) {
	if !permissionNamePattern.MatchString(req.Name) {
		return nil, ErrInvalidPermissionName
	}
	permission, err := s.repo.CreatePermission(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("create permission: %w", err)
	}
	s.reload(ctx)
	s.record(ctx, actorID, "permission.create", "permission", permission.ID, map[string]any{"name": permission.Name})
	return permission, nil
}

// DeletePermission removes a catalog entry and re-initializes the
// engine so the name stops being registered.
func (s *Service) DeletePermission(ctx context.Context, id int64, actorID int64) error {
	name, err := s.repo.DeletePermission(ctx, id)
	if err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}
	s.reload(ctx)
	s.record(ctx, actorID, "permission.delete", "permission", id, map[string]any{"name": name})
	return nil
}

func (s *Service) AssignRole(ctx context.Context, userID, roleID int64, actorID int64) error {
	if err := s.repo.AssignRole(ctx, userID, roleID); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	s.record(ctx, actorID, "user.assign_role", "user", userID, map[string]any{"role_id": roleID})
	return nil
}

func (s *Service) RemoveRole(ctx context.Context, userID, roleID int64, actorID int64) error {
	if err := s.repo.RemoveRole(ctx, userID, roleID); err != nil {
		return fmt.Errorf("remove role: %w", err)
	}
	s.record(ctx, actorID, "user.remove_role", "user", userID, map[string]any{"role_id": roleID})
	return nil
}

func (s *Service) reload(ctx context.Context) {
	if s.reloader == nil {
		return
	}
	if err := s.reloader.Initialize(ctx); err != nil && s.logger != nil {
		s.logger.Error("reload permission catalog", slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, actorID int64, action, entity string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, audit.Entry{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Error("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
