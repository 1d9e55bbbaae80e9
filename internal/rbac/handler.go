package rbac

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lectern-app/lectern/internal/platform/httpx"
	"github.com/lectern-app/lectern/internal/shared"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.respondServiceError(w, "list roles", err)
		return
	}
	if roles == nil {
		roles = []Role{}
	}
	httpx.JSON(w, http.StatusOK, roles)
}

func (h *Handler) ShowRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, "get role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req CreateRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	identity, _ := shared.IdentityFromContext(r.Context())

	role, err := h.service.CreateRole(r.Context(), req, identity.ActorID)
	if err != nil {
		h.respondServiceError(w, "create role", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req UpdateRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	identity, _ := shared.IdentityFromContext(r.Context())

	role, err := h.service.UpdateRole(r.Context(), id, req, identity.ActorID)
	if err != nil {
		h.respondServiceError(w, "update role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	identity, _ := shared.IdentityFromContext(r.Context())

	if err := h.service.DeleteRole(r.Context(), id, identity.ActorID); err != nil {
		h.respondServiceError(w, "delete role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetRolePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req SetRolePermissionsRequest
	if !h.decode(w, r, &req) {
		return
	}
	identity, _ := shared.IdentityFromContext(r.Context())

	role, err := h.service.SetRolePermissions(r.Context(), id, req, identity.ActorID)
	if err != nil {
		h.respondServiceError(w, "set role permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	permissions, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.respondServiceError(w, "list permissions", err)
		return
	}
	if permissions == nil {
		permissions = []Permission{}
	}
	httpx.JSON(w, http.StatusOK, permissions)
}

func (h *Handler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var req CreatePermissionRequest
	if !h.decode(w, r, &req) {
		return
	}
	identity, _ := shared.IdentityFromContext(r.Context())

	permission, err := h.service.CreatePermission(r.Context(), req, identity.ActorID)
	if err != nil {
		h.respondServiceError(w, "create permission", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, permission)
}

func (h *Handler) DeletePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	identity, _ := shared.IdentityFromContext(r.Context())

	if err := h.service.DeletePermission(r.Context(), id, identity.ActorID); err != nil {
		h.respondServiceError(w, "delete permission", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "id")
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req AssignRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	identity, _ := shared.IdentityFromContext(r.Context())

	if err := h.service.AssignRole(r.Context(), userID, req.RoleID, identity.ActorID); err != nil {
		h.respondServiceError(w, "assign role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "id")
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	roleID, ok := pathID(r, "roleID")
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	identity, _ := shared.IdentityFromContext(r.Context())

	if err := h.service.RemoveRole(r.Context(), userID, roleID, identity.ActorID); err != nil {
		h.respondServiceError(w, "remove role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid payload")
		return false
	}
	return true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrAlreadyExists):
		httpx.RespondError(w, httpx.ErrDuplicate)
	case errors.Is(err, ErrUnknownPermission), errors.Is(err, ErrInvalidPermissionName):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func pathID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
