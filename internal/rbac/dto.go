package rbac

type CreateRoleRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type UpdateRoleRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

type SetRolePermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"required,dive,min=3,max=100"`
}

type CreatePermissionRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type AssignRoleRequest struct {
	RoleID int64 `json:"role_id" validate:"required,gt=0"`
}
