package model

import "time"

// PermissionAll grants every module.
const PermissionAll = "*"

// Modules are the permission names a role may carry besides PermissionAll.
var Modules = []string{
	"Contabilidad",
	"Finanzas",
	"Distribucion",
	"Compras",
	"Integracion",
	"Estructura",
	"Usuarios",
	"Seguridad",
}

// User is an application user.
type User struct {
	ID        int64     `json:"id,omitempty"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	RoleID    int64     `json:"roleId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Role is a named set of module permissions.
type Role struct {
	ID          int64     `json:"id,omitempty"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	Timestamp   time.Time `json:"timestamp"`
}
