package service

import (
	"github.com/atimaspi/fcbb-1-1-59/pkg/models"
	"github.com/atimaspi/fcbb-1-1-59/pkg/storage"
)

// Permission is a (resource, action) pair a role may be granted.
type Permission struct {
	Resource string
	Action   string
}

// contentActions expands one resource into the given actions.
func contentActions(resource string, actions ...string) []Permission {
	perms := make([]Permission, 0, len(actions))
	for _, a := range actions {
		perms = append(perms, Permission{Resource: resource, Action: a})
	}
	return perms
}

func allCollections(actions ...string) []Permission {
	var perms []Permission
	for _, c := range models.Collections {
		perms = append(perms, contentActions(c, actions...)...)
	}
	return perms
}

// rolePermissions is the static permission table. Roles below redator have
// no workflow authority; they keep their viewing/domain grants so the same
// table answers dashboard-level questions too.
var rolePermissions = map[models.Role][]Permission{
	models.AdminRole: append(allCollections("create", "edit", "delete", "view", "review", "publish"),
		Permission{"users", "create"}, Permission{"users", "edit"},
		Permission{"users", "delete"}, Permission{"users", "view"},
		Permission{"dashboard", "view"}, Permission{"settings", "edit"},
		Permission{"content", "review"}, Permission{"content", "publish"},
	),
	models.RevisorRole: append(allCollections("create", "edit", "view", "review", "publish"),
		Permission{"dashboard", "view"},
		Permission{"content", "review"}, Permission{"content", "publish"},
	),
	models.RedatorRole: append(allCollections("create", "edit", "view"),
		Permission{"dashboard", "view"},
	),
	models.EditorRole: append(contentActions("news", "create", "edit", "view"),
		Permission{"events", "create"}, Permission{"events", "edit"},
		Permission{"events", "view"}, Permission{"dashboard", "view"},
	),
	models.ModeratorRole: append(contentActions("news", "edit", "view"),
		Permission{"events", "edit"}, Permission{"events", "view"},
		Permission{"dashboard", "view"},
	),
	models.TreinadorRole: {
		{"news", "view"}, {"events", "view"}, {"dashboard", "view"},
		{"teams", "edit"}, {"players", "edit"},
	},
	models.ArbitroRole: {
		{"news", "view"}, {"events", "view"}, {"dashboard", "view"},
		{"games", "edit"}, {"referees", "view"},
	},
	models.DirigenteRole: {
		{"news", "view"}, {"events", "view"}, {"dashboard", "view"},
		{"clubs", "edit"}, {"teams", "view"},
	},
	models.JornalistaRole: append(contentActions("news", "create", "edit", "view"),
		Permission{"events", "view"}, Permission{"dashboard", "view"},
	),
	models.UserRole: {
		{"news", "view"}, {"events", "view"},
	},
}

// PermissionResolver maps caller identities to roles and answers
// capability queries against the static permission table.
type PermissionResolver struct {
	store storage.Store
}

func NewPermissionResolver(store storage.Store) *PermissionResolver {
	return &PermissionResolver{store: store}
}

// ResolveRole looks up the caller's role. Anonymous callers and lookup
// failures degrade to the least-privileged role instead of erroring, so
// callers always get a decidable answer.
func (r *PermissionResolver) ResolveRole(userID string) models.Role {
	if userID == "" {
		return models.UserRole
	}
	role, err := r.store.GetUserRole(userID)
	if err != nil {
		return models.UserRole
	}
	return role
}

// Can reports whether the role holds the (resource, action) capability.
// Ownership restrictions (a redator touching only their own rows) are
// enforced by the workflow engine, which has the row in hand; Can does not.
func (r *PermissionResolver) Can(role models.Role, resource, action string) bool {
	for _, p := range rolePermissions[role] {
		if p.Resource == resource && p.Action == action {
			return true
		}
	}
	return false
}

// CanReview reports whether the role may approve or reject content.
func (r *PermissionResolver) CanReview(role models.Role) bool {
	return role == models.AdminRole || role == models.RevisorRole
}

// CanSchedule reports whether the role may schedule publications.
func (r *PermissionResolver) CanSchedule(role models.Role) bool {
	return role == models.AdminRole || role == models.RevisorRole
}
