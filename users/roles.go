package users

import "slices"

// RoleType represents a learner-platform role as issued by the server.
type RoleType string

const (
	RoleUser      RoleType = "user"      // Regular learner
	RoleModerator RoleType = "moderator" // Can moderate community content
	RoleAdmin     RoleType = "admin"     // Can manage courses, lessons and users
)

// DefaultRole is assigned to newly registered accounts.
const DefaultRole = RoleUser

// Permission is a capability derivable from a role.
type Permission string

const (
	PermLessonsRead     Permission = "lessons:read"
	PermProgressWrite   Permission = "progress:write"
	PermContentModerate Permission = "content:moderate"
	PermCoursesManage   Permission = "courses:manage"
	PermUsersManage     Permission = "users:manage"
)

var rolePermissions = map[RoleType][]Permission{
	RoleUser: {
		PermLessonsRead,
		PermProgressWrite,
	},
	RoleModerator: {
		PermLessonsRead,
		PermProgressWrite,
		PermContentModerate,
	},
	RoleAdmin: {
		PermLessonsRead,
		PermProgressWrite,
		PermContentModerate,
		PermCoursesManage,
		PermUsersManage,
	},
}

// PermissionsFor returns the permissions granted to a role. Unknown roles get none.
func PermissionsFor(role RoleType) []Permission {
	return slices.Clone(rolePermissions[role])
}

// RoleHasPermission checks whether the role grants the permission.
func RoleHasPermission(role RoleType, permission Permission) bool {
	return slices.Contains(rolePermissions[role], permission)
}

// IsKnownRole reports whether the role exists in the permission table.
func IsKnownRole(role RoleType) bool {
	_, ok := rolePermissions[role]
	return ok
}
