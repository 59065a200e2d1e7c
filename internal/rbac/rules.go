package rbac

// Permission names used by the admin routes.
const (
	PermCourseRead   = "course:read"
	PermCourseCreate = "course:create"
	PermCourseDelete = "course:delete"
	PermCourseExport = "course:export"

	PermSubjectRead   = "subject:read"
	PermSubjectWrite  = "subject:write"
	PermSubjectDelete = "subject:delete"
	PermSubjectExport = "subject:export"

	PermUsersList   = "users:list"
	PermUsersDetail = "users:detail"
	PermUsersExport = "users:export"
)

// AllPermissions lists every permission in display order.
var AllPermissions = []string{
	PermCourseRead, PermCourseCreate, PermCourseDelete, PermCourseExport,
	PermSubjectRead, PermSubjectWrite, PermSubjectDelete, PermSubjectExport,
	PermUsersList, PermUsersDetail, PermUsersExport,
}

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// RolePermissions is the default policy. Editors manage content and may
// browse the user list, but cannot open user profiles or export them.
var RolePermissions = map[string][]string{
	RoleEditor: {
		"course:*",
		"subject:*",
		PermUsersList,
	},
	RoleAdmin: {
		"*",
	},
}

// NormalizeRole maps upstream role names onto the local policy. The admin
// API only lets staff sign in, so an empty role means admin.
func NormalizeRole(upstream string) string {
	switch upstream {
	case "", "admin", "superadmin", "root":
		return RoleAdmin
	case "editor", "teacher", "staff", "content":
		return RoleEditor
	default:
		return ""
	}
}
