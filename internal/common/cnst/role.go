package cnst

// Role is the system-wide role of a user
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleEmployee   Role = "employee"
)

func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleSuperAdmin || r == RoleAdmin || r == RoleEmployee
}

// IsAdminTier reports whether r is admin or super_admin
func (r Role) IsAdminTier() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// TaskStatus is the lifecycle state of a task
type TaskStatus string

const (
	TaskStatusTodo TaskStatus = "todo"
	TaskStatusDone TaskStatus = "done"
)

func (s TaskStatus) String() string {
	return string(s)
}
