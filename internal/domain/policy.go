package domain

// Role is the account role carried in tokens.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
	RoleMentor     Role = "mentor"
	RoleSuperAdmin Role = "superadmin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleMentor, RoleSuperAdmin:
		return true
	}
	return false
}

// Privileged reports whether r may manage content.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleSuperAdmin || r == RoleMentor
}

// Action names an operation guarded by the access policy.
type Action string

const (
	ActionTakeTests       Action = "tests:take"
	ActionViewLeaderboard Action = "leaderboard:view"
	ActionManageTests     Action = "tests:manage"
	ActionManageQuestions Action = "questions:manage"
	ActionManageUsers     Action = "users:manage"
	ActionViewResults     Action = "results:view"
)

var privilegedActions = map[Action]bool{
	ActionManageTests:     true,
	ActionManageQuestions: true,
	ActionManageUsers:     true,
	ActionViewResults:     true,
}

// CanAccess is the single authorization policy for every route.
func CanAccess(role Role, action Action) bool {
	if !role.Valid() {
		return false
	}
	if privilegedActions[action] {
		return role.Privileged()
	}
	switch action {
	case ActionTakeTests, ActionViewLeaderboard:
		return true
	}
	return false
}
