package rbac

// Role names carried in callback tokens.
const (
	RoleDispatcher = "dispatcher" // posts jobs
	RoleRuntime    = "runtime"    // delivers session callbacks
	RoleOperator   = "operator"
)

func IsOperator(role string) bool { return role == RoleOperator }
