package contextkeys

// Keys under which middleware stores authenticated request data in the
// gin context. Typed constants so handlers and middleware cannot drift.
const (
	UserIDKey = "userID"
	RoleKey   = "role"
)
