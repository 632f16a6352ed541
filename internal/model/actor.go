package model

// Role is the caller's role as carried by the bearer token.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleShipowner Role = "shipowner"
	RoleSeafarer  Role = "seafarer"
	RoleSystem    Role = "system"
)

// Actor identifies who issued a command, for authorization and the audit trail.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// SystemActor is used by background jobs persisting derived state.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
