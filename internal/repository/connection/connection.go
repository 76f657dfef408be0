package connection

import "errors"

var (
	ErrNotFound      = errors.New("connection not found")
	ErrAlreadyExists = errors.New("connection already exists")
)

// Role is the declared purpose of a connection, assigned once after the
// client has sent its registration message.
type Role string

const (
	RoleUnassigned Role = "unassigned"
	RoleManager    Role = "manager"
	RolePlayer     Role = "player"
)

func (r Role) Valid() bool {
	return r == RoleManager || r == RolePlayer
}
