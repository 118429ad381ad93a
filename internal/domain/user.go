package domain

// Permission gates admin-only views and mutations
type Permission string

const (
	PermissionPlayer Permission = "player"
	PermissionAdmin  Permission = "admin"
)

// User is a player account; it is distinct from the Character it plays
type User struct {
	ID          string     `json:"id" yaml:"id"`
	Username    string     `json:"username" yaml:"username"`
	Permission  Permission `json:"permission" yaml:"permission"`
	CharacterID string     `json:"character_id" yaml:"character_id"`
}

// IsAdmin reports whether the user may drive the admin panel
func (u *User) IsAdmin() bool {
	return u != nil && u.Permission == PermissionAdmin
}
