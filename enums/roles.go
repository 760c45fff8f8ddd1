package enums

// Role mirrors the backend's numeric role_id.
type Role int

const (
	RoleAdmin  Role = 1
	RoleSeller Role = 2
)
