package models

import "github.com/octabyte/pharmacy-session/enums"

// User is the identity cached next to the access token.
type User struct {
	ID        uint64     `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	RoleID    enums.Role `json:"role_id"`
}

func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
