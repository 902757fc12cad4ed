package models

import "time"

// Role is the authorization level of an account. Values match the
// persisted SMALLINT column.
type Role int

const (
	RoleUser  Role = 0
	RoleAdmin Role = 1
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the persisted account record. PasswordHash and IsDeleted never
// serialise, so a JSON copy of a User is already desensitized.
type User struct {
	ID           int64     `json:"id"`
	AccountName  string    `json:"userAccount"`
	Username     string    `json:"username"`
	AvatarURL    string    `json:"avatarUrl"`
	Gender       int       `json:"gender"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Status       int       `json:"userStatus"`
	Role         Role      `json:"userRole"`
	PlanetCode   string    `json:"planetCode"`
	PasswordHash string    `json:"-"`
	IsDeleted    bool      `json:"-"`
	CreatedAt    time.Time `json:"createTime"`
	UpdatedAt    time.Time `json:"updateTime"`
}
