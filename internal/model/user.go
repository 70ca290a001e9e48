package model

type User struct {
	Base
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"`
	FullName     string `json:"full_name" db:"full_name"`
	Role         Role   `json:"role" db:"role"`
}

func (*User) TableName() string { return "users" }

func (u *User) Columns() map[string]interface{} {
	return map[string]interface{}{
		"username":      u.Username,
		"password_hash": u.PasswordHash,
		"full_name":     u.FullName,
		"role":          string(u.Role),
	}
}
