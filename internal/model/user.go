package model

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"size:20;not null;uniqueIndex:idx_username"`
	PasswordHash string    `json:"-" gorm:"column:password;size:72;not null"`
	Name         string    `json:"name" gorm:"size:10;not null"`
	SSN          string    `json:"ssn" gorm:"column:ssn;size:14;not null;uniqueIndex:idx_ssn"`
	PhoneNumber  string    `json:"phone_number" gorm:"size:13;not null"`
	Address      string    `json:"address" gorm:"size:100;not null"`
	Role         Role      `json:"role" gorm:"size:16;not null;default:USER"`
	IsActive     bool      `json:"is_active" gorm:"not null;default:true;index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
