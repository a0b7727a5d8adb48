package resp

import (
	"time"

	"github.com/gunuduru/assignment-auth/internal/model"
)

type UserResp struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Name        string    `json:"name"`
	SSN         string    `json:"ssn"`
	PhoneNumber string    `json:"phoneNumber"`
	Address     string    `json:"address"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func FromUser(u *model.User) UserResp {
	return UserResp{
		ID:          u.ID,
		Username:    u.Username,
		Name:        u.Name,
		SSN:         u.SSN,
		PhoneNumber: u.PhoneNumber,
		Address:     u.Address,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

type UserListResp struct {
	Users         []UserResp `json:"users"`
	TotalElements int64      `json:"totalElements"`
	TotalPages    int        `json:"totalPages"`
	CurrentPage   int        `json:"currentPage"`
	PageSize      int        `json:"pageSize"`
	HasNext       bool       `json:"hasNext"`
	HasPrevious   bool       `json:"hasPrevious"`
}

type UserStatsResp struct {
	TotalUsers    int64 `json:"totalUsers"`
	ActiveUsers   int64 `json:"activeUsers"`
	InactiveUsers int64 `json:"inactiveUsers"`
}

type AuditListResp struct {
	Audits        []model.AdminAudit `json:"audits"`
	TotalElements int64              `json:"totalElements"`
	CurrentPage   int                `json:"currentPage"`
	PageSize      int                `json:"pageSize"`
}
