package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gunuduru/assignment-auth/internal/dto/req"
	"github.com/gunuduru/assignment-auth/internal/dto/resp"
	"github.com/gunuduru/assignment-auth/internal/errs"
	"github.com/gunuduru/assignment-auth/internal/model"
	"github.com/gunuduru/assignment-auth/internal/repository"
	"github.com/gunuduru/assignment-auth/pkg/logger"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type AdminService struct {
	users    repository.UserInterface
	sessions repository.SessionInterface
	hasher   PasswordHasher
	audit    AuditRecorder
}

func NewAdminService(users repository.UserInterface, sessions repository.SessionInterface, hasher PasswordHasher, audit AuditRecorder) *AdminService {
	if audit == nil {
		audit = NewNopAuditRecorder()
	}
	return &AdminService{users: users, sessions: sessions, hasher: hasher, audit: audit}
}

func (s *AdminService) ListUsers(ctx context.Context, q req.ListUsersQuery) (*resp.UserListResp, error) {
	page := repository.UserPage{
		Page:      max(q.Page, 0),
		Size:      q.Size,
		Sort:      q.Sort,
		Ascending: !strings.EqualFold(q.Direction, "desc"),
	}
	if page.Size <= 0 {
		page.Size = defaultPageSize
	}
	page.Size = min(page.Size, maxPageSize)
	if page.Sort == "" {
		page.Sort = "id"
	}

	users, total, err := s.users.List(ctx, page)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(page.Size) - 1) / int64(page.Size))
	out := &resp.UserListResp{
		Users:         make([]resp.UserResp, 0, len(users)),
		TotalElements: total,
		TotalPages:    totalPages,
		CurrentPage:   page.Page,
		PageSize:      page.Size,
		HasNext:       page.Page+1 < totalPages,
		HasPrevious:   page.Page > 0,
	}
	for i := range users {
		out.Users = append(out.Users, resp.FromUser(&users[i]))
	}
	return out, nil
}

func (s *AdminService) GetUser(ctx context.Context, id int64) (*resp.UserResp, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := resp.FromUser(user)
	return &out, nil
}

// UpdateUser changes password and/or address. A password change revokes the
// user's refresh session.
func (s *AdminService) UpdateUser(ctx context.Context, id int64, r req.UpdateUserReq) (*resp.UserResp, error) {
	if !r.HasUpdates() {
		return nil, errs.ErrNoUpdates
	}
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if r.Password != nil {
		hash, err := s.hasher.Hash(*r.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		fields["password"] = hash
	}
	if r.Address != nil {
		fields["address"] = *r.Address
	}
	if err := s.users.Update(ctx, id, fields); err != nil {
		return nil, err
	}

	if r.Password != nil {
		if err := s.sessions.Delete(ctx, id); err != nil {
			logger.Warn("failed to revoke session after password change", zap.Int64("user_id", id), zap.Error(err))
		}
	}

	s.audit.Record(ctx, model.AuditUserUpdate, id, updatedFields(r))
	logger.Info("user updated by admin",
		zap.String("operator", GetOperator(ctx)),
		zap.Int64("user_id", id),
		zap.Bool("password", r.Password != nil),
		zap.Bool("address", r.Address != nil))

	return s.GetUser(ctx, id)
}

// DeleteUser removes the account row and its session.
func (s *AdminService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		logger.Warn("failed to revoke session of deleted user", zap.Int64("user_id", id), zap.Error(err))
	}
	s.audit.Record(ctx, model.AuditUserDelete, id, "")
	logger.Info("user deleted by admin", zap.String("operator", GetOperator(ctx)), zap.Int64("user_id", id))
	return nil
}

// updatedFields never includes values, only field names.
func updatedFields(r req.UpdateUserReq) string {
	var fields []string
	if r.Password != nil {
		fields = append(fields, "password")
	}
	if r.Address != nil {
		fields = append(fields, "address")
	}
	return strings.Join(fields, ",")
}

func (s *AdminService) Statistics(ctx context.Context) (*resp.UserStatsResp, error) {
	st, err := s.users.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &resp.UserStatsResp{
		TotalUsers:    st.Total,
		ActiveUsers:   st.Active,
		InactiveUsers: st.Inactive,
	}, nil
}
