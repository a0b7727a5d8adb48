package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gunuduru/assignment-auth/internal/errs"
	"github.com/gunuduru/assignment-auth/internal/model"
	"github.com/gunuduru/assignment-auth/internal/repository"
	"gorm.io/gorm"
)

// memUsers is an in-memory UserInterface.
type memUsers struct {
	mu     sync.Mutex
	rows   map[int64]model.User
	nextID int64
	err    error
}

func newMemUsers(users ...model.User) *memUsers {
	m := &memUsers{rows: map[int64]model.User{}, nextID: 1}
	for _, u := range users {
		_ = m.Create(context.Background(), &u)
	}
	return m
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.nextID
	m.nextID++
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	m.rows[u.ID] = *u
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, errs.ErrUserNotFound
	}
	return &u, nil
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, errs.ErrUserNotFound
}

func (m *memUsers) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := m.FindByUsername(ctx, username)
	return err == nil, nil
}

func (m *memUsers) ExistsBySSN(_ context.Context, ssn string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.SSN == ssn {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) sorted() []model.User {
	out := make([]model.User, 0, len(m.rows))
	for _, u := range m.rows {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memUsers) List(_ context.Context, p repository.UserPage) ([]model.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted()
	start := min(p.Page*p.Size, len(all))
	end := min(start+p.Size, len(all))
	return all[start:end], int64(len(all)), nil
}

func (m *memUsers) ListActiveUsers(context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []model.User
	for _, u := range m.sorted() {
		if u.IsActive && u.Role == model.RoleUser {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) Update(_ context.Context, id int64, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.rows[id]
	if v, ok := fields["password"]; ok {
		u.PasswordHash = v.(string)
	}
	if v, ok := fields["address"]; ok {
		u.Address = v.(string)
	}
	u.UpdatedAt = time.Now()
	m.rows[id] = u
	return nil
}

func (m *memUsers) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return errs.ErrUserNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memUsers) Stats(context.Context) (*repository.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := &repository.UserStats{Total: int64(len(m.rows))}
	for _, u := range m.rows {
		if u.IsActive {
			st.Active++
		}
	}
	st.Inactive = st.Total - st.Active
	return st, nil
}

func (m *memUsers) WithTx(*gorm.DB) repository.UserInterface { return m }

// plainHasher keeps tests fast; bcrypt is covered separately.
type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "h:" + p, nil }
func (plainHasher) Compare(hash, p string) bool { return hash == "h:"+p }

// memAudit is an in-memory AuditInterface; List returns insertion order.
type memAudit struct {
	mu   sync.Mutex
	rows []model.AdminAudit
}

func (m *memAudit) Create(_ context.Context, a *model.AdminAudit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, *a)
	return nil
}

func (m *memAudit) List(_ context.Context, offset, limit int) ([]model.AdminAudit, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := min(offset, len(m.rows))
	end := min(start+limit, len(m.rows))
	return m.rows[start:end], int64(len(m.rows)), nil
}

func (m *memAudit) WithTx(*gorm.DB) repository.AuditInterface { return m }
