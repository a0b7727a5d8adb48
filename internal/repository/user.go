package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gunuduru/assignment-auth/internal/errs"
	"github.com/gunuduru/assignment-auth/internal/model"
	"gorm.io/gorm"
)

// sortable columns for the admin listing; anything else falls back to id
var userSortColumns = map[string]string{
	"id":        "id",
	"username":  "username",
	"name":      "name",
	"createdAt": "created_at",
}

type UserPage struct {
	Page      int
	Size      int
	Sort      string
	Ascending bool
}

type UserStats struct {
	Total    int64
	Active   int64
	Inactive int64
}

// UserInterface defines persistence for accounts.
type UserInterface interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsBySSN(ctx context.Context, ssn string) (bool, error)
	List(ctx context.Context, page UserPage) ([]model.User, int64, error)
	ListActiveUsers(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id int64, fields map[string]any) error
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (*UserStats, error)
	WithTx(tx *gorm.DB) UserInterface
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		// needs TranslateError on the gorm config
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.ErrUsernameTaken
		}
		return fmt.Errorf("%w: create user: %v", errs.ErrStorage, err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: find user %d: %v", errs.ErrStorage, id, err)
	}
	return &user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: find user %q: %v", errs.ErrStorage, username, err)
	}
	return &user, nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *UserRepository) ExistsBySSN(ctx context.Context, ssn string) (bool, error) {
	return r.exists(ctx, "ssn = ?", ssn)
}

func (r *UserRepository) exists(ctx context.Context, cond string, arg any) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where(cond, arg).Count(&n).Error; err != nil {
		return false, fmt.Errorf("%w: exists: %v", errs.ErrStorage, err)
	}
	return n > 0, nil
}

// List returns one page of users plus the total row count.
func (r *UserRepository) List(ctx context.Context, page UserPage) ([]model.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: count users: %v", errs.ErrStorage, err)
	}

	col, ok := userSortColumns[page.Sort]
	if !ok {
		col = "id"
	}
	dir := "DESC"
	if page.Ascending {
		dir = "ASC"
	}

	var users []model.User
	err := r.db.WithContext(ctx).
		Order(col + " " + dir).
		Offset(page.Page * page.Size).
		Limit(page.Size).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list users: %v", errs.ErrStorage, err)
	}
	return users, total, nil
}

// ListActiveUsers returns every active non-admin account, the broadcast audience.
func (r *UserRepository) ListActiveUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND role = ?", true, model.RoleUser).
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list active users: %v", errs.ErrStorage, err)
	}
	return users, nil
}

// Update applies a partial update. MySQL reports zero affected rows when the
// values are unchanged, so existence is the caller's concern.
func (r *UserRepository) Update(ctx context.Context, id int64, fields map[string]any) error {
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return fmt.Errorf("%w: update user %d: %v", errs.ErrStorage, id, err)
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.User{}, id)
	if res.Error != nil {
		return fmt.Errorf("%w: delete user %d: %v", errs.ErrStorage, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Stats(ctx context.Context) (*UserStats, error) {
	var stats UserStats
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("%w: count users: %v", errs.ErrStorage, err)
	}
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("is_active = ?", true).Count(&stats.Active).Error; err != nil {
		return nil, fmt.Errorf("%w: count active users: %v", errs.ErrStorage, err)
	}
	stats.Inactive = stats.Total - stats.Active
	return &stats, nil
}

func (r *UserRepository) WithTx(tx *gorm.DB) UserInterface {
	return &UserRepository{db: tx}
}
