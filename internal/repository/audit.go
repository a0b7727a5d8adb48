package repository

import (
	"context"
	"fmt"

	"github.com/gunuduru/assignment-auth/internal/errs"
	"github.com/gunuduru/assignment-auth/internal/model"
	"gorm.io/gorm"
)

// AuditInterface defines the interface for admin audit persistence
type AuditInterface interface {
	Create(ctx context.Context, audit *model.AdminAudit) error
	List(ctx context.Context, offset, limit int) ([]model.AdminAudit, int64, error)
	WithTx(tx *gorm.DB) AuditInterface
}

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, audit *model.AdminAudit) error {
	if err := r.db.WithContext(ctx).Create(audit).Error; err != nil {
		return fmt.Errorf("%w: create audit: %v", errs.ErrStorage, err)
	}
	return nil
}

// List returns audits newest first together with the total count.
func (r *AuditRepository) List(ctx context.Context, offset, limit int) ([]model.AdminAudit, int64, error) {
	var audits []model.AdminAudit
	var total int64

	db := r.db.WithContext(ctx).Model(&model.AdminAudit{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: count audits: %v", errs.ErrStorage, err)
	}

	if err := db.Offset(offset).Limit(limit).Order("id DESC").Find(&audits).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: list audits: %v", errs.ErrStorage, err)
	}

	return audits, total, nil
}

func (r *AuditRepository) WithTx(tx *gorm.DB) AuditInterface {
	return &AuditRepository{db: tx}
}
