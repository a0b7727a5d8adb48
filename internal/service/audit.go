package service

import (
	"context"

	"github.com/gunuduru/assignment-auth/internal/dto/resp"
	"github.com/gunuduru/assignment-auth/internal/model"
	"github.com/gunuduru/assignment-auth/internal/repository"
	"github.com/gunuduru/assignment-auth/pkg/logger"
	"go.uber.org/zap"
)

// AuditRecorder stores admin actions. Recording is best effort: a failure is
// logged and never fails the action itself.
type AuditRecorder interface {
	Record(ctx context.Context, action string, targetID int64, detail string)
}

type AuditService struct {
	repo repository.AuditInterface
}

func NewAuditService(repo repository.AuditInterface) *AuditService {
	return &AuditService{repo: repo}
}

func (s *AuditService) Record(ctx context.Context, action string, targetID int64, detail string) {
	meta := GetRequestMeta(ctx)
	audit := &model.AdminAudit{
		Action:   action,
		TargetID: targetID,
		Detail:   detail,
		Operator: GetOperator(ctx),
		TraceID:  meta.TraceID,
		IP:       meta.IP,
	}
	// the request may be cancelled right after the response is written
	if err := s.repo.Create(context.WithoutCancel(ctx), audit); err != nil {
		logger.Error("failed to record admin audit",
			zap.String("action", action),
			zap.Int64("target_id", targetID),
			zap.String("trace_id", meta.TraceID),
			zap.Error(err))
	}
}

func (s *AuditService) List(ctx context.Context, page, size int) (*resp.AuditListResp, error) {
	page = max(page, 0)
	if size <= 0 {
		size = defaultPageSize
	}
	size = min(size, maxPageSize)

	audits, total, err := s.repo.List(ctx, page*size, size)
	if err != nil {
		return nil, err
	}
	return &resp.AuditListResp{
		Audits:        audits,
		TotalElements: total,
		CurrentPage:   page,
		PageSize:      size,
	}, nil
}

type nopAudit struct{}

func NewNopAuditRecorder() AuditRecorder { return nopAudit{} }

func (nopAudit) Record(context.Context, string, int64, string) {}
