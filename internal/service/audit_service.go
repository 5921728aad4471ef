package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/campuscore/uni-admin-api/internal/models"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
)

type auditRepo interface {
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error)
}

// AuditService exposes the read side of the audit trail.
type AuditService struct {
	audits auditRepo
	logger *zap.Logger
}

// NewAuditService constructs AuditService.
func NewAuditService(audits auditRepo, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{audits: audits, logger: logger}
}

// List returns audit records matching the filter, newest first.
func (s *AuditService) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error) {
	logs, total, err := s.audits.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	return logs, total, nil
}
