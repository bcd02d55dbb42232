package audit

import (
	"context"
)

type AuditService interface {
	Append(ctx context.Context, entry ImportAuditLog) error
	ListLogs(ctx context.Context, filters QueryFilters, page, limit int64) ([]ImportAuditLog, error)
}

type AuditServiceImpl struct {
	Repo AuditRepository
}

func NewAuditService(repo AuditRepository) AuditService {
	return &AuditServiceImpl{Repo: repo}
}

func (s *AuditServiceImpl) Append(ctx context.Context, entry ImportAuditLog) error {
	return s.Repo.Append(ctx, entry)
}

func (s *AuditServiceImpl) ListLogs(ctx context.Context, filters QueryFilters, page, limit int64) ([]ImportAuditLog, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit
	return s.Repo.List(ctx, filters, limit, offset)
}
