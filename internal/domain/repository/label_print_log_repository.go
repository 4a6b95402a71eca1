package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/retailpos-api/internal/domain/entity"
	"github.com/sangkips/retailpos-api/pkg/pagination"
)

// LabelPrintLogRepository defines the interface for print log persistence
type LabelPrintLogRepository interface {
	Create(ctx context.Context, log *entity.LabelPrintLog) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.LabelPrintLog, error)
	List(ctx context.Context, params *LabelPrintLogFilterParams) ([]entity.LabelPrintLog, int64, error)
}

// LabelPrintLogFilterParams contains filtering parameters for print log queries
type LabelPrintLogFilterParams struct {
	Pagination *pagination.PaginationParams
	TerminalID string
	BillID     string
}
