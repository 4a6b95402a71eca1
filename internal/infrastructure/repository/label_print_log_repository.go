package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/retailpos-api/internal/domain/entity"
	domainRepo "github.com/sangkips/retailpos-api/internal/domain/repository"
	"github.com/sangkips/retailpos-api/pkg/pagination"
	"gorm.io/gorm"
)

type labelPrintLogRepository struct {
	db *gorm.DB
}

// NewLabelPrintLogRepository creates a new print log repository
func NewLabelPrintLogRepository(db *gorm.DB) domainRepo.LabelPrintLogRepository {
	return &labelPrintLogRepository{db: db}
}

func (r *labelPrintLogRepository) Create(ctx context.Context, log *entity.LabelPrintLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *labelPrintLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.LabelPrintLog, error) {
	var log entity.LabelPrintLog
	err := r.db.WithContext(ctx).First(&log, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &log, err
}

func (r *labelPrintLogRepository) List(ctx context.Context, params *domainRepo.LabelPrintLogFilterParams) ([]entity.LabelPrintLog, int64, error) {
	var logs []entity.LabelPrintLog
	var total int64

	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	query := r.db.WithContext(ctx).Model(&entity.LabelPrintLog{}).Scopes(terminalScope(params.TerminalID))
	if params.BillID != "" {
		query = query.Where("bill_id = ?", params.BillID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Offset(params.Pagination.Offset()).
		Limit(params.Pagination.PerPage).
		Find(&logs).Error

	return logs, total, err
}
