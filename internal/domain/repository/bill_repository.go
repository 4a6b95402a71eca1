package repository

import (
	"context"

	"github.com/sangkips/retailpos-api/internal/domain/entity"
)

// BillRepository reads bills from and submits returns to the billing backend
type BillRepository interface {
	// GetBill returns nil, nil when the bill does not exist
	GetBill(ctx context.Context, id string) (*entity.Bill, error)
	CreateReturn(ctx context.Context, req *entity.ReturnRequest) (*entity.ReturnReceipt, error)
}
