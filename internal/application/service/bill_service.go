package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/sangkips/retailpos-api/internal/config"
	"github.com/sangkips/retailpos-api/internal/domain/entity"
	"github.com/sangkips/retailpos-api/internal/domain/enum"
	"github.com/sangkips/retailpos-api/internal/domain/repository"
	"github.com/sangkips/retailpos-api/internal/infrastructure/cache"
	"github.com/sangkips/retailpos-api/pkg/apperror"
	"github.com/sangkips/retailpos-api/pkg/billing"
	"github.com/sangkips/retailpos-api/pkg/label"
)

// returnLockTTL bounds how long one return submission holds its bill
const returnLockTTL = 30 * time.Second

// BillService handles bill arithmetic, returns and bill label printing
type BillService struct {
	billRepo        repository.BillRepository
	labels          *LabelService
	locker          cache.Locker
	allocationScale int32
	logger          *logrus.Logger
}

// NewBillService creates a new bill service
func NewBillService(
	billRepo repository.BillRepository,
	labels *LabelService,
	locker cache.Locker,
	allocationScale int32,
	logger *logrus.Logger,
) *BillService {
	if locker == nil {
		locker = cache.NoopLocker{}
	}
	if allocationScale <= 0 {
		allocationScale = billing.DefaultAllocationScale
	}
	return &BillService{
		billRepo:        billRepo,
		labels:          labels,
		locker:          locker,
		allocationScale: allocationScale,
		logger:          logger,
	}
}

// ComputeTotals returns subtotal, discount and grand total of a cart
func (s *BillService) ComputeTotals(items []billing.LineItem, discount billing.Discount) billing.BillTotal {
	s.logger.WithFields(logrus.Fields{"items": len(items), "discount": discount}).Debug("computing bill total")
	return billing.ComputeBillTotal(items, discount)
}

// AllocateDiscount spreads a bill-level discount over the items
func (s *BillService) AllocateDiscount(items []billing.LineItem, discount billing.Discount) []billing.ItemDiscount {
	s.logger.WithFields(logrus.Fields{"items": len(items), "discount": discount}).Debug("allocating discount")
	return billing.AllocateItemDiscount(items, discount, s.allocationScale)
}

// Breakdown returns totals, per-item discount shares and GST splits
func (s *BillService) Breakdown(items []billing.LineItem, discount billing.Discount, gst bool) billing.BillBreakdown {
	s.logger.WithFields(logrus.Fields{"items": len(items), "gst": gst}).Debug("computing bill breakdown")
	return billing.ComputeBill(items, discount, gst, s.allocationScale)
}

func (s *BillService) BackCalculateTax(inclusivePrice, taxRate decimal.Decimal) billing.TaxSplit {
	return billing.BackCalculateTax(inclusivePrice, taxRate)
}

func (s *BillService) Replacement(original, replacement decimal.Decimal, quantity int64, discount *billing.Discount) billing.Replacement {
	return billing.ComputeReplacementPriceDifference(original, replacement, quantity, discount)
}

// RoundOff rounds the magnitude of amount, keeping its sign
func (s *BillService) RoundOff(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return billing.RoundOff(amount.Abs()).Neg()
	}
	return billing.RoundOff(amount)
}

// ReturnPreview is the priced return selection for a bill
type ReturnPreview struct {
	BillID string `json:"bill_id"`
	BillNo string `json:"bill_no,omitempty"`
	billing.ReturnTotal
}

// ReturnSubmission is the backend acknowledgement of a submitted return
type ReturnSubmission struct {
	ReturnPreview
	ReturnID string `json:"return_id"`
	ReturnNo string `json:"return_no,omitempty"`
}

// PreviewReturn prices a return selection against the stored bill.
// Lines naming the same bill item are merged.
func (s *BillService) PreviewReturn(ctx context.Context, billID string, items []entity.ReturnItem) (*ReturnPreview, error) {
	if len(items) == 0 {
		return nil, apperror.NewBadRequestError("No items selected for return")
	}

	bill, err := s.getBill(ctx, billID)
	if err != nil {
		return nil, err
	}

	lines, fieldErrors := returnLines(bill, mergeReturnItems(items))
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	total, err := billing.ComputeReturnAmount(lines)
	if err != nil {
		var qtyErr *billing.ReturnQuantityError
		if errors.As(err, &qtyErr) {
			return nil, apperror.NewValidationError(quantityFieldErrors(qtyErr))
		}
		return nil, err
	}

	return &ReturnPreview{
		BillID:      bill.ID,
		BillNo:      bill.BillNo,
		ReturnTotal: total,
	}, nil
}

// SubmitReturn validates and prices the return, then records it with the
// billing backend. Only one submission per bill runs at a time.
func (s *BillService) SubmitReturn(ctx context.Context, billID string, items []entity.ReturnItem) (*ReturnSubmission, error) {
	release, err := s.locker.Obtain(ctx, "bill-return:"+billID, returnLockTTL)
	if errors.Is(err, cache.ErrLockNotObtained) {
		return nil, apperror.NewConflictError("A return for this bill is already being processed")
	}
	if err != nil {
		config.LogError(s.logger, "BillService", "SubmitReturn", "obtain lock", billID, err)
		return nil, apperror.ErrInternalServer.Wrap(err)
	}
	defer release()

	preview, err := s.PreviewReturn(ctx, billID, items)
	if err != nil {
		return nil, err
	}

	req := &entity.ReturnRequest{BillID: preview.BillID}
	for _, line := range preview.Lines {
		req.Items = append(req.Items, entity.ReturnItem{BillItemID: line.BillItemID, Qty: line.Quantity})
	}

	receipt, err := s.billRepo.CreateReturn(ctx, req)
	if err != nil {
		config.LogError(s.logger, "BillService", "SubmitReturn", "create return", req, err)
		return nil, err
	}

	if !receipt.Amount.IsZero() && !receipt.Amount.Equal(preview.Total) {
		s.logger.WithFields(logrus.Fields{
			"bill_id":  billID,
			"computed": preview.Total.String(),
			"backend":  receipt.Amount.String(),
		}).Warn("backend return amount differs from computed amount")
	}

	return &ReturnSubmission{
		ReturnPreview: *preview,
		ReturnID:      receipt.ID,
		ReturnNo:      receipt.ReturnNo,
	}, nil
}

// PrintBillLabels prints one label per unit sold on a bill, priced at the
// item's final amount
func (s *BillService) PrintBillLabels(ctx context.Context, terminalID, billID string, channel enum.PrintChannel) (*PrintResult, error) {
	bill, err := s.getBill(ctx, billID)
	if err != nil {
		return nil, err
	}

	jobs := make([]label.Job, 0, len(bill.Items))
	for _, item := range bill.Items {
		jobs = append(jobs, label.Job{
			BarcodeValue: item.Barcode,
			BranchName:   bill.BranchName,
			Price:        finalAmount(item),
			Quantity:     int(item.Qty),
			LogoURL:      bill.BranchLogoURL,
		})
	}

	return s.labels.Print(ctx, &PrintLabelsInput{
		TerminalID: terminalID,
		BillID:     bill.ID,
		Jobs:       jobs,
		Channel:    channel,
	})
}

// GetBill returns a stored bill, 404 when the backend does not know it
func (s *BillService) GetBill(ctx context.Context, billID string) (*entity.Bill, error) {
	return s.getBill(ctx, billID)
}

func (s *BillService) getBill(ctx context.Context, billID string) (*entity.Bill, error) {
	if billID == "" {
		return nil, apperror.NewBadRequestError("Bill ID is required")
	}

	bill, err := s.billRepo.GetBill(ctx, billID)
	if err != nil {
		config.LogError(s.logger, "BillService", "getBill", "fetch bill", billID, err)
		return nil, err
	}
	if bill == nil {
		return nil, apperror.NewNotFoundError("Bill")
	}
	return bill, nil
}

// finalAmount is the recorded per-unit amount, derived from the item's
// own discount when the backend did not send one
func finalAmount(item entity.BillItem) decimal.Decimal {
	if item.FinalAmount != nil {
		return *item.FinalAmount
	}
	return billing.LineFinalAmount(billing.LineItem{
		ID:            item.ID,
		UnitPrice:     item.Price,
		Quantity:      item.Qty,
		DiscountType:  item.DiscountType,
		DiscountValue: item.DiscountValue,
	})
}

func mergeReturnItems(items []entity.ReturnItem) []entity.ReturnItem {
	merged := make([]entity.ReturnItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		if i, ok := index[item.BillItemID]; ok {
			merged[i].Qty += item.Qty
			continue
		}
		index[item.BillItemID] = len(merged)
		merged = append(merged, item)
	}
	return merged
}

func returnLines(bill *entity.Bill, items []entity.ReturnItem) ([]billing.ReturnLine, []apperror.FieldError) {
	lines := make([]billing.ReturnLine, 0, len(items))
	var fieldErrors []apperror.FieldError
	for i, item := range items {
		billItem, ok := bill.ItemByID(item.BillItemID)
		if !ok {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   fmt.Sprintf("items[%d].bill_item_id", i),
				Message: "Item " + item.BillItemID + " is not on this bill",
			})
			continue
		}
		lines = append(lines, billing.ReturnLine{
			BillItemID:  billItem.ID,
			FinalAmount: finalAmount(*billItem),
			ReturnQty:   item.Qty,
			OriginalQty: billItem.Qty,
			ReturnedQty: billItem.ReturnedQty,
		})
	}
	return lines, fieldErrors
}

func quantityFieldErrors(err *billing.ReturnQuantityError) []apperror.FieldError {
	fieldErrors := make([]apperror.FieldError, 0, len(err.Violations))
	for _, v := range err.Violations {
		msg := fmt.Sprintf("Return quantity %d exceeds available quantity %d", v.Requested, v.Available)
		if v.Requested < 1 {
			msg = "Return quantity must be at least 1"
		}
		fieldErrors = append(fieldErrors, apperror.FieldError{
			Field:   "items." + v.BillItemID + ".qty",
			Message: msg,
		})
	}
	return fieldErrors
}
