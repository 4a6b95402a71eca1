package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sangkips/retailpos-api/internal/application/service"
	"github.com/sangkips/retailpos-api/internal/presentation/http/dto/request"
	"github.com/sangkips/retailpos-api/internal/presentation/http/dto/response"
	"github.com/sangkips/retailpos-api/pkg/apperror"
	"github.com/sangkips/retailpos-api/pkg/billing"
)

// BillingHandler exposes the bill arithmetic
type BillingHandler struct {
	billService *service.BillService
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(billService *service.BillService) *BillingHandler {
	return &BillingHandler{billService: billService}
}

// ComputeTotal handles POST /billing/total
func (h *BillingHandler) ComputeTotal(c *gin.Context) {
	var req request.BillTotalRequest
	if !bindJSON(c, &req) || !validate(c, req.Validate()) {
		return
	}

	total := h.billService.ComputeTotals(req.ToLineItems(), req.Discount.ToDiscount())
	response.OK(c, "Bill total computed", total)
}

// AllocateDiscount handles POST /billing/allocate
func (h *BillingHandler) AllocateDiscount(c *gin.Context) {
	var req request.BillTotalRequest
	if !bindJSON(c, &req) || !validate(c, req.Validate()) {
		return
	}

	shares := h.billService.AllocateDiscount(req.ToLineItems(), req.Discount.ToDiscount())
	response.OK(c, "Discount allocated", shares)
}

// Breakdown handles POST /billing/breakdown
func (h *BillingHandler) Breakdown(c *gin.Context) {
	var req request.BillBreakdownRequest
	if !bindJSON(c, &req) || !validate(c, req.Validate()) {
		return
	}

	breakdown := h.billService.Breakdown(req.ToLineItems(), req.Discount.ToDiscount(), req.GST)
	response.OK(c, "Bill breakdown computed", breakdown)
}

// BackCalculateTax handles POST /billing/tax/back-calculate
func (h *BillingHandler) BackCalculateTax(c *gin.Context) {
	var req request.BackCalculateTaxRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.TaxRate.IsNegative() {
		response.ValidationError(c, []apperror.FieldError{{Field: "tax_rate", Message: "Tax rate must not be negative"}})
		return
	}

	response.OK(c, "Tax back-calculated", h.billService.BackCalculateTax(req.InclusivePrice, req.TaxRate))
}

// RoundOff handles POST /billing/round-off
func (h *BillingHandler) RoundOff(c *gin.Context) {
	var req request.RoundOffRequest
	if !bindJSON(c, &req) {
		return
	}

	response.OK(c, "Amount rounded", gin.H{
		"amount":  req.Amount,
		"rounded": h.billService.RoundOff(req.Amount),
	})
}

// Replacement handles POST /billing/replacement
func (h *BillingHandler) Replacement(c *gin.Context) {
	var req request.ReplacementRequest
	if !bindJSON(c, &req) || !validate(c, req.Discount.Validate("discount")) {
		return
	}

	var discount *billing.Discount
	if req.Discount != nil {
		d := req.Discount.ToDiscount()
		discount = &d
	}
	result := h.billService.Replacement(req.OriginalUnitPrice, req.ReplacementUnitPrice, req.Quantity, discount)
	response.OK(c, "Replacement priced", result)
}
