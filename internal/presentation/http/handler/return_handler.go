package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sangkips/retailpos-api/internal/application/service"
	"github.com/sangkips/retailpos-api/internal/presentation/http/dto/request"
	"github.com/sangkips/retailpos-api/internal/presentation/http/dto/response"
)

// ReturnHandler handles sales return requests
type ReturnHandler struct {
	billService *service.BillService
}

// NewReturnHandler creates a new return handler
func NewReturnHandler(billService *service.BillService) *ReturnHandler {
	return &ReturnHandler{billService: billService}
}

// Preview prices a return selection without submitting it
func (h *ReturnHandler) Preview(c *gin.Context) {
	var req request.ReturnRequest
	if !bindJSON(c, &req) {
		return
	}

	preview, err := h.billService.PreviewReturn(c.Request.Context(), req.BillID, req.ToReturnItems())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Return priced", preview)
}

// Submit posts a validated return to the billing backend
func (h *ReturnHandler) Submit(c *gin.Context) {
	var req request.ReturnRequest
	if !bindJSON(c, &req) {
		return
	}

	submission, err := h.billService.SubmitReturn(c.Request.Context(), req.BillID, req.ToReturnItems())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Return submitted successfully", submission)
}

// GetBill returns a bill as stored by the billing backend
func (h *ReturnHandler) GetBill(c *gin.Context) {
	bill, err := h.billService.GetBill(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill retrieved", bill)
}
