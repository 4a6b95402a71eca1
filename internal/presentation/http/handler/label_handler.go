package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sangkips/retailpos-api/internal/application/service"
	"github.com/sangkips/retailpos-api/internal/presentation/http/dto/request"
	"github.com/sangkips/retailpos-api/internal/presentation/http/dto/response"
	"github.com/sangkips/retailpos-api/pkg/barcode"
	"github.com/sangkips/retailpos-api/pkg/pagination"
)

// LabelHandler handles barcode label requests
type LabelHandler struct {
	labelService  *service.LabelService
	billService   *service.BillService
	uploadMaxSize int64
}

// NewLabelHandler creates a new label handler
func NewLabelHandler(labelService *service.LabelService, billService *service.BillService, uploadMaxSize int64) *LabelHandler {
	return &LabelHandler{
		labelService:  labelService,
		billService:   billService,
		uploadMaxSize: uploadMaxSize,
	}
}

// Print renders the jobs and delivers them to the printer or a PDF
func (h *LabelHandler) Print(c *gin.Context) {
	var req request.PrintLabelsRequest
	if !bindJSON(c, &req) {
		return
	}
	channel, ok := parseChannel(c, req.Channel)
	if !ok {
		return
	}

	result, err := h.labelService.Print(c.Request.Context(), &service.PrintLabelsInput{
		TerminalID: GetTerminalID(c),
		Jobs:       req.ToJobs(),
		Channel:    channel,
	})
	if err != nil {
		response.ErrorWithData(c, err, result)
		return
	}

	response.OK(c, "Labels printed", result)
}

// Preview returns the label sheet as an inline PDF
func (h *LabelHandler) Preview(c *gin.Context) {
	var req request.PrintLabelsRequest
	if !bindJSON(c, &req) {
		return
	}

	pdf, summary, err := h.labelService.Preview(c.Request.Context(), req.ToJobs())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="labels-preview.pdf"`)
	c.Header("X-Labels-Failed", strconv.Itoa(summary.Failed))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// Import prints the rows of an uploaded CSV or XLSX sheet
func (h *LabelHandler) Import(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "No file uploaded")
		return
	}
	if h.uploadMaxSize > 0 && file.Size > h.uploadMaxSize {
		response.ErrorWithCode(c, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File exceeds the %d byte upload limit", h.uploadMaxSize))
		return
	}
	channel, ok := parseChannel(c, c.PostForm("channel"))
	if !ok {
		return
	}

	src, err := file.Open()
	if err != nil {
		response.BadRequest(c, "Failed to read uploaded file")
		return
	}
	defer src.Close()

	imported, result, err := h.labelService.ImportAndPrint(c.Request.Context(), &service.ImportLabelsInput{
		TerminalID:    GetTerminalID(c),
		Filename:      file.Filename,
		File:          src,
		DefaultBranch: c.PostForm("branch_name"),
		Channel:       channel,
	})
	data := gin.H{"import": imported, "print": result}
	if err != nil {
		response.ErrorWithData(c, err, data)
		return
	}

	response.OK(c, "Label sheet imported", data)
}

// PrintBill prints one label per unit sold on a bill
func (h *LabelHandler) PrintBill(c *gin.Context) {
	var req request.PrintBillLabelsRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	channel, ok := parseChannel(c, req.Channel)
	if !ok {
		return
	}

	result, err := h.billService.PrintBillLabels(c.Request.Context(), GetTerminalID(c), c.Param("id"), channel)
	if err != nil {
		response.ErrorWithData(c, err, result)
		return
	}

	response.OK(c, "Bill labels printed", result)
}

// ListJobs returns the print log, newest first
func (h *LabelHandler) ListJobs(c *gin.Context) {
	var filter request.LabelJobFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	logs, page, err := h.labelService.ListJobs(c.Request.Context(), &service.ListJobsInput{
		TerminalID: filter.TerminalID,
		BillID:     filter.BillID,
		Pagination: &pagination.PaginationParams{
			Page:    filter.Page,
			PerPage: filter.PerPage,
		},
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, "Print jobs retrieved", pagination.NewPaginatedResult(logs, page))
}

// GetJob returns one print log entry
func (h *LabelHandler) GetJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid ID format")
		return
	}

	job, err := h.labelService.GetJob(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Print job retrieved", job)
}

// Document serves a stored label PDF
func (h *LabelHandler) Document(c *gin.Context) {
	name := c.Param("name")
	data, err := h.labelService.OpenDocument(c.Request.Context(), name)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	c.Data(http.StatusOK, "application/pdf", data)
}

// Barcode renders a single barcode as PNG. Without a format the
// CODE128 then CODE39 fallback applies.
func (h *LabelHandler) Barcode(c *gin.Context) {
	var sym barcode.Symbology
	if format := c.Query("format"); format != "" {
		parsed, err := barcode.ParseSymbology(format)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		sym = parsed
	}

	data, used, err := h.labelService.RenderBarcode(c.Request.Context(), c.Param("value"), sym)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("X-Barcode-Symbology", used.String())
	c.Data(http.StatusOK, "image/png", data)
}
