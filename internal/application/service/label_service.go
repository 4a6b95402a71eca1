package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sangkips/retailpos-api/internal/config"
	"github.com/sangkips/retailpos-api/internal/domain/entity"
	"github.com/sangkips/retailpos-api/internal/domain/enum"
	"github.com/sangkips/retailpos-api/internal/domain/repository"
	"github.com/sangkips/retailpos-api/internal/infrastructure/storage"
	"github.com/sangkips/retailpos-api/pkg/apperror"
	"github.com/sangkips/retailpos-api/pkg/barcode"
	"github.com/sangkips/retailpos-api/pkg/label"
	"github.com/sangkips/retailpos-api/pkg/pagination"
)

// LabelService runs barcode label print invocations
type LabelService struct {
	pipeline     *label.Pipeline
	presenters   []Presenter
	documents    storage.DocumentStore
	logRepo      repository.LabelPrintLogRepository
	fetch        label.FetchFunc
	layout       label.Layout
	assetTimeout time.Duration
	defaultLogo  string
	logger       *logrus.Logger
}

// LabelServiceOptions holds the tunables of a LabelService
type LabelServiceOptions struct {
	Layout       label.Layout
	AssetTimeout time.Duration
	// DefaultLogo is used for jobs that do not name a logo
	DefaultLogo string
	// Fetch loads logos. The default reads DefaultLogo only.
	Fetch label.FetchFunc
}

// NewLabelService creates a new label service. Presenters are tried in order.
func NewLabelService(
	pipeline *label.Pipeline,
	presenters []Presenter,
	documents storage.DocumentStore,
	logRepo repository.LabelPrintLogRepository,
	opts LabelServiceOptions,
	logger *logrus.Logger,
) *LabelService {
	if opts.Fetch == nil {
		opts.Fetch = label.NewFetcher(nil, label.FetchPolicy{LocalPaths: []string{opts.DefaultLogo}})
	}
	if opts.AssetTimeout <= 0 {
		opts.AssetTimeout = 3 * time.Second
	}
	return &LabelService{
		pipeline:     pipeline,
		presenters:   presenters,
		documents:    documents,
		logRepo:      logRepo,
		fetch:        opts.Fetch,
		layout:       opts.Layout,
		assetTimeout: opts.AssetTimeout,
		defaultLogo:  opts.DefaultLogo,
		logger:       logger,
	}
}

// PrintLabelsInput represents one print invocation
type PrintLabelsInput struct {
	TerminalID string
	BillID     string
	Jobs       []label.Job
	// Channel restricts delivery to one surface; PrintChannelNone tries all
	Channel enum.PrintChannel
}

// PrintResult reports the outcome of a print invocation
type PrintResult struct {
	Success        bool              `json:"success"`
	SucceededCount int               `json:"succeeded_count"`
	FailedCount    int               `json:"failed_count"`
	RequestedCount int               `json:"requested_count"`
	Rows           int               `json:"rows"`
	ErrorMessage   string            `json:"error_message,omitempty"`
	Warning        string            `json:"warning,omitempty"`
	Channel        enum.PrintChannel `json:"channel"`
	DocumentURL    string            `json:"document_url,omitempty"`
	JobID          *uuid.UUID        `json:"job_id,omitempty"`
}

// prepared is a rasterized and paginated batch
type prepared struct {
	sheet   *LabelSheet
	summary label.Summary
}

// prepare runs the expand, rasterize and paginate steps
func (s *LabelService) prepare(ctx context.Context, terminalID string, jobs []label.Job) (*prepared, error) {
	if n := label.BatchSize(jobs); n > label.MaxBatchLabels {
		return nil, apperror.ErrTooManyLabels.Wrap(fmt.Errorf("%d labels requested, at most %d allowed", n, label.MaxBatchLabels))
	}
	requests := label.Expand(jobs)
	if len(requests) == 0 {
		return nil, apperror.ErrNoBarcodeData
	}
	for i := range requests {
		if requests[i].LogoURL == "" {
			requests[i].LogoURL = s.defaultLogo
		}
	}

	labels, failures := s.pipeline.Rasterize(ctx, requests)
	summary := label.Summary{
		Requested: len(requests),
		Succeeded: len(labels),
		Failed:    len(failures),
	}
	if len(labels) == 0 {
		return &prepared{summary: summary}, apperror.ErrNoBarcodesGenerated
	}

	rows := label.Paginate(labels)
	logos := label.LoadAssets(ctx, s.fetch, label.LogoURLs(rows), s.assetTimeout)

	return &prepared{
		sheet: &LabelSheet{
			TerminalID: terminalID,
			Rows:       rows,
			Logos:      logos,
		},
		summary: summary,
	}, nil
}

// Print expands, rasterizes, paginates and delivers a batch of label jobs.
// Partial rasterization failures succeed with a warning. Zero successes
// and delivery failure on every surface are errors; the returned result
// then carries the counts and the error message.
func (s *LabelService) Print(ctx context.Context, input *PrintLabelsInput) (*PrintResult, error) {
	p, err := s.prepare(ctx, input.TerminalID, input.Jobs)
	if err != nil {
		if p == nil {
			return nil, err
		}
		s.record(ctx, input, p.summary, 0, nil, err)
		return failedResult(p.summary, 0, err), err
	}

	rows := len(p.sheet.Rows)
	delivery, err := s.deliver(ctx, p.sheet, input.Channel)
	if err != nil {
		config.LogError(s.logger, "LabelService", "Print", "deliver", p.summary, err)
		s.record(ctx, input, p.summary, rows, nil, err)
		return failedResult(p.summary, rows, err), err
	}

	result := &PrintResult{
		Success:        true,
		SucceededCount: p.summary.Succeeded,
		FailedCount:    p.summary.Failed,
		RequestedCount: p.summary.Requested,
		Rows:           rows,
		Channel:        delivery.Channel,
		DocumentURL:    delivery.DocumentURL,
	}
	if p.summary.Failed > 0 {
		result.Warning = fmt.Sprintf("%d of %d labels could not be generated", p.summary.Failed, p.summary.Requested)
	}

	if id := s.record(ctx, input, p.summary, rows, delivery, nil); id != uuid.Nil {
		result.JobID = &id
	}

	s.logger.WithFields(logrus.Fields{
		"terminal_id": input.TerminalID,
		"requested":   result.RequestedCount,
		"succeeded":   result.SucceededCount,
		"failed":      result.FailedCount,
		"channel":     result.Channel.String(),
	}).Info("labels printed")

	return result, nil
}

func failedResult(summary label.Summary, rows int, err error) *PrintResult {
	return &PrintResult{
		Success:        false,
		SucceededCount: summary.Succeeded,
		FailedCount:    summary.Failed,
		RequestedCount: summary.Requested,
		Rows:           rows,
		ErrorMessage:   apperror.GetAppError(err).Message,
	}
}

// deliver tries each available presenter in order until one succeeds
func (s *LabelService) deliver(ctx context.Context, sheet *LabelSheet, only enum.PrintChannel) (*Delivery, error) {
	var errs []error
	attempted := 0
	for _, presenter := range s.presenters {
		if only != enum.PrintChannelNone && presenter.Channel() != only {
			continue
		}
		if !presenter.Available() {
			errs = append(errs, fmt.Errorf("%s: unavailable", presenter.Channel()))
			continue
		}

		attempted++
		delivery, err := presenter.Present(ctx, sheet)
		if err == nil {
			return delivery, nil
		}
		s.logger.WithError(err).WithField("channel", presenter.Channel().String()).Warn("label delivery failed, trying next surface")
		errs = append(errs, err)
	}

	if attempted == 0 && len(errs) == 0 {
		errs = append(errs, errors.New("no print surface configured"))
	}
	return nil, apperror.ErrPrintDeliveryFailed.Wrap(errors.Join(errs...))
}

// record stores the invocation in the print log. Failures to log never fail the print.
func (s *LabelService) record(ctx context.Context, input *PrintLabelsInput, summary label.Summary, rows int, delivery *Delivery, printErr error) uuid.UUID {
	if s.logRepo == nil {
		return uuid.Nil
	}

	entry := &entity.LabelPrintLog{
		TerminalID: input.TerminalID,
		BillID:     input.BillID,
		Requested:  summary.Requested,
		Succeeded:  summary.Succeeded,
		Failed:     summary.Failed,
		Rows:       rows,
	}
	if delivery != nil {
		entry.Channel = delivery.Channel
		entry.DocumentName = delivery.DocumentName
	}
	if printErr != nil {
		entry.Error = printErr.Error()
	}

	if err := s.logRepo.Create(ctx, entry); err != nil {
		config.LogError(s.logger, "LabelService", "record", "create print log", entry, err)
		return uuid.Nil
	}
	return entry.ID
}

// Preview renders the batch as a PDF without delivering it
func (s *LabelService) Preview(ctx context.Context, jobs []label.Job) ([]byte, *label.Summary, error) {
	p, err := s.prepare(ctx, "", jobs)
	if err != nil {
		return nil, nil, err
	}

	pdf, err := label.RenderPDF(p.sheet.Rows, p.sheet.Logos, s.layout)
	if err != nil {
		return nil, nil, apperror.ErrInternalServer.Wrap(err)
	}
	return pdf, &p.summary, nil
}

// ImportLabelsInput is a spreadsheet of label jobs to print
type ImportLabelsInput struct {
	TerminalID    string
	Filename      string
	File          io.Reader
	DefaultBranch string
	Channel       enum.PrintChannel
}

// ImportAndPrint parses a label sheet and prints its valid rows. The
// import result is returned even when nothing could be printed.
func (s *LabelService) ImportAndPrint(ctx context.Context, input *ImportLabelsInput) (*label.ImportResult, *PrintResult, error) {
	jobs, result, err := label.ParseJobs(input.File, input.Filename, input.DefaultBranch)
	if err != nil {
		return nil, nil, apperror.NewBadRequestError(err.Error())
	}
	if len(jobs) == 0 {
		return result, nil, apperror.ErrNoBarcodeData
	}

	printed, err := s.Print(ctx, &PrintLabelsInput{
		TerminalID: input.TerminalID,
		Jobs:       jobs,
		Channel:    input.Channel,
	})
	return result, printed, err
}

// RenderBarcode returns the PNG of a single barcode. An empty symbology
// applies the CODE128 then CODE39 fallback.
func (s *LabelService) RenderBarcode(ctx context.Context, value string, sym barcode.Symbology) ([]byte, barcode.Symbology, error) {
	if value == "" {
		return nil, "", apperror.ErrNoBarcodeData
	}

	img, used, err := s.pipeline.Render(ctx, value, sym)
	if err != nil {
		return nil, "", apperror.NewAppError(apperror.ErrUnprocessable.Code, "Barcode cannot be encoded: "+err.Error())
	}

	data, err := barcode.EncodePNG(img)
	if err != nil {
		return nil, "", apperror.ErrInternalServer.Wrap(err)
	}
	return data, used, nil
}

// OpenDocument returns a stored label document
func (s *LabelService) OpenDocument(ctx context.Context, name string) ([]byte, error) {
	if s.documents == nil {
		return nil, apperror.NewNotFoundError("Document")
	}

	data, err := s.documents.Open(ctx, name)
	switch {
	case errors.Is(err, storage.ErrInvalidName):
		return nil, apperror.NewBadRequestError("Invalid document name")
	case errors.Is(err, storage.ErrDocumentNotFound):
		return nil, apperror.NewNotFoundError("Document")
	case err != nil:
		return nil, err
	}
	return data, nil
}

// ListJobsInput filters the print log
type ListJobsInput struct {
	TerminalID string
	BillID     string
	Pagination *pagination.PaginationParams
}

// ListJobs returns recorded print invocations, newest first
func (s *LabelService) ListJobs(ctx context.Context, input *ListJobsInput) ([]entity.LabelPrintLog, *pagination.Pagination, error) {
	if input.Pagination == nil {
		input.Pagination = pagination.DefaultPagination()
	}
	input.Pagination.Validate()

	logs, total, err := s.logRepo.List(ctx, &repository.LabelPrintLogFilterParams{
		Pagination: input.Pagination,
		TerminalID: input.TerminalID,
		BillID:     input.BillID,
	})
	if err != nil {
		return nil, nil, err
	}

	return logs, pagination.NewPagination(input.Pagination.Page, input.Pagination.PerPage, total), nil
}

// GetJob returns one recorded print invocation
func (s *LabelService) GetJob(ctx context.Context, id uuid.UUID) (*entity.LabelPrintLog, error) {
	log, err := s.logRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if log == nil {
		return nil, apperror.NewNotFoundError("Print job")
	}
	return log, nil
}
