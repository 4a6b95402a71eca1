package service

import (
	"context"
	"errors"
	"image"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sangkips/retailpos-api/internal/domain/entity"
	"github.com/sangkips/retailpos-api/internal/domain/enum"
	"github.com/sangkips/retailpos-api/internal/domain/repository"
	"github.com/sangkips/retailpos-api/internal/infrastructure/cache"
	"github.com/sangkips/retailpos-api/pkg/barcode"
	"github.com/sangkips/retailpos-api/pkg/label"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fakeRasterizer encodes everything except payloads listed in fail
type fakeRasterizer struct {
	fail map[string]bool
}

func (f *fakeRasterizer) Rasterize(payload string, symbology barcode.Symbology, geometry barcode.Geometry) (image.Image, error) {
	if payload == "" || f.fail[payload] {
		return nil, errors.New("unsupported characters")
	}
	return image.NewGray(image.Rect(0, 0, 60, 20)), nil
}

type fakePrinter struct {
	mu        sync.Mutex
	connected bool
	err       error
	printed   [][]byte
}

func (p *fakePrinter) Print(ctx context.Context, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.printed = append(p.printed, data)
	return nil
}

func (p *fakePrinter) Close() error      { return nil }
func (p *fakePrinter) IsConnected() bool { return p.connected }
func (p *fakePrinter) Kind() string      { return "fake" }

type fakePresenter struct {
	channel   enum.PrintChannel
	available bool
	err       error
	calls     int
}

func (p *fakePresenter) Channel() enum.PrintChannel { return p.channel }
func (p *fakePresenter) Available() bool            { return p.available }

func (p *fakePresenter) Present(ctx context.Context, sheet *LabelSheet) (*Delivery, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &Delivery{Channel: p.channel}, nil
}

type fakeLogRepo struct {
	mu   sync.Mutex
	logs []entity.LabelPrintLog
}

func (r *fakeLogRepo) Create(ctx context.Context, log *entity.LabelPrintLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	r.logs = append(r.logs, *log)
	return nil
}

func (r *fakeLogRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.LabelPrintLog, error) {
	for i := range r.logs {
		if r.logs[i].ID == id {
			return &r.logs[i], nil
		}
	}
	return nil, nil
}

func (r *fakeLogRepo) List(ctx context.Context, params *repository.LabelPrintLogFilterParams) ([]entity.LabelPrintLog, int64, error) {
	var out []entity.LabelPrintLog
	for _, l := range r.logs {
		if params.TerminalID != "" && l.TerminalID != params.TerminalID {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

type fakeBillRepo struct {
	bills   map[string]*entity.Bill
	getErr  error
	returns []*entity.ReturnRequest
	receipt *entity.ReturnReceipt
	retErr  error
}

func (r *fakeBillRepo) GetBill(ctx context.Context, id string) (*entity.Bill, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.bills[id], nil
}

func (r *fakeBillRepo) CreateReturn(ctx context.Context, req *entity.ReturnRequest) (*entity.ReturnReceipt, error) {
	if r.retErr != nil {
		return nil, r.retErr
	}
	r.returns = append(r.returns, req)
	if r.receipt != nil {
		return r.receipt, nil
	}
	return &entity.ReturnReceipt{ID: "R-1"}, nil
}

// busyLocker never grants the lock
type busyLocker struct{}

func (busyLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	return nil, cache.ErrLockNotObtained
}

func newTestLabelService(presenters []Presenter, logRepo *fakeLogRepo, fail ...string) *LabelService {
	failing := make(map[string]bool)
	for _, f := range fail {
		failing[f] = true
	}
	logger := newTestLogger()
	pipeline := label.NewPipeline(&fakeRasterizer{fail: failing}, nil, barcode.DefaultGeometry, logger)
	return NewLabelService(pipeline, presenters, nil, logRepo, LabelServiceOptions{Layout: label.DefaultLayout}, logger)
}
