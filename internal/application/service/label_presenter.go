package service

import (
	"context"
	"fmt"
	"image"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sangkips/retailpos-api/internal/domain/enum"
	"github.com/sangkips/retailpos-api/internal/infrastructure/storage"
	"github.com/sangkips/retailpos-api/pkg/label"
	"github.com/sangkips/retailpos-api/pkg/printer"
)

// DocumentRoute is where stored label documents are served from
const DocumentRoute = "/api/v1/labels/documents/"

// LabelSheet is a paginated batch ready for delivery
type LabelSheet struct {
	TerminalID string
	Rows       []label.Row
	Logos      map[string]image.Image
}

// Delivery describes where a sheet ended up
type Delivery struct {
	Channel      enum.PrintChannel
	DocumentName string
	DocumentURL  string
}

// Presenter delivers a sheet to one print surface
type Presenter interface {
	Channel() enum.PrintChannel
	// Available reports whether the surface can be tried right now
	Available() bool
	Present(ctx context.Context, sheet *LabelSheet) (*Delivery, error)
}

// ThermalPresenter sends ESC/POS raster rows to the configured printer
type ThermalPresenter struct {
	printer printer.Printer
	layout  label.Layout
}

func NewThermalPresenter(p printer.Printer, layout label.Layout) *ThermalPresenter {
	return &ThermalPresenter{printer: p, layout: layout}
}

func (p *ThermalPresenter) Channel() enum.PrintChannel { return enum.PrintChannelThermal }

func (p *ThermalPresenter) Available() bool {
	return p.printer != nil && p.printer.IsConnected()
}

func (p *ThermalPresenter) Present(ctx context.Context, sheet *LabelSheet) (*Delivery, error) {
	images := label.RenderRaster(sheet.Rows, sheet.Logos, p.layout)
	if err := p.printer.Print(ctx, label.EncodeESCPOS(images)); err != nil {
		return nil, fmt.Errorf("%s printer: %w", p.printer.Kind(), err)
	}
	return &Delivery{Channel: enum.PrintChannelThermal}, nil
}

// DocumentPresenter renders a PDF into the document store for the client
// to open in a new window
type DocumentPresenter struct {
	store  storage.DocumentStore
	layout label.Layout
	logger *logrus.Logger
}

func NewDocumentPresenter(store storage.DocumentStore, layout label.Layout, logger *logrus.Logger) *DocumentPresenter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DocumentPresenter{store: store, layout: layout, logger: logger}
}

func (p *DocumentPresenter) Channel() enum.PrintChannel { return enum.PrintChannelPDF }

func (p *DocumentPresenter) Available() bool { return p.store != nil }

func (p *DocumentPresenter) Present(ctx context.Context, sheet *LabelSheet) (*Delivery, error) {
	pdf, err := label.RenderPDF(sheet.Rows, sheet.Logos, p.layout)
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	name := uuid.New().String() + ".pdf"
	if err := p.store.Save(ctx, name, pdf); err != nil {
		return nil, fmt.Errorf("store pdf: %w", err)
	}

	// last writer replaces the per-terminal alias
	if alias := latestDocumentName(sheet.TerminalID); alias != "" {
		if err := p.store.Save(ctx, alias, pdf); err != nil {
			p.logger.WithError(err).WithFields(logrus.Fields{
				"terminal_id": sheet.TerminalID,
				"document":    name,
				"alias":       alias,
			}).Warn("Failed to update latest label document")
		}
	}

	return &Delivery{
		Channel:      enum.PrintChannelPDF,
		DocumentName: name,
		DocumentURL:  DocumentRoute + name,
	}, nil
}

// latestDocumentName is the per-terminal alias of the most recent document
func latestDocumentName(terminalID string) string {
	name := "latest-" + terminalID + ".pdf"
	if terminalID == "" || !storage.ValidName(name) {
		return ""
	}
	return name
}
