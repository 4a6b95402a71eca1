package label

import (
	"context"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/sangkips/retailpos-api/pkg/barcode"
)

// Cache stores rendered barcode PNGs between print jobs
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
}

// Pipeline rasterizes label requests
type Pipeline struct {
	rasterizer barcode.Rasterizer
	cache      Cache
	geometry   barcode.Geometry
	logger     *logrus.Logger
}

// NewPipeline creates a Pipeline. cache may be nil.
func NewPipeline(rasterizer barcode.Rasterizer, cache Cache, geometry barcode.Geometry, logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Pipeline{
		rasterizer: rasterizer,
		cache:      cache,
		geometry:   geometry,
		logger:     logger,
	}
}

type rendered struct {
	label Label
	err   error
}

// Rasterize renders every request, CODE128 first and CODE39 as the single
// fallback. A failing request is reported and the rest of the batch
// continues. Repeated payloads within a batch are rendered once.
func (p *Pipeline) Rasterize(ctx context.Context, requests []Request) ([]Label, []Failure) {
	labels := make([]Label, 0, len(requests))
	var failures []Failure

	seen := make(map[string]rendered)
	for _, req := range requests {
		r, ok := seen[req.BarcodeValue]
		if !ok {
			r = p.render(ctx, req.BarcodeValue)
			seen[req.BarcodeValue] = r
		}

		if r.err != nil {
			failures = append(failures, Failure{Request: req, Err: r.err})
			continue
		}

		l := r.label
		l.Request = req
		labels = append(labels, l)
	}

	if len(failures) > 0 {
		p.logger.WithFields(logrus.Fields{
			"requested": len(requests),
			"failed":    len(failures),
		}).Warn("some labels could not be rasterized")
	}

	return labels, failures
}

// render only consults the CODE39 cache entry once CODE128 has failed for
// the payload, so an explicit CODE39 render never changes the default.
func (p *Pipeline) render(ctx context.Context, payload string) rendered {
	img, err := p.renderAs(ctx, barcode.Code128, payload)
	if err == nil {
		return rendered{label: Label{Image: img, Symbology: barcode.Code128}}
	}

	img, fallbackErr := p.renderAs(ctx, barcode.Code39, payload)
	if fallbackErr == nil {
		return rendered{label: Label{Image: img, Symbology: barcode.Code39}}
	}

	return rendered{err: fmt.Errorf("%w: code128: %v; code39: %v", barcode.ErrUnencodable, err, fallbackErr)}
}

func (p *Pipeline) renderAs(ctx context.Context, sym barcode.Symbology, payload string) (image.Image, error) {
	if img, ok := p.fromCache(ctx, sym, payload); ok {
		return img, nil
	}
	img, err := p.rasterizer.Rasterize(payload, sym, p.geometry)
	if err != nil {
		return nil, err
	}
	p.toCache(ctx, sym, payload, img)
	return img, nil
}

// Render rasterizes a single payload. An empty symbology uses the CODE128
// then CODE39 fallback; any other value is encoded in that symbology only.
func (p *Pipeline) Render(ctx context.Context, payload string, sym barcode.Symbology) (image.Image, barcode.Symbology, error) {
	if sym == "" {
		r := p.render(ctx, payload)
		return r.label.Image, r.label.Symbology, r.err
	}

	img, err := p.renderAs(ctx, sym, payload)
	if err != nil {
		return nil, "", err
	}
	return img, sym, nil
}

// CacheKey is the cache key for a rendered barcode
func CacheKey(sym barcode.Symbology, geometry barcode.Geometry, payload string) string {
	return fmt.Sprintf("barcode:%s:%s:%s", sym, geometry, payload)
}

func (p *Pipeline) fromCache(ctx context.Context, sym barcode.Symbology, payload string) (image.Image, bool) {
	if p.cache == nil || payload == "" {
		return nil, false
	}

	data, ok, err := p.cache.Get(ctx, CacheKey(sym, p.geometry, payload))
	if err != nil {
		p.logger.WithError(err).Debug("barcode cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	img, err := barcode.DecodePNG(data)
	if err != nil {
		p.logger.WithError(err).WithField("payload", payload).Warn("discarding corrupt cached barcode")
		return nil, false
	}
	return img, true
}

func (p *Pipeline) toCache(ctx context.Context, sym barcode.Symbology, payload string, img image.Image) {
	if p.cache == nil {
		return
	}

	data, err := barcode.EncodePNG(img)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, CacheKey(sym, p.geometry, payload), data); err != nil {
		p.logger.WithError(err).Debug("barcode cache write failed")
	}
}
