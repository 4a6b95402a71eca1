package label

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

// maxLogoBytes bounds a single logo download
const maxLogoBytes = 2 << 20

// FetchFunc returns the raw bytes of the asset at location
type FetchFunc func(ctx context.Context, location string) ([]byte, error)

// ErrAssetNotAllowed is returned for a location outside the FetchPolicy
var ErrAssetNotAllowed = errors.New("asset location is not allowed")

// FetchPolicy lists where label assets may be loaded from. Local files
// must match one of LocalPaths exactly; remote assets must be http(s)
// URLs whose host is in Hosts. Everything else is rejected.
type FetchPolicy struct {
	LocalPaths []string
	Hosts      []string
}

func (p FetchPolicy) allowsPath(location string) bool {
	cleaned := filepath.Clean(location)
	for _, path := range p.LocalPaths {
		if path != "" && filepath.Clean(path) == cleaned {
			return true
		}
	}
	return false
}

func (p FetchPolicy) allowsURL(u *url.URL) bool {
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range p.Hosts {
		if host != "" && strings.ToLower(strings.TrimSpace(h)) == host {
			return true
		}
	}
	return false
}

// NewFetcher returns a FetchFunc that reads the local files and downloads
// the http(s) hosts allowed by policy. Redirects are followed only to
// allowed hosts.
func NewFetcher(client *http.Client, policy FetchPolicy) FetchFunc {
	if client == nil {
		client = http.DefaultClient
	}
	restricted := *client
	restricted.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if !policy.allowsURL(req.URL) {
			return fmt.Errorf("redirect to %s: %w", req.URL.Host, ErrAssetNotAllowed)
		}
		if len(via) >= 5 {
			return errors.New("too many redirects")
		}
		return nil
	}

	return func(ctx context.Context, location string) ([]byte, error) {
		if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
			if !policy.allowsPath(location) {
				return nil, fmt.Errorf("read %s: %w", location, ErrAssetNotAllowed)
			}
			return os.ReadFile(location)
		}

		u, err := url.Parse(location)
		if err != nil {
			return nil, err
		}
		if !policy.allowsURL(u) {
			return nil, fmt.Errorf("fetch %s: %w", u.Host, ErrAssetNotAllowed)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		resp, err := restricted.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch %s: status %d", location, resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes))
	}
}

// LoadAssets fetches and decodes every location concurrently and waits
// until all of them have loaded or failed, or until timeout elapses.
// Locations that fail or are still pending at the deadline are left out
// of the result; labels without a logo are rendered without one.
func LoadAssets(ctx context.Context, fetch FetchFunc, locations []string, timeout time.Duration) map[string]image.Image {
	assets := make(map[string]image.Image, len(locations))
	if len(locations) == 0 {
		return assets
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, location := range locations {
		location := location
		g.Go(func() error {
			data, err := fetch(gctx, location)
			if err != nil {
				return nil
			}
			img, err := imaging.Decode(bytes.NewReader(data))
			if err != nil {
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			if ctx.Err() == nil {
				assets[location] = img
			}
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}

	mu.Lock()
	defer mu.Unlock()
	loaded := make(map[string]image.Image, len(assets))
	for k, v := range assets {
		loaded[k] = v
	}
	return loaded
}
