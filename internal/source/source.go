// Package source fetches raw listing records from configured providers.
//
// Adapters emit RawRecord batches; parsing site values into canonical form
// is the normalizer's job. Both shipped adapters consume the same wire
// shape: a JSON array of raw record documents.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/fwagner/gtswatch/internal/listing"
	"github.com/fwagner/gtswatch/internal/logging"
)

// Source produces one batch of raw records per fetch.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]listing.RawRecord, error)
}

// FileSource reads records from a local JSON file. Used for exported feeds
// and in tests.
type FileSource struct {
	name string
	path string
}

func NewFileSource(name, path string) *FileSource {
	return &FileSource{name: name, path: path}
}

func (f *FileSource) Name() string { return f.name }

func (f *FileSource) Fetch(ctx context.Context) ([]listing.RawRecord, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	records, err := decodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return stamp(records, f.name), nil
}

// HTTPSource polls one or more feed URLs. Requests are rate limited so a
// run never hammers a provider, and carry a stable User-Agent.
type HTTPSource struct {
	name      string
	urls      []string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

func NewHTTPSource(name string, urls []string, userAgent string, delay time.Duration) *HTTPSource {
	if delay <= 0 {
		delay = time.Second
	}
	return &HTTPSource{
		name:      name,
		urls:      urls,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(rate.Every(delay), 1),
	}
}

func (h *HTTPSource) Name() string { return h.name }

// Fetch polls every configured URL. A failing URL is logged and skipped;
// partial results are better than none. The error is non-nil only when no
// URL produced records.
func (h *HTTPSource) Fetch(ctx context.Context) ([]listing.RawRecord, error) {
	log := logging.WithPrefix("source." + h.name)

	var all []listing.RawRecord
	var lastErr error
	for _, url := range h.urls {
		if err := h.limiter.Wait(ctx); err != nil {
			return all, err
		}
		records, err := h.fetchURL(ctx, url)
		if err != nil {
			log.Warn("fetch failed", "url", url, "error", err)
			lastErr = err
			continue
		}
		log.Debug("fetched", "url", url, "records", len(records))
		all = append(all, records...)
	}
	if len(all) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return stamp(all, h.name), nil
}

func (h *HTTPSource) fetchURL(ctx context.Context, url string) ([]listing.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, err
	}
	return decodeRecords(body)
}

func decodeRecords(data []byte) ([]listing.RawRecord, error) {
	var records []listing.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// stamp fills in the source name on records that omit it. Feeds exported by
// other tools usually carry identity only in the filename or URL.
func stamp(records []listing.RawRecord, name string) []listing.RawRecord {
	for i := range records {
		if records[i].Source == "" {
			records[i].Source = name
		}
	}
	return records
}
