// Package beacon delivers page-hide snapshots to a collector over HTTP.
package beacon

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const contentType = "text/plain;charset=UTF-8"

// HTTPBeacon posts each body from its own goroutine. Delivery is best
// effort: failures are logged at debug level and never returned.
type HTTPBeacon struct {
	baseURL string
	referer string
	client  *http.Client
	logger  *zap.Logger
	wg      *sync.WaitGroup
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPBeacon {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPBeacon{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
		wg:      new(sync.WaitGroup),
	}
}

// WithReferer returns a beacon that reports pageURL as the sending page.
// It shares the client and pending sends with b.
func (b *HTTPBeacon) WithReferer(pageURL string) *HTTPBeacon {
	c := *b
	c.referer = pageURL
	return &c
}

func (b *HTTPBeacon) Send(path string, body []byte) {
	payload := append([]byte(nil), body...)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.post(path, payload)
	}()
}

func (b *HTTPBeacon) post(path string, body []byte) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		b.logger.Debug("beacon request not built", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", contentType)
	if b.referer != "" {
		req.Header.Set("Referer", b.referer)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		b.logger.Debug("beacon not delivered", zap.String("path", path), zap.Error(err))
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		b.logger.Debug("beacon rejected", zap.String("path", path), zap.Int("status", resp.StatusCode))
	}
}

// Wait blocks until every pending send, including those of derived
// beacons, has finished.
func (b *HTTPBeacon) Wait() {
	b.wg.Wait()
}
