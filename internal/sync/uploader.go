package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"
)

// TransactionUpload is the wire shape the server accepts: one transaction
// header with its nested items, dates as ISO-8601 strings.
type TransactionUpload struct {
	TransactionID string                  `json:"transaction_id"`
	UserID        uint                    `json:"user_id"`
	TotalPrice    int64                   `json:"total_price"`
	Date          string                  `json:"date"`
	Items         []TransactionItemUpload `json:"items"`
}

type TransactionItemUpload struct {
	ProductID uint  `json:"product_id"`
	Qty       int   `json:"qty"`
	Subtotal  int64 `json:"subtotal"`
}

// UploadResponse is the server's status/message pair.
type UploadResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Uploader hands a whole batch to the remote authority in one call. The
// outcome is all-or-nothing from the engine's point of view; the server is
// expected to tolerate duplicate transaction ids on retry.
type Uploader interface {
	Upload(ctx context.Context, batch []TransactionUpload) error
}

// HTTPUploader POSTs the batch to <baseURL>/transactions.
type HTTPUploader struct {
	baseURL string
	client  *http.Client
}

func NewHTTPUploader(baseURL string) *HTTPUploader {
	return &HTTPUploader{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (u *HTTPUploader) Upload(ctx context.Context, batch []TransactionUpload) error {
	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/transactions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ur UploadResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &ur) == nil && ur.Message != "" {
			return fmt.Errorf("server rejected batch: %s (%s)", resp.Status, ur.Message)
		}
		return fmt.Errorf("server rejected batch: %s", resp.Status)
	}
	return nil
}

// MockUploader simulates the remote endpoint: fixed latency, configurable
// outcome. The device ships with this until a real server exists; tests use
// it to script success and failure.
type MockUploader struct {
	Latency time.Duration
	Err     error // returned by every Upload when set

	mu    sync.Mutex
	calls [][]TransactionUpload
}

func NewMockUploader() *MockUploader {
	return &MockUploader{Latency: 500 * time.Millisecond}
}

func (u *MockUploader) Upload(ctx context.Context, batch []TransactionUpload) error {
	select {
	case <-time.After(u.Latency):
	case <-ctx.Done():
		return ctx.Err()
	}

	u.mu.Lock()
	u.calls = append(u.calls, batch)
	u.mu.Unlock()

	if u.Err != nil {
		return u.Err
	}
	log.Printf("[sync] mock upload: %d transactions accepted", len(batch))
	return nil
}

// Calls returns every batch handed to the uploader, in order.
func (u *MockUploader) Calls() [][]TransactionUpload {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([][]TransactionUpload, len(u.calls))
	copy(out, u.calls)
	return out
}
