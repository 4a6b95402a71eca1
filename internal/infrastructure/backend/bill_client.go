package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sangkips/retailpos-api/internal/config"
	"github.com/sangkips/retailpos-api/internal/domain/entity"
	domainRepo "github.com/sangkips/retailpos-api/internal/domain/repository"
	"github.com/sangkips/retailpos-api/pkg/apperror"
)

// maxBodySize bounds how much of a backend response is read
const maxBodySize = 4 << 20

// BillClient talks to the billing backend over REST
type BillClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewBillClient creates a BillRepository backed by the REST backend
func NewBillClient(cfg config.BackendConfig, client *http.Client) domainRepo.BillRepository {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &BillClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.APIToken,
		client:  client,
	}
}

// envelope accepts both bare payloads and {"data": ...} wrapped ones
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (c *BillClient) GetBill(ctx context.Context, id string) (*entity.Bill, error) {
	endpoint := c.baseURL + "/bills/" + url.PathEscape(id)

	var bill entity.Bill
	status, err := c.do(ctx, http.MethodGet, endpoint, nil, &bill)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if be, ok := err.(*backendError); ok {
		return nil, apperror.ErrBackendUnavailable.Wrap(be)
	}
	if err != nil {
		return nil, err
	}
	if bill.ID == "" {
		bill.ID = id
	}
	return &bill, nil
}

func (c *BillClient) CreateReturn(ctx context.Context, req *entity.ReturnRequest) (*entity.ReturnReceipt, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode return request: %w", err)
	}

	var receipt entity.ReturnReceipt
	status, err := c.do(ctx, http.MethodPost, c.baseURL+"/bills/returns", body, &receipt)
	if err != nil {
		if status >= 400 && status < 500 {
			return nil, apperror.NewAppError(http.StatusUnprocessableEntity, backendMessage(err))
		}
		return nil, err
	}
	return &receipt, nil
}

// backendError carries the status and message of a non-2xx response
type backendError struct {
	status  int
	message string
}

func (e *backendError) Error() string {
	if e.message == "" {
		return fmt.Sprintf("backend responded %d", e.status)
	}
	return fmt.Sprintf("backend responded %d: %s", e.status, e.message)
}

func backendMessage(err error) string {
	if be, ok := err.(*backendError); ok && be.message != "" {
		return be.message
	}
	return "Return rejected by billing backend"
}

func (c *BillClient) do(ctx context.Context, method, endpoint string, body []byte, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to build backend request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, apperror.ErrBackendUnavailable.Wrap(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, apperror.ErrBackendUnavailable.Wrap(err)
	}

	if resp.StatusCode >= 500 {
		return resp.StatusCode, apperror.ErrBackendUnavailable.Wrap(&backendError{status: resp.StatusCode})
	}
	if resp.StatusCode >= 400 {
		var env envelope
		_ = json.Unmarshal(raw, &env)
		return resp.StatusCode, &backendError{status: resp.StatusCode, message: env.Message}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return resp.StatusCode, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		raw = env.Data
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, apperror.ErrBackendUnavailable.Wrap(fmt.Errorf("decode response: %w", err))
	}
	return resp.StatusCode, nil
}
