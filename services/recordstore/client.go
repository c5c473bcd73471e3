package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wedbook/models"

	"go.uber.org/zap"
)

const maxErrorBody = 512

// Store is the part of the backing service the booking core consumes.
type Store interface {
	VendorBookings(ctx context.Context, vendorID, monthKey string) (*models.VendorBookings, error)
	OffDays(ctx context.Context, vendorID string) ([]models.OffDay, error)
	CreateBooking(ctx context.Context, req *models.BookingRequest) (*models.CreatedBooking, error)
	Health(ctx context.Context) error
}

// Client talks to the backing store over its REST contract.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	logger  *zap.Logger
}

// NewClient builds a client with a tuned transport. timeout bounds every call
// that does not carry its own deadline.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		HTTP: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
	}
}

// VendorBookings fetches a vendor's bookings and keeps the rows of monthKey.
// The month is sent as a hint; stores that ignore it are filtered here.
func (c *Client) VendorBookings(ctx context.Context, vendorID, monthKey string) (*models.VendorBookings, error) {
	const op = "vendor bookings"
	path := fmt.Sprintf("/vendors/%s/bookings", url.PathEscape(vendorID))
	q := url.Values{}
	if monthKey != "" {
		q.Set("month", monthKey)
	}

	body, err := c.do(ctx, op, http.MethodGet, path, q, nil, nil)
	if err != nil {
		return nil, err
	}
	vb, err := decodeVendorBookings(body)
	if err != nil {
		return nil, &MalformedResponseError{Op: op, Reason: "undecodable booking list", Err: err}
	}

	if monthKey != "" {
		kept := vb.Bookings[:0]
		for _, b := range vb.Bookings {
			if strings.HasPrefix(b.EventDate, monthKey+"-") {
				kept = append(kept, b)
			}
		}
		vb.Bookings = kept
	}
	return vb, nil
}

// OffDays fetches every off-day record for a vendor, active or not.
func (c *Client) OffDays(ctx context.Context, vendorID string) ([]models.OffDay, error) {
	const op = "off-days"
	path := fmt.Sprintf("/vendors/%s/off-days", url.PathEscape(vendorID))

	body, err := c.do(ctx, op, http.MethodGet, path, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	offDays, err := decodeOffDays(body)
	if err != nil {
		return nil, &MalformedResponseError{Op: op, Reason: "undecodable off-day list", Err: err}
	}
	return offDays, nil
}

// CreateBooking posts a booking. The client request ID goes out as the idempotency key.
func (c *Client) CreateBooking(ctx context.Context, req *models.BookingRequest) (*models.CreatedBooking, error) {
	const op = "create booking"
	payload, err := json.Marshal(req.Payload())
	if err != nil {
		return nil, fmt.Errorf("recordstore %s: marshal payload: %w", op, err)
	}
	headers := map[string]string{
		"Content-Type":    "application/json",
		"Idempotency-Key": req.ClientRequestID,
	}

	body, err := c.do(ctx, op, http.MethodPost, "/bookings", nil, payload, headers)
	if err != nil {
		return nil, err
	}
	created, ok := decodeCreated(body)
	if !ok {
		return nil, &MalformedResponseError{Op: op, Reason: "no booking identifier in response"}
	}
	return created, nil
}

// Health calls the store's liveness probe.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, "health", http.MethodGet, "/health", nil, nil, nil)
	return err
}

func (c *Client) do(
	ctx context.Context,
	op, method, path string,
	query url.Values,
	payload []byte,
	headers map[string]string,
) ([]byte, error) {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("recordstore %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.logger.Warn("recordstore call failed",
			zap.String("op", op), zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	c.logger.Debug("recordstore call",
		zap.String("op", op), zap.String("path", path),
		zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusMethodNotAllowed:
		return nil, &NotFoundError{Op: op, Path: path, Status: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &StatusError{Op: op, Status: resp.StatusCode, Body: snippet}
	}
	return body, nil
}
