// Package billplz is a client for the Billplz v3 payment gateway: collection
// bootstrap, bill creation and lookup, and X-Signature verification of the
// callbacks and redirects the gateway sends back.
package billplz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the production API root.
	DefaultBaseURL = "https://www.billplz.com/api"

	collectionTitle       = "AECOIN Store"
	collectionDescription = "GTA Online virtual currency packages"

	maxResponseBytes = 1 << 20
)

// Config holds client settings.
type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration

	// Retry policy for transport errors, 429 and 5xx responses.
	MaxAttempts    uint
	InitialBackoff time.Duration
	MaxElapsed     time.Duration

	HTTPClient *http.Client
}

// Client talks to the Billplz REST API.
type Client struct {
	cfg         Config
	http        *http.Client
	collections *CollectionCache
	logger      *zap.Logger
}

// NewClient creates a gateway client. collections owns the memoized
// collection id and is required.
func NewClient(cfg Config, collections *CollectionCache, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if collections == nil {
		collections = NewCollectionCache(nil, "", logger)
	}

	return &Client{
		cfg:         cfg,
		http:        httpClient,
		collections: collections,
		logger:      logger.Named("billplz"),
	}
}

// CreateBill creates a bill under the store's collection, creating the
// collection first if this process has not seen one yet.
func (c *Client) CreateBill(ctx context.Context, p CreateBillParams) (*Bill, error) {
	if err := c.requireSecret(); err != nil {
		return nil, err
	}

	collectionID, err := c.collections.Get(ctx, c.createCollection)
	if err != nil {
		return nil, err
	}

	req := createBillRequest{
		CollectionID: collectionID,
		Description:  p.Description,
		Email:        p.Email,
		Name:         p.Name,
		Amount:       ToSen(p.Amount),
		CallbackURL:  p.CallbackURL,
		RedirectURL:  p.RedirectURL,
		Mobile:       p.Mobile,
	}
	if p.Reference1Label != "" && p.Reference1 != "" {
		req.Reference1Label = p.Reference1Label
		req.Reference1 = p.Reference1
	}

	var bill Bill
	if err := c.do(ctx, "create bill", http.MethodPost, "/v3/bills", req, &bill); err != nil {
		return nil, err
	}
	if bill.ID == "" || bill.URL == "" {
		return nil, &IntegrationError{Op: "create bill", StatusCode: http.StatusOK, Body: "invalid response: missing id or url"}
	}

	c.logger.Info("bill created",
		zap.String("bill_id", bill.ID),
		zap.String("collection_id", collectionID),
		zap.Int64("amount_sen", req.Amount),
	)
	return &bill, nil
}

// GetBill fetches the current state of a bill.
func (c *Client) GetBill(ctx context.Context, id string) (*Bill, error) {
	if err := c.requireSecret(); err != nil {
		return nil, err
	}

	var bill Bill
	if err := c.do(ctx, "get bill", http.MethodGet, "/v3/bills/"+url.PathEscape(id), nil, &bill); err != nil {
		return nil, err
	}
	return &bill, nil
}

// VerifyBillPayment reports whether the gateway shows the bill as paid. Any
// failure to fetch the bill counts as unpaid.
func (c *Client) VerifyBillPayment(ctx context.Context, id string) bool {
	bill, err := c.GetBill(ctx, id)
	if err != nil {
		c.logger.Error("payment verification failed", zap.String("bill_id", id), zap.Error(err))
		return false
	}
	return bill.IsSettled()
}

// CollectionID returns the memoized collection id, or "" before first use.
func (c *Client) CollectionID() string {
	return c.collections.ID()
}

func (c *Client) createCollection(ctx context.Context) (string, error) {
	var col Collection
	req := createCollectionRequest{Title: collectionTitle, Description: collectionDescription}
	if err := c.do(ctx, "create collection", http.MethodPost, "/v3/collections", req, &col); err != nil {
		return "", err
	}
	if col.ID == "" {
		return "", &IntegrationError{Op: "create collection", StatusCode: http.StatusOK, Body: "no id returned"}
	}

	c.logger.Info("collection created", zap.String("collection_id", col.ID))
	return col.ID, nil
}

func (c *Client) requireSecret() error {
	if c.cfg.SecretKey == "" {
		return &ConfigurationError{Setting: "BILLPLZ_SECRET_KEY"}
	}
	return nil
}

// do performs one logical API call with retries and decodes a JSON body into out.
func (c *Client) do(ctx context.Context, op, method, path string, in, out interface{}) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("billplz: marshal %s request: %w", op, err)
		}
	}

	endpoint := c.cfg.BaseURL + path

	attempt := func() (struct{}, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.SetBasicAuth(c.cfg.SecretKey, "")
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return struct{}{}, backoff.Permanent(ctx.Err())
			}
			return struct{}{}, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return struct{}{}, err
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			ierr := &IntegrationError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
			if ierr.Temporary() {
				return struct{}{}, ierr
			}
			return struct{}{}, backoff.Permanent(ierr)
		}

		if out != nil {
			if err := json.Unmarshal(raw, out); err != nil {
				return struct{}{}, backoff.Permanent(&IntegrationError{
					Op:         op,
					StatusCode: resp.StatusCode,
					Body:       "invalid JSON response: " + err.Error(),
				})
			}
		}
		return struct{}{}, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.InitialBackoff

	_, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.cfg.MaxAttempts),
		backoff.WithMaxElapsedTime(c.cfg.MaxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Warn("retrying gateway call",
				zap.String("op", op),
				zap.Duration("backoff", next),
				zap.Error(err),
			)
		}),
	)
	if err == nil {
		return nil
	}

	c.logger.Error("gateway call failed", zap.String("op", op), zap.Error(err))

	var ierr *IntegrationError
	if errors.As(err, &ierr) {
		return ierr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &IntegrationError{Op: op, Body: err.Error()}
}

// ToSen converts a MYR amount to integer sen, rounding half away from zero.
func ToSen(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
