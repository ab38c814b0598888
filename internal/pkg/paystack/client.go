package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vivahealthmed/foundation-site/internal/pkg/env"
)

const defaultAPIBaseURL = "https://api.paystack.co"

// Client talks to the Paystack REST API with a secret-key bearer token.
type Client struct {
	SecretKey  string
	APIBaseURL string

	HTTPClient *http.Client
}

// Plan is a recurring-billing template on the Paystack side.
type Plan struct {
	Name     string `json:"name"`
	PlanCode string `json:"plan_code"`
	Amount   int64  `json:"amount"`
	Interval string `json:"interval"`
	Currency string `json:"currency"`
}

// TransactionRequest initializes a hosted checkout, optionally bound to a
// plan for recurring billing.
type TransactionRequest struct {
	Email     string    `json:"email"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Reference string    `json:"reference"`
	Plan      string    `json:"plan,omitempty"`
	Metadata  *Metadata `json:"metadata,omitempty"`
	Channels  []string  `json:"channels,omitempty"`
}

// Transaction is the authorization handle returned by transaction/initialize.
type Transaction struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// APIError carries the upstream diagnostic payload so handlers can pass it
// through on failure responses.
type APIError struct {
	StatusCode int
	Message    string
	RawBody    []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack api error: status=%d message=%s", e.StatusCode, e.Message)
}

// IsConflict reports whether the error is a "resource already exists"
// rejection, which the plan get-or-create path retries via listing.
func (e *APIError) IsConflict() bool {
	return strings.Contains(strings.ToLower(e.Message), "already exist")
}

func NewClientFromEnv() *Client {
	return &Client{
		SecretKey:  strings.TrimSpace(env.GetEnv("PAYSTACK_SECRET_KEY", "")),
		APIBaseURL: strings.TrimRight(strings.TrimSpace(env.GetEnv("PAYSTACK_API_BASE_URL", defaultAPIBaseURL)), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Configured reports whether the secret key is present.
func (c *Client) Configured() bool {
	return c.SecretKey != ""
}

// PlanCode derives the deterministic plan identifier for an amount+interval
// pair. Two concurrent subscription requests for the same pair resolve to
// the same gateway plan.
func PlanCode(amount float64, interval string) string {
	return fmt.Sprintf("viva_%s_%s", strings.ToLower(strings.TrimSpace(interval)), formatAmount(amount))
}

// PlanName builds the human-readable plan label shown in the Paystack
// dashboard and on donor statements.
func PlanName(amount float64, interval, currency string) string {
	i := strings.ToLower(strings.TrimSpace(interval))
	if i == "" {
		i = "monthly"
	}
	label := strings.ToUpper(i[:1]) + i[1:]
	return fmt.Sprintf("%s Donation - %s %s", label, currency, formatAmount(amount))
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// MinorUnits converts a main-unit amount to kobo/pesewas. Rounded, not
// truncated: 10.01 is not exactly representable and truncation would drop
// a pesewa.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (c *Client) do(ctx context.Context, method, path string, in interface{}, out interface{}) (int, []byte, error) {
	var reqBody io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, nil, err
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIBaseURL+path, reqBody)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, body, fmt.Errorf("paystack returned unparseable body: status=%d body=%s", resp.StatusCode, string(body))
		}
	}
	return resp.StatusCode, body, nil
}

// GetPlan fetches a plan by code. The second return value reports whether
// the plan exists; a missing plan is not an error.
func (c *Client) GetPlan(ctx context.Context, planCode string) (*Plan, bool, error) {
	if !c.Configured() {
		return nil, false, errors.New("paystack secret key is not configured")
	}

	var raw struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    Plan   `json:"data"`
	}
	statusCode, body, err := c.do(ctx, http.MethodGet, "/plan/"+planCode, nil, &raw)
	if err != nil {
		return nil, false, err
	}
	if statusCode == http.StatusNotFound || !raw.Status {
		return nil, false, nil
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, false, &APIError{StatusCode: statusCode, Message: raw.Message, RawBody: body}
	}
	return &raw.Data, true, nil
}

// CreatePlan creates a plan. A provider-side duplicate is surfaced as an
// *APIError with IsConflict() true.
func (c *Client) CreatePlan(ctx context.Context, name string, amountMinor int64, interval, currency string) (*Plan, error) {
	if !c.Configured() {
		return nil, errors.New("paystack secret key is not configured")
	}

	in := map[string]interface{}{
		"name":     name,
		"interval": interval,
		"amount":   amountMinor,
		"currency": currency,
	}
	var raw struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    Plan   `json:"data"`
	}
	statusCode, body, err := c.do(ctx, http.MethodPost, "/plan", in, &raw)
	if err != nil {
		return nil, err
	}
	if !raw.Status {
		return nil, &APIError{StatusCode: statusCode, Message: raw.Message, RawBody: body}
	}
	return &raw.Data, nil
}

// ListPlans returns all plans on the account.
func (c *Client) ListPlans(ctx context.Context) ([]Plan, error) {
	if !c.Configured() {
		return nil, errors.New("paystack secret key is not configured")
	}

	var raw struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    []Plan `json:"data"`
	}
	statusCode, body, err := c.do(ctx, http.MethodGet, "/plan", nil, &raw)
	if err != nil {
		return nil, err
	}
	if !raw.Status {
		return nil, &APIError{StatusCode: statusCode, Message: raw.Message, RawBody: body}
	}
	return raw.Data, nil
}

// ResolvePlan is an idempotent get-or-create: fetch the deterministic plan
// for amount+interval, create it when absent, and on a create conflict
// (raced by another request) retry once by listing and matching.
func (c *Client) ResolvePlan(ctx context.Context, amount float64, interval, currency string) (*Plan, error) {
	code := PlanCode(amount, interval)

	plan, found, err := c.GetPlan(ctx, code)
	if err != nil {
		return nil, err
	}
	if found {
		return plan, nil
	}

	amountMinor := MinorUnits(amount)
	plan, err = c.CreatePlan(ctx, PlanName(amount, interval, currency), amountMinor, interval, currency)
	if err == nil {
		return plan, nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.IsConflict() {
		return nil, err
	}

	// Lost the create race; the plan exists now. Match it by amount+interval.
	plans, listErr := c.ListPlans(ctx)
	if listErr != nil {
		return nil, listErr
	}
	for i := range plans {
		if plans[i].Amount == amountMinor && plans[i].Interval == interval {
			return &plans[i], nil
		}
	}
	return nil, err
}

// InitializeTransaction starts a hosted checkout and returns the
// authorization handle.
func (c *Client) InitializeTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error) {
	if !c.Configured() {
		return nil, errors.New("paystack secret key is not configured")
	}

	var raw struct {
		Status  bool        `json:"status"`
		Message string      `json:"message"`
		Data    Transaction `json:"data"`
	}
	statusCode, body, err := c.do(ctx, http.MethodPost, "/transaction/initialize", req, &raw)
	if err != nil {
		return nil, err
	}
	if !raw.Status {
		return nil, &APIError{StatusCode: statusCode, Message: raw.Message, RawBody: body}
	}
	return &raw.Data, nil
}
