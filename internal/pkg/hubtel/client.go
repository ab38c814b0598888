package hubtel

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vivahealthmed/foundation-site/internal/pkg/env"
)

const (
	defaultCheckoutURL  = "https://payproxyapi.hubtel.com/items/initiate"
	defaultStatusAPIURL = "https://rmsc.hubtel.com/v1/merchantaccount"
)

// Client talks to the Hubtel checkout and merchant-account APIs using Basic
// auth credentials (API id + key).
type Client struct {
	APIID                 string
	APIKey                string
	MerchantAccountNumber string

	CheckoutURL  string
	StatusAPIURL string

	HTTPClient *http.Client
}

// InitiateRequest is the payload for the checkout initiate endpoint.
type InitiateRequest struct {
	TotalAmount           float64 `json:"totalAmount"`
	Description           string  `json:"description"`
	CallbackURL           string  `json:"callbackUrl"`
	ReturnURL             string  `json:"returnUrl"`
	CancellationURL       string  `json:"cancellationUrl"`
	MerchantAccountNumber string  `json:"merchantAccountNumber"`
	ClientReference       string  `json:"clientReference"`
}

// InitiateResult carries the parsed initiate response plus the raw body and
// HTTP status for audit logging.
type InitiateResult struct {
	StatusCode   int
	RawBody      []byte
	ResponseCode string
	Status       string
	Message      string
	Description  string
	CheckoutURL  string
	CheckoutID   string
}

// OK reports whether Hubtel accepted the initiate request.
func (r *InitiateResult) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300 && r.ResponseCode == ResponseCodeSuccess
}

// Diagnostic returns the upstream error description, preferring message.
func (r *InitiateResult) Diagnostic() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Description
}

// Transaction is one row from the transaction status endpoint.
type Transaction struct {
	TransactionStatus string  `json:"TransactionStatus"`
	TransactionID     string  `json:"TransactionId"`
	ClientReference   string  `json:"ClientReference"`
	Amount            float64 `json:"Amount"`
}

// StatusResult carries the parsed status-check response plus raw body and
// HTTP status for audit logging.
type StatusResult struct {
	StatusCode   int
	RawBody      []byte
	ResponseCode string
	Message      string
	Transactions []Transaction
}

// Found reports whether Hubtel knows the transaction at all.
func (r *StatusResult) Found() bool {
	return r.ResponseCode == ResponseCodeSuccess && len(r.Transactions) > 0
}

func NewClientFromEnv() *Client {
	return &Client{
		APIID:                 strings.TrimSpace(env.GetEnv("HUBTEL_API_ID", "")),
		APIKey:                strings.TrimSpace(env.GetEnv("HUBTEL_API_KEY", "")),
		MerchantAccountNumber: strings.TrimSpace(env.GetEnv("HUBTEL_MERCHANT_ACCOUNT_NUMBER", "")),
		CheckoutURL:           strings.TrimSpace(env.GetEnv("HUBTEL_CHECKOUT_URL", defaultCheckoutURL)),
		StatusAPIURL:          strings.TrimRight(strings.TrimSpace(env.GetEnv("HUBTEL_STATUS_API_URL", defaultStatusAPIURL)), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Configured reports whether all required credentials are present.
func (c *Client) Configured() bool {
	return c.APIID != "" && c.APIKey != "" && c.MerchantAccountNumber != ""
}

func (c *Client) basicAuth() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.APIID+":"+c.APIKey))
}

// Initiate creates a hosted checkout for the given request and returns the
// checkout URL on success. Transport and decode failures return an error;
// gateway-level rejections are reported through the result.
func (c *Client) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	if !c.Configured() {
		return nil, errors.New("hubtel credentials are not configured")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.CheckoutURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", c.basicAuth())
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var raw struct {
		ResponseCode string `json:"responseCode"`
		Status       string `json:"status"`
		Message      string `json:"message"`
		Description  string `json:"description"`
		Data         struct {
			CheckoutURL string `json:"checkoutUrl"`
			CheckoutID  string `json:"checkoutId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("hubtel initiate returned unparseable body: status=%d body=%s", resp.StatusCode, string(body))
	}

	return &InitiateResult{
		StatusCode:   resp.StatusCode,
		RawBody:      body,
		ResponseCode: raw.ResponseCode,
		Status:       raw.Status,
		Message:      raw.Message,
		Description:  raw.Description,
		CheckoutURL:  raw.Data.CheckoutURL,
		CheckoutID:   raw.Data.CheckoutID,
	}, nil
}

// TransactionStatus queries the merchant-account status endpoint for the
// given client reference.
func (c *Client) TransactionStatus(ctx context.Context, clientReference string) (*StatusResult, error) {
	if !c.Configured() {
		return nil, errors.New("hubtel credentials are not configured")
	}
	ref := strings.TrimSpace(clientReference)
	if ref == "" {
		return nil, errors.New("client reference is required")
	}

	u, err := url.Parse(fmt.Sprintf("%s/merchants/%s/transactions/status", c.StatusAPIURL, c.MerchantAccountNumber))
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("clientReference", ref)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", c.basicAuth())
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var raw struct {
		ResponseCode string        `json:"ResponseCode"`
		Message      string        `json:"Message"`
		Data         []Transaction `json:"Data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("hubtel status returned unparseable body: status=%d body=%s", resp.StatusCode, string(body))
	}

	return &StatusResult{
		StatusCode:   resp.StatusCode,
		RawBody:      body,
		ResponseCode: raw.ResponseCode,
		Message:      raw.Message,
		Transactions: raw.Data,
	}, nil
}
