package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/dopeevents/dopeevents-backend/pkg/config"
	pkgerrors "github.com/dopeevents/dopeevents-backend/pkg/errors"
	"github.com/dopeevents/dopeevents-backend/pkg/logger"
)

const (
	oauthPath   = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath = "/mpesa/stkpush/v1/processrequest"

	timestampLayout = "20060102150405"

	// tokens are valid for an hour; refresh a little early
	tokenSafetyMargin = 60 * time.Second

	initialBackoff = 500 * time.Millisecond
	maximumBackoff = 30 * time.Second
)

var (
	errBaseURLRequired     = errors.New("mpesa base URL is required")
	errConsumerKeyRequired = errors.New("mpesa consumer key and secret are required")
	errShortcodeRequired   = errors.New("mpesa shortcode and passkey are required")
	errCallbackURLRequired = errors.New("mpesa callback URL is required")
	errLoggerRequired      = errors.New("mpesa logger is required")
)

// Client wraps the Daraja HTTP API with centralized auth, retries, logging,
// and error mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	key        string
	secret     string
	shortcode  string
	passkey    string
	callback   string
	maxRetries uint64
	logger     *logger.Logger

	now func() time.Time

	mu          sync.Mutex
	cachedToken string
	tokenExpiry time.Time
}

// NewClient initializes the Daraja wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.MpesaConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	if strings.TrimSpace(cfg.ConsumerKey) == "" || strings.TrimSpace(cfg.ConsumerSecret) == "" {
		return nil, errConsumerKeyRequired
	}
	if strings.TrimSpace(cfg.Shortcode) == "" || strings.TrimSpace(cfg.Passkey) == "" {
		return nil, errShortcodeRequired
	}
	if strings.TrimSpace(cfg.CallbackURL) == "" {
		return nil, errCallbackURLRequired
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		key:        strings.TrimSpace(cfg.ConsumerKey),
		secret:     strings.TrimSpace(cfg.ConsumerSecret),
		shortcode:  strings.TrimSpace(cfg.Shortcode),
		passkey:    strings.TrimSpace(cfg.Passkey),
		callback:   strings.TrimSpace(cfg.CallbackURL),
		maxRetries: uint64(maxRetries),
		now:        time.Now,
	}
	c.logger = logg

	logg.Info(ctx, "mpesa client initialized")
	return c, nil
}

// CallbackURL reports the configured callback endpoint.
func (c *Client) CallbackURL() string {
	if c == nil {
		return ""
	}
	return c.callback
}

// StkPushParams carry one checkout prompt to the customer's phone.
type StkPushParams struct {
	PhoneNumber      string
	Amount           decimal.Decimal
	AccountReference string
	Description      string
}

// StkPushResponse is the synchronous ack from the STK push endpoint. The
// settlement itself arrives later on the callback URL.
type StkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// Accepted reports whether the provider accepted the push request.
func (r *StkPushResponse) Accepted() bool {
	return r != nil && r.ResponseCode == "0"
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPush sends a CustomerPayBillOnline prompt for the full computed amount.
// Transport failures and 5xx responses are retried with exponential backoff;
// a 4xx or explicit provider rejection is returned as-is.
func (c *Client) STKPush(ctx context.Context, params StkPushParams) (*StkPushResponse, error) {
	phone, err := NormalizePhone(params.PhoneNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid phone number")
	}
	if !params.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	password, timestamp := c.password(c.now())
	payload := stkPushRequest{
		BusinessShortCode: c.shortcode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            params.Amount.Round(0).String(),
		PartyA:            phone,
		PartyB:            c.shortcode,
		PhoneNumber:       phone,
		CallBackURL:       c.callback,
		AccountReference:  params.AccountReference,
		TransactionDesc:   params.Description,
	}

	c.log(ctx, "request", "stk_push", map[string]any{
		"account_reference": params.AccountReference,
		"amount":            payload.Amount,
	})

	var out StkPushResponse
	backoff := retry.WithMaxRetries(c.maxRetries, retry.WithCappedDuration(maximumBackoff, retry.NewExponential(initialBackoff)))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		token, err := c.accessToken(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		return c.postPush(ctx, token, payload, &out)
	})
	if err != nil {
		c.log(ctx, "error", "stk_push", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "stk_push", map[string]any{
		"checkout_request_id": out.CheckoutRequestID,
		"response_code":       out.ResponseCode,
	})
	return &out, nil
}

func (c *Client) postPush(ctx context.Context, token string, payload stkPushRequest, out *StkPushResponse) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal stk push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+stkPushPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build stk push request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mpesa stk push failed"))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read stk push response"))
	}

	if resp.StatusCode >= 500 {
		return retry.RetryableError(pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("mpesa stk push returned %d", resp.StatusCode)))
	}
	if resp.StatusCode == http.StatusUnauthorized {
		// stale cached token; force a refresh on the next attempt
		c.invalidateToken()
		return retry.RetryableError(pkgerrors.New(pkgerrors.CodeDependency, "mpesa token rejected"))
	}
	if resp.StatusCode >= 400 {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("mpesa stk push rejected with %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode stk push response")
	}
	return nil
}

// accessToken returns a cached OAuth token, fetching a fresh one when the
// cache is empty or near expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.cachedToken != "" && c.now().Before(c.tokenExpiry) {
		token := c.cachedToken
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+oauthPath, nil)
	if err != nil {
		return "", fmt.Errorf("build oauth request: %w", err)
	}
	req.SetBasicAuth(c.key, c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mpesa oauth failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("mpesa oauth returned %d", resp.StatusCode))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode oauth response")
	}
	if payload.AccessToken == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "mpesa oauth returned empty token")
	}

	ttl := time.Hour
	if secs, err := time.ParseDuration(payload.ExpiresIn + "s"); err == nil && secs > 0 {
		ttl = secs
	}

	c.mu.Lock()
	c.cachedToken = payload.AccessToken
	c.tokenExpiry = c.now().Add(ttl - tokenSafetyMargin)
	c.mu.Unlock()

	return payload.AccessToken, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.cachedToken = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}

// password derives the Lipa Na M-Pesa password for the given instant.
func (c *Client) password(now time.Time) (string, string) {
	timestamp := now.Format(timestampLayout)
	encoded := base64.StdEncoding.EncodeToString([]byte(c.shortcode + c.passkey + timestamp))
	return encoded, timestamp
}

// NormalizePhone converts Kenyan MSISDN spellings (07…, +2547…, 7…) to the
// canonical 2547XXXXXXXX form the API expects.
func NormalizePhone(raw string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	switch {
	case strings.HasPrefix(digits, "254") && len(digits) == 12:
		return digits, nil
	case strings.HasPrefix(digits, "0") && len(digits) == 10:
		return "254" + digits[1:], nil
	case (strings.HasPrefix(digits, "7") || strings.HasPrefix(digits, "1")) && len(digits) == 9:
		return "254" + digits, nil
	default:
		return "", fmt.Errorf("unrecognized phone number %q", raw)
	}
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("mpesa %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("mpesa %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"phone", "secret", "passkey", "token", "password"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
