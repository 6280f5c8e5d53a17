package himkosh

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hptourism/homestay-portal/pkg/config"
	pkgerrors "github.com/hptourism/homestay-portal/pkg/errors"
	"github.com/hptourism/homestay-portal/pkg/logger"
)

var (
	errBaseURLRequired     = errors.New("himkosh base url is required")
	errServiceCodeRequired = errors.New("himkosh service code is required")
	errChecksumKeyRequired = errors.New("himkosh checksum key is required")
	errLoggerRequired      = errors.New("himkosh logger is required")
)

// Client wraps the HimKosh e-challan gateway with centralized auth, logging,
// checksum handling, and error mapping.
type Client struct {
	httpClient  *http.Client
	cfg         config.HimKoshConfig
	checksumKey []byte
	logger      *logger.Logger
}

// ChallanRequest describes a payment to initiate against the treasury.
type ChallanRequest struct {
	ChallanRef        string
	ApplicationNumber string
	Amount            decimal.Decimal
	PayerName         string
	PayerMobile       string
	District          string
}

// ChallanInitiation is the gateway handoff for an initiated challan.
type ChallanInitiation struct {
	ChallanRef  string
	RedirectURL string
	ExpiresAt   time.Time
}

// ChallanStatus is the gateway's record of a challan after payment.
type ChallanStatus struct {
	ChallanRef    string
	GatewayTxnID  string
	Status        string
	Amount        decimal.Decimal
	TransactedAt  *time.Time
	FailureReason string
}

type initiateResponse struct {
	ChallanRef  string `json:"challan_ref"`
	RedirectURL string `json:"redirect_url"`
	ExpiresAt   string `json:"expires_at"`
	Checksum    string `json:"checksum"`
}

type statusResponse struct {
	ChallanRef    string `json:"challan_ref"`
	GatewayTxnID  string `json:"gateway_txn_id"`
	Status        string `json:"status"`
	Amount        string `json:"amount"`
	TransactedAt  string `json:"transacted_at"`
	FailureReason string `json:"failure_reason"`
	Checksum      string `json:"checksum"`
}

// NewClient initializes the HimKosh wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.HimKoshConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errBaseURLRequired
	}
	if strings.TrimSpace(cfg.ServiceCode) == "" {
		return nil, errServiceCodeRequired
	}
	key := strings.TrimSpace(cfg.ChecksumKey)
	if key == "" {
		return nil, errChecksumKeyRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		cfg:         cfg,
		checksumKey: []byte(key),
		logger:      logg,
	}

	logg.Info(ctx, "himkosh client initialized")
	return c, nil
}

// InitiateChallan registers the payment with the treasury and returns the
// citizen-facing redirect URL.
func (c *Client) InitiateChallan(ctx context.Context, req ChallanRequest) (*ChallanInitiation, error) {
	if strings.TrimSpace(req.ChallanRef) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "challan reference is required")
	}
	if !req.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "challan amount must be positive")
	}

	form := url.Values{}
	form.Set("dept_code", c.cfg.DepartmentCode)
	form.Set("service_code", c.cfg.ServiceCode)
	form.Set("challan_ref", req.ChallanRef)
	form.Set("application_number", req.ApplicationNumber)
	form.Set("amount", req.Amount.StringFixed(2))
	form.Set("payer_name", req.PayerName)
	form.Set("payer_mobile", req.PayerMobile)
	form.Set("district", req.District)
	form.Set("return_url", c.cfg.ReturnURL)
	form.Set("checksum", c.Checksum(
		c.cfg.DepartmentCode,
		c.cfg.ServiceCode,
		req.ChallanRef,
		req.Amount.StringFixed(2),
	))

	c.log(ctx, "request", "initiate_challan", map[string]any{
		"challan_ref":        req.ChallanRef,
		"application_number": req.ApplicationNumber,
		"amount":             req.Amount.StringFixed(2),
		"payer_mobile":       req.PayerMobile,
	})

	var payload initiateResponse
	if err := c.postForm(ctx, "/echallan/initiate", form, &payload); err != nil {
		c.log(ctx, "error", "initiate_challan", map[string]any{"error": err.Error()})
		return nil, err
	}

	if !c.verifyChecksum(payload.Checksum, payload.ChallanRef, payload.RedirectURL) {
		err := pkgerrors.New(pkgerrors.CodeDependency, "himkosh response checksum mismatch")
		c.log(ctx, "error", "initiate_challan", map[string]any{"error": err.Error()})
		return nil, err
	}

	out := &ChallanInitiation{
		ChallanRef:  payload.ChallanRef,
		RedirectURL: payload.RedirectURL,
	}
	if ts, err := time.Parse(time.RFC3339, payload.ExpiresAt); err == nil {
		out.ExpiresAt = ts
	}

	c.log(ctx, "response", "initiate_challan", map[string]any{
		"challan_ref": out.ChallanRef,
	})
	return out, nil
}

// QueryChallan fetches the treasury's authoritative status for a challan.
// Callback parameters are never trusted on their own; reconciliation always
// round-trips through this call.
func (c *Client) QueryChallan(ctx context.Context, challanRef string) (*ChallanStatus, error) {
	if strings.TrimSpace(challanRef) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "challan reference is required")
	}

	form := url.Values{}
	form.Set("dept_code", c.cfg.DepartmentCode)
	form.Set("service_code", c.cfg.ServiceCode)
	form.Set("challan_ref", challanRef)
	form.Set("checksum", c.Checksum(c.cfg.DepartmentCode, c.cfg.ServiceCode, challanRef))

	c.log(ctx, "request", "query_challan", map[string]any{"challan_ref": challanRef})

	var payload statusResponse
	if err := c.postForm(ctx, "/echallan/status", form, &payload); err != nil {
		c.log(ctx, "error", "query_challan", map[string]any{"error": err.Error()})
		return nil, err
	}

	if !c.verifyChecksum(payload.Checksum, payload.ChallanRef, payload.Status, payload.Amount) {
		err := pkgerrors.New(pkgerrors.CodeDependency, "himkosh response checksum mismatch")
		c.log(ctx, "error", "query_challan", map[string]any{"error": err.Error()})
		return nil, err
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(payload.Amount))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "himkosh returned invalid amount")
	}

	out := &ChallanStatus{
		ChallanRef:    payload.ChallanRef,
		GatewayTxnID:  payload.GatewayTxnID,
		Status:        strings.ToLower(strings.TrimSpace(payload.Status)),
		Amount:        amount,
		FailureReason: payload.FailureReason,
	}
	if ts, err := time.Parse(time.RFC3339, payload.TransactedAt); err == nil {
		out.TransactedAt = &ts
	}

	c.log(ctx, "response", "query_challan", map[string]any{
		"challan_ref": out.ChallanRef,
		"status":      out.Status,
	})
	return out, nil
}

// Checksum computes the HMAC-SHA256 signature over pipe-joined fields.
func (c *Client) Checksum(fields ...string) string {
	mac := hmac.New(sha256.New, c.checksumKey)
	mac.Write([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) verifyChecksum(provided string, fields ...string) bool {
	expected := c.Checksum(fields...)
	return hmac.Equal([]byte(strings.ToLower(strings.TrimSpace(provided))), []byte(expected))
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building himkosh request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "himkosh gateway unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return pkgerrors.Wrap(
			pkgerrors.CodeDependency,
			fmt.Errorf("himkosh returned status %d", resp.StatusCode),
			"himkosh gateway error",
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding himkosh response")
	}
	return nil
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
		c.logger.Error(ctx, fmt.Sprintf("himkosh %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("himkosh %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"mobile", "phone", "checksum", "secret", "key"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
