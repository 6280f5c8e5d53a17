package sms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hptourism/homestay-portal/pkg/config"
	pkgerrors "github.com/hptourism/homestay-portal/pkg/errors"
	"github.com/hptourism/homestay-portal/pkg/logger"
)

var (
	errGatewayURLRequired = errors.New("sms gateway url is required")
	errLoggerRequired     = errors.New("sms logger is required")
)

// Client sends transactional SMS through the government gateway.
type Client struct {
	httpClient *http.Client
	cfg        config.SMSConfig
	logger     *logger.Logger
}

func NewClient(ctx context.Context, cfg config.SMSConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if strings.TrimSpace(cfg.GatewayURL) == "" {
		return nil, errGatewayURLRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		logger:     logg,
	}

	logg.Info(ctx, "sms client initialized")
	return c, nil
}

// Send delivers one message to one mobile number. Template IDs are mandatory
// on the DLT-registered gateway route.
func (c *Client) Send(ctx context.Context, mobile, message, templateID string) error {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "mobile number is required")
	}
	if strings.TrimSpace(message) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}

	form := url.Values{}
	form.Set("username", c.cfg.Username)
	form.Set("password", c.cfg.Password)
	form.Set("sender_id", c.cfg.SenderID)
	form.Set("entity_id", c.cfg.EntityID)
	form.Set("template_id", templateID)
	form.Set("mobile", mobile)
	form.Set("message", message)

	logCtx := c.logger.WithFields(ctx, map[string]any{
		"template_id": templateID,
		"sender_id":   c.cfg.SenderID,
	})
	c.logger.Info(logCtx, "sms send requested")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GatewayURL, strings.NewReader(form.Encode()))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building sms request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sms gateway unreachable")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		c.logger.Error(logCtx, "sms gateway error", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
		return pkgerrors.Wrap(
			pkgerrors.CodeDependency,
			fmt.Errorf("sms gateway returned status %d", resp.StatusCode),
			"sms delivery failed",
		)
	}

	c.logger.Info(logCtx, "sms send accepted")
	return nil
}
