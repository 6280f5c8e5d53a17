package himkosh

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hptourism/homestay-portal/pkg/config"
	pkgerrors "github.com/hptourism/homestay-portal/pkg/errors"
	"github.com/hptourism/homestay-portal/pkg/logger"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	c, err := NewClient(context.Background(), config.HimKoshConfig{
		BaseURL:        baseURL,
		DepartmentCode: "TSM",
		ServiceCode:    "HOMESTAY_REG",
		ChecksumKey:    "test-key",
		ReturnURL:      "https://portal.example/payments/return",
		Timeout:        5 * time.Second,
	}, logg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestChecksumDeterministic(t *testing.T) {
	c := testClient(t, "https://treasury.example")
	a := c.Checksum("TSM", "HOMESTAY_REG", "CH-1", "3000.00")
	b := c.Checksum("TSM", "HOMESTAY_REG", "CH-1", "3000.00")
	if a != b {
		t.Fatalf("checksum not deterministic: %q vs %q", a, b)
	}
	if a == c.Checksum("TSM", "HOMESTAY_REG", "CH-2", "3000.00") {
		t.Fatalf("checksum should differ across challan refs")
	}
}

func TestInitiateChallanValidatesInput(t *testing.T) {
	c := testClient(t, "https://treasury.example")
	_, err := c.InitiateChallan(context.Background(), ChallanRequest{
		ChallanRef: "",
		Amount:     decimal.NewFromInt(3000),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = c.InitiateChallan(context.Background(), ChallanRequest{
		ChallanRef: "CH-1",
		Amount:     decimal.Zero,
	})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for zero amount, got %v", err)
	}
}

func TestInitiateChallanSignsAndVerifies(t *testing.T) {
	var seen url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		seen = r.PostForm

		// Echo a response signed with the shared key.
		c := testClient(t, "unused")
		resp := initiateResponse{
			ChallanRef:  r.PostForm.Get("challan_ref"),
			RedirectURL: "https://treasury.example/pay/CH-1",
			ExpiresAt:   time.Now().Add(30 * time.Minute).Format(time.RFC3339),
		}
		resp.Checksum = c.Checksum(resp.ChallanRef, resp.RedirectURL)
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	out, err := c.InitiateChallan(context.Background(), ChallanRequest{
		ChallanRef:        "CH-1",
		ApplicationNumber: "HS/SML/2026/000042",
		Amount:            decimal.NewFromInt(3000),
		PayerName:         "Asha Devi",
		PayerMobile:       "9876500000",
		District:          "Shimla",
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if out.RedirectURL == "" {
		t.Fatalf("expected redirect url")
	}

	if seen.Get("dept_code") != "TSM" || seen.Get("service_code") != "HOMESTAY_REG" {
		t.Fatalf("missing department identifiers in form: %v", seen)
	}
	wantSum := c.Checksum("TSM", "HOMESTAY_REG", "CH-1", "3000.00")
	if seen.Get("checksum") != wantSum {
		t.Fatalf("request checksum mismatch")
	}
}

func TestInitiateChallanRejectsBadResponseChecksum(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := initiateResponse{
			ChallanRef:  "CH-1",
			RedirectURL: "https://treasury.example/pay/CH-1",
			Checksum:    "deadbeef",
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	_, err := c.InitiateChallan(context.Background(), ChallanRequest{
		ChallanRef: "CH-1",
		Amount:     decimal.NewFromInt(3000),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error on checksum mismatch, got %v", err)
	}
}

func TestQueryChallanParsesStatus(t *testing.T) {
	transacted := time.Now().UTC().Truncate(time.Second)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := testClient(t, "unused")
		resp := statusResponse{
			ChallanRef:   "CH-1",
			GatewayTxnID: "TXN-991",
			Status:       "SUCCESS",
			Amount:       "3000.00",
			TransactedAt: transacted.Format(time.RFC3339),
		}
		resp.Checksum = c.Checksum(resp.ChallanRef, resp.Status, resp.Amount)
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	out, err := c.QueryChallan(context.Background(), "CH-1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if out.Status != "success" {
		t.Fatalf("expected normalized status, got %q", out.Status)
	}
	if !out.Amount.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("unexpected amount %s", out.Amount)
	}
	if out.TransactedAt == nil {
		t.Fatalf("expected transacted_at")
	}
}

func TestGatewayErrorMapsToDependency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	_, err := c.QueryChallan(context.Background(), "CH-1")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestRedact(t *testing.T) {
	if redact("payer_mobile", "9876500000") != "[REDACTED]" {
		t.Fatalf("expected mobile redaction")
	}
	if redact("status", "ok") != "ok" {
		t.Fatalf("unexpected redaction for safe key")
	}
}
