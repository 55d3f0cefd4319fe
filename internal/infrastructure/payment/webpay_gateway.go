package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/stephanos-estetic/backend/internal/domain/payment"
	"github.com/stephanos-estetic/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	// WebpayGatewayName is the provider id of WebpayGateway
	WebpayGatewayName = "webpay"

	webpayTransactionsPath = "/rswebpaytransaction/api/webpay/v1.2/transactions"

	webpayStatusAuthorized = "AUTHORIZED"

	// Transbank field limits
	webpayMaxBuyOrder  = 26
	webpayMaxSessionID = 61
)

// Errors for configuration validation
var (
	ErrWebpayMissingCommerceCode = errors.New("webpay: missing commerce code")
	ErrWebpayMissingAPIKey       = errors.New("webpay: missing API key")
)

// WebpayGateway implements payment.Gateway for Transbank Webpay Plus (REST)
type WebpayGateway struct {
	baseURL      string
	commerceCode string
	apiKey       string
	httpClient   *http.Client
	logger       *zap.Logger
}

// NewWebpayGateway creates a new Webpay Plus gateway
func NewWebpayGateway(cfg config.WebpayConfig, logger *zap.Logger) (*WebpayGateway, error) {
	if cfg.CommerceCode == "" {
		return nil, ErrWebpayMissingCommerceCode
	}
	if cfg.APIKey == "" {
		return nil, ErrWebpayMissingAPIKey
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebpayGateway{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		commerceCode: cfg.CommerceCode,
		apiKey:       cfg.APIKey,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger.Named("webpay"),
	}, nil
}

// Name returns the provider id
func (g *WebpayGateway) Name() string {
	return WebpayGatewayName
}

type webpayCreateRequest struct {
	BuyOrder  string `json:"buy_order"`
	SessionID string `json:"session_id"`
	Amount    int64  `json:"amount"`
	ReturnURL string `json:"return_url"`
}

type webpayCreateResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

type webpayCommitResponse struct {
	VCI                string `json:"vci"`
	Amount             int64  `json:"amount"`
	Status             string `json:"status"`
	BuyOrder           string `json:"buy_order"`
	SessionID          string `json:"session_id"`
	AccountingDate     string `json:"accounting_date"`
	TransactionDate    string `json:"transaction_date"`
	AuthorizationCode  string `json:"authorization_code"`
	PaymentTypeCode    string `json:"payment_type_code"`
	ResponseCode       int    `json:"response_code"`
	InstallmentsNumber int    `json:"installments_number"`
	CardDetail         struct {
		CardNumber string `json:"card_number"`
	} `json:"card_detail"`
}

type webpayErrorResponse struct {
	ErrorMessage string `json:"error_message"`
}

// webpayRejection is a 4xx answer carrying a Transbank error message
type webpayRejection struct {
	status  int
	message string
}

func (e *webpayRejection) Error() string {
	return fmt.Sprintf("webpay: HTTP %d: %s", e.status, e.message)
}

// CreateSession creates a Webpay transaction. The returned token is the
// session id Transbank sends back as token_ws.
func (g *WebpayGateway) CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
	body := webpayCreateRequest{
		BuyOrder:  truncate(req.SessionID, webpayMaxBuyOrder),
		SessionID: truncate(req.IntentID, webpayMaxSessionID),
		Amount:    req.Amount,
		ReturnURL: req.ReturnURL,
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("webpay: failed to marshal request: %w", err)
	}

	respBody, err := g.doRequest(ctx, http.MethodPost, webpayTransactionsPath, bodyBytes)
	if err != nil {
		return nil, err
	}

	var created webpayCreateResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return nil, fmt.Errorf("webpay: failed to parse response: %w", err)
	}
	if created.Token == "" || created.URL == "" {
		return nil, fmt.Errorf("%w: empty token", payment.ErrGatewayUnavailable)
	}

	g.logger.Debug("transaction created", zap.String("buy_order", body.BuyOrder))
	return &payment.Session{
		SessionID:   created.Token,
		RedirectURL: created.URL + "?token_ws=" + created.Token,
		Token:       created.Token,
	}, nil
}

// Confirm commits the transaction. A rejected commit (aborted, timed out or
// already committed) yields an unpaid confirmation rather than an error.
func (g *WebpayGateway) Confirm(ctx context.Context, sessionID string, _ map[string]string) (*payment.Confirmation, error) {
	if sessionID == "" {
		return nil, payment.ErrInvalidSession
	}

	respBody, err := g.doRequest(ctx, http.MethodPut, webpayTransactionsPath+"/"+sessionID, nil)
	if err != nil {
		var rejection *webpayRejection
		if errors.As(err, &rejection) {
			return &payment.Confirmation{
				Paid:   false,
				Reason: rejection.message,
				Raw:    map[string]string{"http_status": strconv.Itoa(rejection.status)},
			}, nil
		}
		return nil, err
	}

	var commit webpayCommitResponse
	if err := json.Unmarshal(respBody, &commit); err != nil {
		return nil, fmt.Errorf("webpay: failed to parse commit response: %w", err)
	}

	conf := &payment.Confirmation{
		Paid:          commit.Status == webpayStatusAuthorized && commit.ResponseCode == 0,
		Amount:        commit.Amount,
		Authorization: commit.AuthorizationCode,
		Raw: map[string]string{
			"buy_order":         commit.BuyOrder,
			"status":            commit.Status,
			"response_code":     strconv.Itoa(commit.ResponseCode),
			"payment_type_code": commit.PaymentTypeCode,
			"card_last4":        commit.CardDetail.CardNumber,
			"installments":      strconv.Itoa(commit.InstallmentsNumber),
			"transaction_date":  commit.TransactionDate,
		},
	}
	if !conf.Paid {
		conf.Reason = fmt.Sprintf("rejected by Transbank (status %s, code %d)", commit.Status, commit.ResponseCode)
	}
	return conf, nil
}

// doRequest performs an authenticated request to the Webpay API
func (g *WebpayGateway) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("webpay: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Tbk-Api-Key-Id", g.commerceCode)
	req.Header.Set("Tbk-Api-Key-Secret", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("webpay: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", payment.ErrGatewayUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		var errResp webpayErrorResponse
		msg := http.StatusText(resp.StatusCode)
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.ErrorMessage != "" {
			msg = errResp.ErrorMessage
		}
		return nil, &webpayRejection{status: resp.StatusCode, message: msg}
	}
	return respBody, nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

var _ payment.Gateway = (*WebpayGateway)(nil)
