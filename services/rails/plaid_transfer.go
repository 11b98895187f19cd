package rails

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bookingpay/services/apperr"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PlaidConfig configures the Plaid Transfer rail.
type PlaidConfig struct {
	ClientID   string
	Secret     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// PlaidTransferRail implements TransferRail against the Plaid Transfer REST API.
type PlaidTransferRail struct {
	clientID string
	secret   string
	baseURL  string
	http     *http.Client
	logger   *zap.Logger
}

func NewPlaidTransferRail(cfg PlaidConfig) *PlaidTransferRail {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlaidTransferRail{
		clientID: cfg.ClientID,
		secret:   cfg.Secret,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     client,
		logger:   logger,
	}
}

// --- Wire types ---

type plaidUser struct {
	LegalName string `json:"legal_name"`
}

type authorizationCreateRequest struct {
	ClientID       string    `json:"client_id"`
	Secret         string    `json:"secret"`
	AccessToken    string    `json:"access_token"`
	AccountID      string    `json:"account_id"`
	Type           string    `json:"type"`
	Network        string    `json:"network"`
	Amount         string    `json:"amount"`
	ACHClass       string    `json:"ach_class"`
	User           plaidUser `json:"user"`
	IdempotencyKey string    `json:"idempotency_key"`
}

type authorizationCreateResponse struct {
	Authorization struct {
		ID                string `json:"id"`
		Decision          string `json:"decision"`
		DecisionRationale *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"decision_rationale"`
	} `json:"authorization"`
	RequestID string `json:"request_id"`
}

type transferCreateRequest struct {
	ClientID        string `json:"client_id"`
	Secret          string `json:"secret"`
	AccessToken     string `json:"access_token"`
	AccountID       string `json:"account_id"`
	AuthorizationID string `json:"authorization_id"`
	Description     string `json:"description"`
}

type transferGetRequest struct {
	ClientID   string `json:"client_id"`
	Secret     string `json:"secret"`
	TransferID string `json:"transfer_id"`
}

type plaidTransfer struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Amount        string `json:"amount"`
	FailureReason *struct {
		Description string `json:"description"`
	} `json:"failure_reason"`
}

type transferResponse struct {
	Transfer  plaidTransfer `json:"transfer"`
	RequestID string        `json:"request_id"`
}

type plaidError struct {
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	RequestID    string `json:"request_id"`
	status       int
}

func (e *plaidError) Error() string {
	return fmt.Sprintf("plaid %d %s/%s: %s", e.status, e.ErrorType, e.ErrorCode, e.ErrorMessage)
}

// --- TransferRail ---

func (r *PlaidTransferRail) AuthorizeTransfer(ctx context.Context, req TransferRequest) (string, error) {
	const op = "TransferRail.AuthorizeTransfer"
	body := authorizationCreateRequest{
		ClientID:       r.clientID,
		Secret:         r.secret,
		AccessToken:    req.Account.AccessToken,
		AccountID:      req.Account.AccountID,
		Type:           "credit",
		Network:        "ach",
		Amount:         centsToAmount(req.AmountCents),
		ACHClass:       "ppd",
		User:           plaidUser{LegalName: req.Account.LegalName},
		IdempotencyKey: req.IdempotencyKey,
	}
	var resp authorizationCreateResponse
	if err := r.post(ctx, "/transfer/authorization/create", body, &resp); err != nil {
		return "", classifyPlaidError(op, err)
	}
	if resp.Authorization.Decision != "approved" {
		reason := resp.Authorization.Decision
		if rationale := resp.Authorization.DecisionRationale; rationale != nil {
			reason = rationale.Code + ": " + rationale.Description
		}
		return "", apperr.E(apperr.KindRailRejected, op, "transfer not authorized (%s)", reason)
	}
	r.logger.Debug("Transfer authorized",
		zap.String("authorizationId", resp.Authorization.ID),
		zap.String("requestId", resp.RequestID))
	return resp.Authorization.ID, nil
}

// ExecuteTransfer creates the transfer for an approved authorization. /transfer/create is
// idempotent on authorization_id, so req.IdempotencyKey is only spent on the authorization.
func (r *PlaidTransferRail) ExecuteTransfer(ctx context.Context, authorizationID string, req TransferRequest) (*Transfer, error) {
	body := transferCreateRequest{
		ClientID:        r.clientID,
		Secret:          r.secret,
		AccessToken:     req.Account.AccessToken,
		AccountID:       req.Account.AccountID,
		AuthorizationID: authorizationID,
		Description:     truncate(req.Description, 15),
	}
	var resp transferResponse
	if err := r.post(ctx, "/transfer/create", body, &resp); err != nil {
		return nil, classifyPlaidError("TransferRail.ExecuteTransfer", err)
	}
	return toTransfer(resp.Transfer), nil
}

func (r *PlaidTransferRail) GetTransfer(ctx context.Context, reference string) (*Transfer, error) {
	body := transferGetRequest{ClientID: r.clientID, Secret: r.secret, TransferID: reference}
	var resp transferResponse
	if err := r.post(ctx, "/transfer/get", body, &resp); err != nil {
		return nil, classifyPlaidError("TransferRail.GetTransfer", err)
	}
	return toTransfer(resp.Transfer), nil
}

func (r *PlaidTransferRail) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode >= http.StatusBadRequest {
		pe := &plaidError{status: res.StatusCode}
		if jsonErr := json.Unmarshal(data, pe); jsonErr != nil {
			pe.ErrorMessage = strings.TrimSpace(string(data))
		}
		return pe
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func classifyPlaidError(op string, err error) error {
	var pe *plaidError
	if errors.As(err, &pe) {
		switch {
		case pe.status == http.StatusTooManyRequests,
			pe.status >= http.StatusInternalServerError,
			pe.ErrorType == "API_ERROR",
			pe.ErrorType == "RATE_LIMIT_EXCEEDED",
			pe.ErrorType == "INSTITUTION_ERROR":
			return apperr.Wrap(apperr.KindRailTransient, op, err, "transfer rail unavailable")
		default:
			return apperr.Wrap(apperr.KindRailRejected, op, err, "transfer rail rejected request")
		}
	}
	return apperr.Wrap(apperr.KindRailTransient, op, err, "transfer rail unreachable")
}

func toTransfer(t plaidTransfer) *Transfer {
	out := &Transfer{Reference: t.ID}
	if amount, err := decimal.NewFromString(t.Amount); err == nil {
		out.AmountCents = amount.Shift(2).Round(0).IntPart()
	}
	switch t.Status {
	case "posted":
		out.Status = TransferPosted
	case "settled", "funds_available":
		out.Status = TransferSettled
	case "failed", "cancelled", "returned":
		out.Status = TransferFailed
	default:
		out.Status = TransferPending
	}
	if t.FailureReason != nil {
		out.FailureReason = t.FailureReason.Description
	}
	return out
}

// centsToAmount renders cents as the decimal string Plaid expects, e.g. 1200 -> "12.00".
func centsToAmount(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
