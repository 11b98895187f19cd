package rails

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookingpay/services/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlaidTestRail(t *testing.T, mux *http.ServeMux) *PlaidTransferRail {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewPlaidTransferRail(PlaidConfig{ClientID: "cid", Secret: "sec", BaseURL: srv.URL + "/"})
}

var testAccount = Account{AccessToken: "access-sandbox-1", AccountID: "acc-1", LegalName: "Jane Provider"}

func TestPlaidAuthorizeAndExecute(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/transfer/authorization/create", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cid", body["client_id"])
		assert.Equal(t, "credit", body["type"])
		assert.Equal(t, "120.00", body["amount"])
		assert.Equal(t, "payout:b1", body["idempotency_key"])
		_, _ = w.Write([]byte(`{"authorization":{"id":"auth-1","decision":"approved"},"request_id":"r1"}`))
	})
	mux.HandleFunc("/transfer/create", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "auth-1", body["authorization_id"])
		assert.NotContains(t, body, "idempotency_key")
		_, _ = w.Write([]byte(`{"transfer":{"id":"tr-1","status":"pending","amount":"120.00"},"request_id":"r2"}`))
	})
	rail := newPlaidTestRail(t, mux)

	req := TransferRequest{Account: testAccount, AmountCents: 12000, Currency: "usd", IdempotencyKey: "payout:b1"}
	authID, err := rail.AuthorizeTransfer(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "auth-1", authID)

	transfer, err := rail.ExecuteTransfer(context.Background(), authID, req)
	require.NoError(t, err)
	assert.Equal(t, "tr-1", transfer.Reference)
	assert.Equal(t, TransferPending, transfer.Status)
	assert.Equal(t, int64(12000), transfer.AmountCents)
}

func TestPlaidDeclinedAuthorizationIsRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/transfer/authorization/create", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"authorization":{"id":"auth-2","decision":"declined",
			"decision_rationale":{"code":"NSF","description":"insufficient funds"}}}`))
	})
	rail := newPlaidTestRail(t, mux)

	_, err := rail.AuthorizeTransfer(context.Background(), TransferRequest{Account: testAccount, AmountCents: 100})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrRailRejected))
	assert.Contains(t, err.Error(), "NSF")
}

func TestPlaidErrorClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"invalid input", http.StatusBadRequest,
			`{"error_type":"INVALID_INPUT","error_code":"INVALID_ACCESS_TOKEN","error_message":"bad token"}`, apperr.ErrRailRejected},
		{"rate limit", http.StatusTooManyRequests,
			`{"error_type":"RATE_LIMIT_EXCEEDED","error_code":"TRANSFER_LIMIT","error_message":"slow"}`, apperr.ErrRailTransient},
		{"api error", http.StatusInternalServerError,
			`{"error_type":"API_ERROR","error_code":"INTERNAL_SERVER_ERROR","error_message":"oops"}`, apperr.ErrRailTransient},
		{"html gateway error", http.StatusBadGateway, `<html>bad gateway</html>`, apperr.ErrRailTransient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/transfer/get", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			rail := newPlaidTestRail(t, mux)
			_, err := rail.GetTransfer(context.Background(), "tr-1")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestPlaidTransferStatusMapping(t *testing.T) {
	cases := map[string]TransferStatus{
		"pending":         TransferPending,
		"posted":          TransferPosted,
		"settled":         TransferSettled,
		"funds_available": TransferSettled,
		"returned":        TransferFailed,
		"cancelled":       TransferFailed,
	}
	for status, want := range cases {
		got := toTransfer(plaidTransfer{ID: "tr", Status: status, Amount: "1.05"})
		assert.Equal(t, want, got.Status, status)
		assert.Equal(t, int64(105), got.AmountCents)
	}
}

func TestCentsToAmount(t *testing.T) {
	assert.Equal(t, "120.00", centsToAmount(12000))
	assert.Equal(t, "0.05", centsToAmount(5))
	assert.Equal(t, "13.20", centsToAmount(1320))
}
