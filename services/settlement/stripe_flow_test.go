package settlement

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"bookingpay/models"
	"bookingpay/services/rails"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stripeIntents is a minimal payment-intent endpoint keyed by Idempotency-Key.
type stripeIntents struct {
	mu      sync.Mutex
	byKey   map[string]string
	status  map[string]string
	errMsg  map[string]string
	created int
}

func (s *stripeIntents) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	if r.Method == http.MethodPost && r.URL.Path == "/v1/payment_intents" {
		key := r.Header.Get("Idempotency-Key")
		id, ok := s.byKey[key]
		if !ok {
			s.created++
			id = fmt.Sprintf("pi_%d", s.created)
			s.byKey[key] = id
			s.status[id] = "requires_payment_method"
		}
		_, _ = w.Write([]byte(s.intent(id)))
		return
	}
	id := r.URL.Path[len("/v1/payment_intents/"):]
	_, _ = w.Write([]byte(s.intent(id)))
}

func (s *stripeIntents) intent(id string) string {
	lastErr := "null"
	if msg := s.errMsg[id]; msg != "" {
		lastErr = fmt.Sprintf(`{"type":"card_error","code":"card_declined","message":%q}`, msg)
	}
	return fmt.Sprintf(`{"id":%q,"object":"payment_intent","amount":1200,"currency":"usd","status":%q,
		"client_secret":"%s_secret","metadata":{"bookingId":%q},"last_payment_error":%s}`,
		id, s.status[id], id, testBooking, lastErr)
}

func (s *stripeIntents) set(id, status, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[id] = status
	s.errMsg[id] = errMsg
}

func TestStripeDeclineKeepsSingleIntent(t *testing.T) {
	intents := &stripeIntents{byKey: map[string]string{}, status: map[string]string{}, errMsg: map[string]string{}}
	srv := httptest.NewServer(intents)
	t.Cleanup(srv.Close)

	h := newHarness(t, models.BookingConfirmed)
	h.orch.Fees = rails.NewStripeFeeRail(rails.StripeConfig{Key: "sk_test_123", APIURL: srv.URL})
	ctx := context.Background()

	first, err := h.orch.InitiateSettlement(ctx, testBooking, testClient)
	require.NoError(t, err)
	assert.Equal(t, "pi_1", first.FeeRailReference)

	intents.set("pi_1", "requires_payment_method", "Your card was declined.")
	second, err := h.orch.InitiateSettlement(ctx, testBooking, testClient)
	require.NoError(t, err)
	assert.True(t, second.Reused)
	assert.Equal(t, "pi_1", second.FeeRailReference)
	assert.Equal(t, "pi_1_secret", second.ClientSecret)

	intents.set("pi_1", "succeeded", "")
	payment, err := h.orch.ConfirmFeeLeg(ctx, testBooking, "pi_1", testClient)
	require.NoError(t, err)
	assert.Equal(t, models.StateFeeCompleted, payment.State)

	intents.mu.Lock()
	defer intents.mu.Unlock()
	assert.Equal(t, 1, intents.created)
}
