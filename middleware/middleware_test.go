package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookingpay/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ActorIDKey))
	})
	return r
}

func get(r http.Handler, url, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, url, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	r := newRouter(JWTAuthMiddleware(secret))

	token, err := utils.GenerateToken(secret, "client-1", "client", time.Hour)
	require.NoError(t, err)
	w := get(r, "/whoami", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "client-1", w.Body.String())

	w = get(r, "/whoami?token="+token, "")
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/whoami", "").Code)

	forged, err := utils.GenerateToken([]byte("other"), "client-1", "client", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/whoami", forged).Code)

	expired, err := utils.GenerateToken(secret, "client-1", "client", -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/whoami", expired).Code)

	system, err := utils.GenerateToken(secret, utils.SystemActorID, "system", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(r, "/whoami", system).Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newRouter(RateLimitMiddleware(2))

	assert.Equal(t, http.StatusOK, get(r, "/whoami", "").Code)
	assert.Equal(t, http.StatusOK, get(r, "/whoami", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/whoami", "").Code)
}

func TestClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"first forwarded hop", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "203.0.113.7"},
		{"garbage forwarded falls through", map[string]string{"X-Forwarded-For": "not-an-ip", "X-Real-IP": "198.51.100.4"}, "198.51.100.4"},
		{"real ip", map[string]string{"X-Real-IP": " 2001:db8::1 "}, "2001:db8::1"},
		{"remote addr", nil, "192.0.2.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, clientIP(c))
		})
	}
}

func TestRateLimitKeysAnonymousCallersByForwardedIP(t *testing.T) {
	r := newRouter(RateLimitMiddleware(1))
	from := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("X-Forwarded-For", ip)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, from("203.0.113.7"))
	assert.Equal(t, http.StatusTooManyRequests, from("203.0.113.7"))
	assert.Equal(t, http.StatusOK, from("203.0.113.8"))
}
