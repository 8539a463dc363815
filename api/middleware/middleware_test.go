package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anoixa/image-gallery/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = strings.Repeat("k", 32)

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func perform(r http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	svc, err := auth.NewJWTService(testSecret)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", JWTAuth(svc), func(c *gin.Context) {
		id, ok := GetUserID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": id, "username": GetUsername(c), "role": c.GetString(ContextRoleKey)})
	})
	r.GET("/admin", JWTAuth(svc), RequireRole("admin"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	exp := time.Now().Add(time.Hour).Unix()
	userToken := signToken(t, jwt.MapClaims{"user_id": 5, "username": "alice", "exp": exp})
	adminToken := signToken(t, jwt.MapClaims{"user_id": 1, "username": "root", "role": "admin", "exp": exp})

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"no header", "/me", "", http.StatusUnauthorized},
		{"malformed", "/me", "Bearer", http.StatusUnauthorized},
		{"wrong scheme", "/me", "ApiKey " + userToken, http.StatusUnauthorized},
		{"bad token", "/me", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"valid", "/me", "Bearer " + userToken, http.StatusOK},
		{"lower-case scheme", "/me", "bearer " + userToken, http.StatusOK},
		{"user on admin route", "/admin", "Bearer " + userToken, http.StatusForbidden},
		{"admin", "/admin", "Bearer " + adminToken, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := map[string]string{}
			if tt.header != "" {
				header["Authorization"] = tt.header
			}
			w := perform(r, http.MethodGet, tt.path, header)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	w := perform(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + userToken})
	assert.JSONEq(t, `{"id":5,"username":"alice","role":"user"}`, w.Body.String())
}

func TestJWTAuth_NotConfigured(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWTAuth(nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer x"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestIPRateLimiter(t *testing.T) {
	rl := NewIPRateLimiter(0.001, 2, time.Minute)
	defer rl.StopCleanup()

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	fromA := map[string]string{"X-Forwarded-For": "10.0.0.1, 192.168.0.1"}
	fromB := map[string]string{"X-Real-IP": "10.0.0.2"}

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", fromA).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", fromA).Code)

	w := perform(r, http.MethodGet, "/", fromA)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", fromB).Code)
	rl.StopCleanup()
}

func TestConcurrencyLimiter(t *testing.T) {
	cl := NewConcurrencyLimiter("upload", 1)
	entered := make(chan struct{})
	release := make(chan struct{})

	r := gin.New()
	r.GET("/slow", cl.Middleware(), func(c *gin.Context) {
		close(entered)
		<-release
		c.Status(http.StatusOK)
	})
	r.GET("/wait", cl.MiddlewareWithBlock(20*time.Millisecond), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	var wg sync.WaitGroup
	wg.Add(1)
	var slow *httptest.ResponseRecorder
	go func() {
		defer wg.Done()
		slow = perform(r, http.MethodGet, "/slow", nil)
	}()
	<-entered

	assert.Equal(t, http.StatusServiceUnavailable, perform(r, http.MethodGet, "/slow", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, perform(r, http.MethodGet, "/wait", nil).Code)
	assert.Equal(t, int64(2), cl.Rejected())

	close(release)
	wg.Wait()
	assert.Equal(t, http.StatusOK, slow.Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/wait", nil).Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := perform(r, http.MethodGet, "/", nil)
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	w = perform(r, http.MethodGet, "/", map[string]string{RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestMetrics(t *testing.T) {
	ResetMetrics()
	defer ResetMetrics()

	r := gin.New()
	r.Use(Metrics())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	perform(r, http.MethodGet, "/ok", nil)
	perform(r, http.MethodGet, "/bad", nil)
	perform(r, http.MethodGet, "/boom", nil)

	m := GetMetrics()
	assert.Equal(t, int64(3), m["request_count"])
	assert.Equal(t, int64(1), m["client_errors"])
	assert.Equal(t, int64(1), m["server_errors"])
}
