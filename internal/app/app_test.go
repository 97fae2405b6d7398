package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/canteen/internal/client"
	"github.com/xenking/canteen/internal/session"
	"github.com/xenking/canteen/pkg/health"
	"github.com/xenking/canteen/pkg/requestid"
)

type noopTelemetry struct{}

func (noopTelemetry) TracerProvider() trace.TracerProvider { return tracenoop.NewTracerProvider() }
func (noopTelemetry) MeterProvider() metric.MeterProvider  { return metricnoop.NewMeterProvider() }

const burgerJSON = `{"id":1,"name":"Burger","category":"Mains","image_url":null,"tags":null,"rating":4,"is_available":true}`

// newTestServer runs the full middleware chain against a stub backend that
// only knows dish 1.
func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/dishes/1" {
			_, _ = io.WriteString(w, burgerJSON)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Not Found"}`)
	}))
	t.Cleanup(backend.Close)

	api, err := client.New(backend.URL + "/api")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(zctx.Base(context.Background(), zap.NewNop()))
	t.Cleanup(cancel)

	healthSvc := health.New()
	healthSvc.SetReady(true)
	srv := httptest.NewServer(newHandler(ctx, &cfg, api, session.NewStore(time.Hour), healthSvc, noopTelemetry{}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig() Config {
	return Config{
		Session:   SessionConfig{CookieName: "canteen_session"},
		RateLimit: RateLimitConfig{Max: 100, Window: time.Minute},
		CORS:      CORSConfig{Origins: []string{"*"}, AllowCredentials: true},
	}
}

func send(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func newRequest(t *testing.T, method, url, body string) *http.Request {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(t.Context(), method, url, rd)
	require.NoError(t, err)
	return req
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t, testConfig())

	resp, body := send(t, newRequest(t, http.MethodGet, srv.URL+"/livez", ""))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, _ = send(t, newRequest(t, http.MethodGet, srv.URL+"/readyz", ""))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_RequestIDEchoed(t *testing.T) {
	srv := newTestServer(t, testConfig())

	req := newRequest(t, http.MethodGet, srv.URL+"/livez", "")
	req.Header.Set("X-Request-ID", "custom-request-id-12345")
	resp, _ := send(t, req)
	assert.Equal(t, "custom-request-id-12345", resp.Header.Get("X-Request-ID"))
}

func TestServer_CORSPreflight(t *testing.T) {
	srv := newTestServer(t, testConfig())

	req := newRequest(t, http.MethodOptions, srv.URL+"/api/cart/items", "")
	req.Header.Set("Origin", "http://menu.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, _ := send(t, req)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://menu.example", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestServer_CartFlow(t *testing.T) {
	srv := newTestServer(t, testConfig())

	resp, body := send(t, newRequest(t, http.MethodPost, srv.URL+"/api/cart/items", `{"dish_id":1}`))
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "canteen_session", cookies[0].Name)

	req := newRequest(t, http.MethodPost, srv.URL+"/api/cart/items", `{"dish_id":1}`)
	req.AddCookie(cookies[0])
	resp, body = send(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"total_items":2`)

	req = newRequest(t, http.MethodPost, srv.URL+"/api/cart/items", `{"dish_id":2}`)
	req.AddCookie(cookies[0])
	resp, body = send(t, req)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"code":404,"message":"Not Found"}`, body)
}

func TestServer_RateLimitPerSession(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Max = 2
	srv := newTestServer(t, cfg)

	resp, _ := send(t, newRequest(t, http.MethodGet, srv.URL+"/api/cart", ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookie := resp.Cookies()[0]

	for range 3 {
		req := newRequest(t, http.MethodGet, srv.URL+"/api/cart", "")
		req.AddCookie(cookie)
		resp, _ = send(t, req)
	}
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(requestid.Header), "rejected requests carry a request ID")

	// Made-up cookies share the address budget, which the first request
	// already spent half of.
	var codes []int
	for i := range 2 {
		req := newRequest(t, http.MethodGet, srv.URL+"/api/cart", "")
		req.AddCookie(&http.Cookie{Name: "canteen_session", Value: fmt.Sprintf("rotated-%d", i)})
		resp, _ = send(t, req)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestSessionKey(t *testing.T) {
	store := session.NewStore(time.Hour)
	live := store.Create()
	key := sessionKey("canteen_session", store)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "ip:10.0.0.1", key(req))

	req.AddCookie(&http.Cookie{Name: "canteen_session", Value: live.ID})
	assert.Equal(t, "session:"+live.ID, key(req))

	unknown := httptest.NewRequest(http.MethodGet, "/", nil)
	unknown.RemoteAddr = "10.0.0.3:1"
	unknown.AddCookie(&http.Cookie{Name: "canteen_session", Value: "abc"})
	assert.Equal(t, "ip:10.0.0.3", key(unknown))

	empty := httptest.NewRequest(http.MethodGet, "/", nil)
	empty.RemoteAddr = "10.0.0.2:1"
	empty.AddCookie(&http.Cookie{Name: "canteen_session", Value: ""})
	assert.Equal(t, "ip:10.0.0.2", key(empty))
}
