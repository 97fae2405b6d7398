package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xenking/canteen/pkg/requestid"
)

func corsRequest(h http.Handler, method, origin string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/cart", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCORS_AnyOrigin(t *testing.T) {
	h := CORS(CORSConfig{})(okHandler())

	w := corsRequest(h, http.MethodGet, "https://menu.example", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Values("Vary"))

	w = corsRequest(h, http.MethodGet, "", nil)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Credentials(t *testing.T) {
	h := CORS(CORSConfig{AllowOrigins: []string{"*"}, AllowCredentials: true})(okHandler())

	w := corsRequest(h, http.MethodGet, "https://menu.example", nil)
	assert.Equal(t, "https://menu.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Values("Vary"), "Origin")
}

func TestCORS_AllowList(t *testing.T) {
	h := CORS(CORSConfig{
		AllowOrigins:  []string{"https://Menu.example"},
		ExposeHeaders: []string{requestid.Header},
	})(okHandler())

	w := corsRequest(h, http.MethodGet, "https://menu.example", nil)
	assert.Equal(t, "https://Menu.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, requestid.Header, w.Header().Get("Access-Control-Expose-Headers"))

	w = corsRequest(h, http.MethodGet, "https://evil.example", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS(CORSConfig{MaxAge: 600})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))

	w := corsRequest(h, http.MethodOptions, "https://menu.example", map[string]string{
		"Access-Control-Request-Method":  "PATCH",
		"Access-Control-Request-Headers": "Content-Type",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PUT, PATCH, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_PreflightRejectedOrigin(t *testing.T) {
	h := CORS(CORSConfig{AllowOrigins: []string{"https://menu.example"}})(okHandler())

	w := corsRequest(h, http.MethodOptions, "https://evil.example", map[string]string{
		"Access-Control-Request-Method": "DELETE",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))
}
