package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		allowed     []string
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantOrigin  string
		wantCreds   string
		wantMethods bool
	}{
		{name: "listed origin", allowed: []string{"https://app.example.com/"}, method: http.MethodGet, origin: "https://app.example.com", wantStatus: http.StatusOK, wantOrigin: "https://app.example.com", wantCreds: "true"},
		{name: "unlisted origin", allowed: []string{"https://app.example.com"}, method: http.MethodGet, origin: "https://evil.example.com", wantStatus: http.StatusOK},
		{name: "wildcard", allowed: []string{"*"}, method: http.MethodGet, origin: "https://any.example.com", wantStatus: http.StatusOK, wantOrigin: "https://any.example.com"},
		{name: "preflight", allowed: []string{"https://app.example.com"}, method: http.MethodOptions, origin: "https://app.example.com", preflight: true, wantStatus: http.StatusNoContent, wantOrigin: "https://app.example.com", wantCreds: "true", wantMethods: true},
		{name: "preflight unlisted", allowed: nil, method: http.MethodOptions, origin: "https://app.example.com", preflight: true, wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "http://test/events/ev-1", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rr := httptest.NewRecorder()

			CORS(tt.allowed, next).ServeHTTP(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCreds, rr.Header().Get("Access-Control-Allow-Credentials"))
			assert.Equal(t, tt.wantMethods, rr.Header().Get("Access-Control-Allow-Methods") != "")
		})
	}
}
