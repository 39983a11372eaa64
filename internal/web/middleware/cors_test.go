package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func corsHandler(origins []string) http.Handler {
	return CORS(origins)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCORS_OriginWhitelist(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		origin     string
		wantEchoed bool
	}{
		{"configured origin", []string{"https://clockin.example.com"}, "https://clockin.example.com", true},
		{"unknown origin", []string{"https://clockin.example.com"}, "https://evil.example.com", false},
		{"localhost always allowed", nil, "http://localhost:5173", true},
		{"no origin header", []string{"https://clockin.example.com"}, "", false},
		{"whitespace in config", []string{" https://clockin.example.com "}, "https://clockin.example.com", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rec := httptest.NewRecorder()
			corsHandler(tc.origins).ServeHTTP(rec, req)

			got := rec.Header().Get("Access-Control-Allow-Origin")
			if tc.wantEchoed && got != tc.origin {
				t.Errorf("Allow-Origin = %q, want %q", got, tc.origin)
			}
			if !tc.wantEchoed && got != "" {
				t.Errorf("Allow-Origin = %q for disallowed origin", got)
			}
			if tc.wantEchoed && rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
				t.Error("Allow-Credentials not set for allowed origin")
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/attendance", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()

	handlerRan := false
	CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if handlerRan {
		t.Error("preflight request reached the inner handler")
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("Allow-Methods missing on preflight response")
	}
}
