package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestOriginAllowList(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)
	r := CreateServer([]string{"http://localhost:3000", "https://quiz.example"})

	r.GET("/rooms", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "rooms")
	})

	tests := []struct {
		name           string
		path           string
		origin         string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "health check is public",
			path:           "/health",
			expectedStatus: http.StatusOK,
			expectedBody:   "healthy",
		},
		{
			name:           "allowed origin passes",
			path:           "/rooms",
			origin:         "https://quiz.example",
			expectedStatus: http.StatusOK,
			expectedBody:   "rooms",
		},
		{
			name:           "unknown origin is forbidden",
			path:           "/rooms",
			origin:         "http://evil.com",
			expectedStatus: http.StatusForbidden,
			expectedBody:   "forbidden origin",
		},
		{
			name:           "missing origin is forbidden",
			path:           "/rooms",
			expectedStatus: http.StatusForbidden,
			expectedBody:   "forbidden origin",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.origin != "" {
				req.Header.Add("Origin", tc.origin)
			}
			res := httptest.NewRecorder()

			r.ServeHTTP(res, req)

			assert.Equal(t, tc.expectedStatus, res.Code)
			assert.Equal(t, tc.expectedBody, res.Body.String())
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		method      string
		reqHeaders  map[string]string
		wantCode    int
		wantHeaders map[string]string
	}{
		{
			name:   "preflight for an admin delete",
			method: http.MethodOptions,
			reqHeaders: map[string]string{
				"Origin":                        "http://localhost:3000",
				"Access-Control-Request-Method": "DELETE",
			},
			wantCode: http.StatusNoContent,
			wantHeaders: map[string]string{
				"Access-Control-Allow-Origin":      "http://localhost:3000",
				"Access-Control-Allow-Credentials": "true",
			},
		},
		{
			name:   "preflight from a foreign origin",
			method: http.MethodOptions,
			reqHeaders: map[string]string{
				"Origin":                        "http://evil.com",
				"Access-Control-Request-Method": "DELETE",
			},
			wantCode: http.StatusForbidden,
			wantHeaders: map[string]string{
				"Access-Control-Allow-Origin": "",
			},
		},
		{
			name:   "websocket upgrade from an allowed origin reaches the route",
			method: http.MethodGet,
			reqHeaders: map[string]string{
				"Origin":                "http://localhost:3000",
				"Connection":            "Upgrade",
				"Upgrade":               "websocket",
				"Sec-WebSocket-Version": "13",
				"Sec-WebSocket-Key":     "dGhlIHNhbXBsZSBub25jZQ==",
			},
			wantCode: http.StatusSwitchingProtocols,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := CreateServer([]string{"http://localhost:3000"})
			r.GET("/ws", func(c *gin.Context) { c.Status(http.StatusSwitchingProtocols) })
			r.DELETE("/ws", func(c *gin.Context) { c.Status(http.StatusNoContent) })

			req := httptest.NewRequest(tc.method, "/ws", nil)
			for k, v := range tc.reqHeaders {
				req.Header.Set(k, v)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.wantCode, w.Code)
			for k, v := range tc.wantHeaders {
				assert.Equal(t, v, w.Header().Get(k), "header %s", k)
			}
		})
	}
}
