package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fuelflow/fuelflow/pkg/logctx"
	"github.com/fuelflow/fuelflow/pkg/response"
)

func init() { gin.SetMode(gin.TestMode) }

var nopLog = zap.NewNop().Sugar()

// asUser pretends SessionMiddleware resolved email.
func asUser(email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if email != "" {
			c.Set(logctx.KeyUserEmail, email)
		}
		c.Next()
	}
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) *response.APIResponse[T] {
	t.Helper()
	var out response.APIResponse[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return &out
}
