package errorx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/i18n"
	apperr "github.com/amoylab/taskflow/pkg/errors"
)

func TestFromError_Statuses(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{apperr.ErrUnauthenticated, http.StatusUnauthorized, "E2001"},
		{apperr.Forbidden("admin role required"), http.StatusForbidden, "E3001"},
		{apperr.NotFound("task", "T000001"), http.StatusNotFound, "E4001"},
		{apperr.UnknownAssignees([]uint{3, 1}), http.StatusBadRequest, "E1001"},
		{apperr.Conflict("user"), http.StatusConflict, "E4002"},
		{apperr.ErrAllocationExhausted, http.StatusInternalServerError, "E5002"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "E5001"},
		{fmt.Errorf("wrapped: %w", apperr.NotFound("company", "x")), http.StatusNotFound, "E4001"},
	}
	for _, tt := range tests {
		t.Run(tt.code+" "+tt.err.Error(), func(t *testing.T) {
			apiErr := FromError(tt.err)
			assert.Equal(t, tt.status, apiErr.HTTPStatus)
			assert.Equal(t, tt.code, apiErr.Code)
		})
	}
}

func TestFromError_HidesInternalCause(t *testing.T) {
	apiErr := FromError(errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	assert.Empty(t, apiErr.Reason)
	assert.Nil(t, apiErr.Details)

	apiErr = FromError(apperr.UnknownAssignees([]uint{9, 2}))
	assert.Equal(t, []uint{2, 9}, apiErr.Details["missing_user_ids"])
	assert.Contains(t, apiErr.Reason, "unknown user ids")
}

func newRouter(t *testing.T, logger *zap.Logger) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zh.toml"), []byte(`[ErrorNotFound]
other = "未找到{{.resource}}"
`), 0644))
	tr, err := i18n.Load(dir)
	require.NoError(t, err)

	h := NewErrorHandler(logger)
	r := gin.New()
	r.Use(h.RecoveryMiddleware(), tr.Middleware(), h.ErrorMiddleware())
	r.GET("/missing", func(c *gin.Context) {
		_ = c.Error(apperr.NotFound("task", "T000404"))
	})
	r.GET("/direct", func(c *gin.Context) {
		h.HandleError(c, apperr.ErrForbidden)
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body struct {
		Error map[string]any `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestErrorMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newRouter(t, zap.New(core))

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(cnst.XLang, "zh")
	req.Header.Set("X-Trace-Id", "trace-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, "未找到task", body["message"])
	assert.Equal(t, "task not found", body["reason"])
	assert.Equal(t, "not_found", body["kind"])
	assert.Equal(t, "trace-1", body["trace_id"])
	assert.NotEmpty(t, body["timestamp"])
	assert.Equal(t, 1, logs.FilterMessage("request rejected").Len())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/direct", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	body = decode(t, w)
	assert.Equal(t, "You are not allowed to do this", body["message"])
	assert.NotEmpty(t, body["trace_id"])
	assert.Equal(t, 1, logs.FilterMessage("request denied").Len())
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newRouter(t, zap.New(core))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "E5000", body["code"])
	assert.Equal(t, "Internal server error", body["message"])
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestMalformed(t *testing.T) {
	apiErr := Malformed(errors.New("EOF"))
	assert.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus)
	assert.Equal(t, "E1002", apiErr.Code)
	assert.Equal(t, "EOF", apiErr.Reason)

	localized := Localize(apiErr, nil, "en")
	assert.Equal(t, "The request is invalid", localized.Message)
	assert.Equal(t, "ErrorMalformedRequest", apiErr.Message, "Localize does not mutate its input")
}
