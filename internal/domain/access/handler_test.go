package access

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultshare/internal/domain/auth"
	"vaultshare/internal/domain/file"
	"vaultshare/internal/middleware"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fx := newFixture(t)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User-ID"); id != "" {
			v, _ := strconv.ParseInt(id, 10, 64)
			c.Set(middleware.ContextUserID, v)
		}
		c.Next()
	})
	h := NewHandler(fx.svc, "http://app.test")
	v1 := r.Group("/api/v1")
	h.RegisterPublicRoutes(v1)
	h.RegisterProtectedRoutes(v1)
	return r, fx
}

func doJSON(r http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env
}

func TestHandlerValidate(t *testing.T) {
	r, fx := setupTestRouter(t)
	hash, err := auth.HashPassword("letmein123")
	require.NoError(t, err)
	f := fx.seed(t, func(f *file.File) { f.PasswordHash = &hash })

	rr := doJSON(r, http.MethodPost, "/api/v1/access/validate", gin.H{"token": f.AccessToken}, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "PASSWORD_REQUIRED", decode(t, rr).Error.Code)

	rr = doJSON(r, http.MethodPost, "/api/v1/access/validate", gin.H{"token": f.AccessToken, "password": "letmein123"}, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var data ValidateResponse
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &data))
	assert.True(t, data.Valid)
	assert.Equal(t, "report.pdf", data.File.Filename)

	rr = doJSON(r, http.MethodPost, "/api/v1/access/validate", gin.H{"token": "unknown"}, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rr).Error.Code)

	rr = doJSON(r, http.MethodPost, "/api/v1/access/validate", gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerViewAndDownloadLinks(t *testing.T) {
	r, fx := setupTestRouter(t)
	f := fx.seed(t, nil)

	rr := doJSON(r, http.MethodPost, "/api/v1/access/download", gin.H{"token": f.AccessToken}, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var link ServeLink
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &link))
	assert.Equal(t, "/api/v1/access/serve/"+f.AccessToken+"?download=true", link.URL)
	assert.True(t, link.Download)

	rr = doJSON(r, http.MethodPost, "/api/v1/access/view", gin.H{"token": f.AccessToken}, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &link))
	assert.Equal(t, "/api/v1/access/serve/"+f.AccessToken, link.URL)

	assert.Equal(t, 0, fx.reload(t, f.ID).CurrentViews)
}

func TestHandlerServeInline(t *testing.T) {
	r, fx := setupTestRouter(t)
	f := fx.seed(t, nil)

	rr := doJSON(r, http.MethodGet, "/api/v1/access/serve/"+f.AccessToken, nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "hello", rr.Body.String())
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Equal(t, "inline; filename=report.pdf", rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "frame-ancestors 'self' http://app.test", rr.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rr.Header().Get("Cache-Control"), "no-store")
	assert.Equal(t, 1, fx.reload(t, f.ID).CurrentViews)
}

func TestHandlerServeDownloadAndPassword(t *testing.T) {
	r, fx := setupTestRouter(t)
	hash, err := auth.HashPassword("letmein123")
	require.NoError(t, err)
	f := fx.seed(t, func(f *file.File) { f.PasswordHash = &hash })

	rr := doJSON(r, http.MethodGet, "/api/v1/access/serve/"+f.AccessToken+"?download=true", nil, map[string]string{passwordHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "WRONG_PASSWORD", decode(t, rr).Error.Code)

	rr = doJSON(r, http.MethodGet, "/api/v1/access/serve/"+f.AccessToken+"?download=true&password=letmein123", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "attachment; filename=report.pdf", rr.Header().Get("Content-Disposition"))
	assert.Empty(t, rr.Header().Get("Content-Security-Policy"))
}

func TestHandlerServeDenials(t *testing.T) {
	r, fx := setupTestRouter(t)
	gone := fx.seed(t, func(f *file.File) { f.IsDeleted = true })
	limited := fx.seed(t, func(f *file.File) { f.CurrentViews = f.MaxViews })
	signin := fx.seed(t, func(f *file.File) { f.RequireSignin = true })

	tests := []struct {
		token  string
		header map[string]string
		status int
		code   string
	}{
		{gone.AccessToken, nil, http.StatusGone, "DELETED"},
		{limited.AccessToken, nil, http.StatusForbidden, "VIEW_LIMIT"},
		{signin.AccessToken, nil, http.StatusUnauthorized, "SIGNIN_REQUIRED"},
		{signin.AccessToken, map[string]string{"X-Test-User-ID": "5"}, http.StatusOK, ""},
	}
	for _, tt := range tests {
		rr := doJSON(r, http.MethodGet, "/api/v1/access/serve/"+tt.token, nil, tt.header)
		assert.Equal(t, tt.status, rr.Code, tt.code)
		if tt.code != "" {
			assert.Equal(t, tt.code, decode(t, rr).Error.Code)
		}
	}
}

func TestHandlerServeSuspiciousAgentStillOneEntry(t *testing.T) {
	r, fx := setupTestRouter(t)
	f := fx.seed(t, nil)

	rr := doJSON(r, http.MethodGet, "/api/v1/access/serve/"+f.AccessToken, nil, map[string]string{"User-Agent": "HeadlessChrome/120"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, fx.logCount(t, f.ID))
}

func TestHandlerReport(t *testing.T) {
	r, fx := setupTestRouter(t)
	f := fx.seed(t, nil)

	rr := doJSON(r, http.MethodPost, "/api/v1/access/report", gin.H{"token": f.AccessToken}, nil)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	rr = doJSON(r, http.MethodPost, "/api/v1/access/report", gin.H{"token": "missing"}, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, 1, fx.logCount(t, f.ID))
}

func TestHandlerAccessLogs(t *testing.T) {
	r, fx := setupTestRouter(t)
	f := fx.seed(t, nil)
	fx.serve(t, f.AccessToken, Anonymous("1.1.1.1"))

	owner := map[string]string{"X-Test-User-ID": strconv.FormatInt(f.UserID, 10)}
	rr := doJSON(r, http.MethodGet, "/api/v1/files/"+f.ID+"/access-logs?grouped=true", nil, owner)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var res LogsResult
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &res))
	assert.True(t, res.Grouped)
	require.Len(t, res.Sessions, 1)
	assert.True(t, res.Sessions[0].Viewed)

	rr = doJSON(r, http.MethodGet, "/api/v1/files/"+f.ID+"/access-logs", nil, map[string]string{"X-Test-User-ID": "77"})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
