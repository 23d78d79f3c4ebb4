package file

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
			c.Set(middleware.ContextEmail, "owner@example.com")
		}
		c.Next()
	})
	NewHandler(fx.svc).RegisterRoutes(r.Group("/api/v1"))
	return r, fx
}

func multipartUpload(t *testing.T, fields map[string]string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func TestHandlerUploadAndManage(t *testing.T) {
	r, _ := setupTestRouter(t)

	body, ct := multipartUpload(t, map[string]string{"max_views": "3", "require_signin": "true", "password": "pw123456"}, []byte("hello world"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-Test-User-ID", "1")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created struct {
		Data struct {
			ID           string `json:"id"`
			MaxViews     int    `json:"max_views"`
			RequireSign  bool   `json:"require_signin"`
			HasPassword  bool   `json:"has_password"`
			AccessURL    string `json:"access_url"`
			PasswordHash string `json:"password_hash"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, 3, created.Data.MaxViews)
	assert.True(t, created.Data.RequireSign)
	assert.True(t, created.Data.HasPassword)
	assert.Empty(t, created.Data.PasswordHash)
	assert.Contains(t, created.Data.AccessURL, "http://share.test/access/")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/files/"+created.Data.ID, nil)
	req.Header.Set("X-Test-User-ID", "2")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	patch, _ := json.Marshal(gin.H{"disable_download": true})
	req = httptest.NewRequest(http.MethodPatch, "/api/v1/files/"+created.Data.ID, bytes.NewReader(patch))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User-ID", "1")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"disable_download":true`)

	share, _ := json.Marshal(gin.H{"method": "email"})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/files/"+created.Data.ID+"/shares", bytes.NewReader(share))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User-ID", "1")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/files/"+created.Data.ID, nil)
	req.Header.Set("X-Test-User-ID", "1")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/files", nil)
	req.Header.Set("X-Test-User-ID", "1")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"total":0`)
}

func TestHandlerUploadRejectsBadOptions(t *testing.T) {
	r, _ := setupTestRouter(t)

	body, ct := multipartUpload(t, map[string]string{"expiry_hours": "1000"}, []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-Test-User-ID", "1")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "VALIDATION_ERROR")

	req = httptest.NewRequest(http.MethodPost, "/api/v1/files", nil)
	req.Header.Set("X-Test-User-ID", "1")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "NO_FILE")
}
