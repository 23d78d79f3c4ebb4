package access

import (
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"vaultshare/internal/metrics"
	"vaultshare/internal/middleware"
	"vaultshare/internal/pkg/response"
)

const passwordHeader = "X-Access-Password"

var suspiciousAgents = []string{"headless", "phantom", "selenium", "puppeteer", "playwright"}

// Handler is the delivery layer for share links and the owner's log view.
type Handler struct {
	service     *Service
	frontendURL string
}

func NewHandler(service *Service, frontendURL string) *Handler {
	return &Handler{service: service, frontendURL: strings.TrimRight(frontendURL, "/")}
}

// Validate godoc
// @Summary Check a share link without consuming a view
// @Tags Access
// @Param body body AccessRequest true "token and optional password"
// @Success 200 {object} ValidateResponse
// @Failure 401,403,404,410 {object} response.Envelope
// @Router /access/validate [post]
func (h *Handler) Validate(c *gin.Context) {
	var req AccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Token is required")
		return
	}

	res, err := h.service.ValidateAccess(c.Request.Context(), h.request(c, req.Token, req.Password, false))
	if err != nil {
		writeError(c, err)
		return
	}
	if !res.Allowed {
		writeDenial(c, res.Reason)
		return
	}
	response.Success(c, http.StatusOK, ValidateResponse{Valid: true, File: NewFileInfo(res.File)})
}

// View godoc
// @Summary Validate and return the inline serve URL
// @Tags Access
// @Router /access/view [post]
func (h *Handler) View(c *gin.Context) {
	h.link(c, false)
}

// Download godoc
// @Summary Validate and return the download URL
// @Tags Access
// @Router /access/download [post]
func (h *Handler) Download(c *gin.Context) {
	h.link(c, true)
}

func (h *Handler) link(c *gin.Context, download bool) {
	var req AccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Token is required")
		return
	}

	res, err := h.service.ValidateAccess(c.Request.Context(), h.request(c, req.Token, req.Password, download))
	if err != nil {
		writeError(c, err)
		return
	}
	if !res.Allowed {
		writeDenial(c, res.Reason)
		return
	}

	u := "/api/v1/access/serve/" + url.PathEscape(req.Token)
	if download {
		u += "?download=true"
	}
	response.Success(c, http.StatusOK, ServeLink{URL: u, Download: download, File: NewFileInfo(res.File)})
}

// Serve godoc
// @Summary Stream file content
// @Description Counts a view when the request opens a new session. Password via X-Access-Password header or password query.
// @Tags Access
// @Param token path string true "Access token"
// @Param download query bool false "attachment instead of inline"
// @Router /access/serve/{token} [get]
func (h *Handler) Serve(c *gin.Context) {
	var password *string
	if p := c.GetHeader(passwordHeader); p != "" {
		password = &p
	} else if p, ok := c.GetQuery("password"); ok {
		password = &p
	}
	download := c.Query("download") == "true"

	req := h.request(c, c.Param("token"), password, download)
	if isSuspiciousAgent(req.UserAgent) {
		metrics.ScreenshotAttempts.Inc()
		log.Printf("suspicious_user_agent token_prefix=%s identity=%s user_agent=%q", prefix(req.Token), req.Identity.Key(), req.UserAgent)
	}

	res, err := h.service.ServeDecision(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	if !res.Allowed {
		writeDenial(c, res.Reason)
		return
	}

	f := res.File
	if download {
		c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.OriginalFilename}))
	} else {
		c.Header("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": f.OriginalFilename}))
		c.Header("Content-Security-Policy", strings.TrimSpace("frame-ancestors 'self' "+h.frontendURL))
		c.Header("X-Frame-Options", "SAMEORIGIN")
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate, private")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
	}
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, f.ContentType, res.Content)
}

// Report godoc
// @Summary Report a screenshot attempt seen by the viewer
// @Tags Access
// @Param body body ReportRequest true "token"
// @Router /access/report [post]
func (h *Handler) Report(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Token is required")
		return
	}

	r := h.request(c, req.Token, nil, false)
	if err := h.service.ReportScreenshot(c.Request.Context(), req.Token, r.Identity, Meta{ClientIP: r.ClientIP, UserAgent: r.UserAgent}); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"recorded": true})
}

// AccessLogs godoc
// @Summary Access log of one of the caller's files
// @Tags Access
// @Security BearerAuth
// @Param id path string true "File ID"
// @Param grouped query bool false "merge entries into sessions"
// @Success 200 {object} LogsResult
// @Router /files/{id}/access-logs [get]
func (h *Handler) AccessLogs(c *gin.Context) {
	grouped := c.Query("grouped") == "true"
	res, err := h.service.AccessLogs(c.Request.Context(), middleware.UserID(c), c.Param("id"), grouped)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) request(c *gin.Context, token string, password *string, download bool) Request {
	return Request{
		Token:     token,
		Identity:  IdentityFor(middleware.UserID(c), c.ClientIP()),
		Password:  password,
		ClientIP:  c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
		Download:  download,
	}
}

func writeDenial(c *gin.Context, reason Reason) {
	response.Error(c, StatusFor(reason), strings.ToUpper(string(reason)), reason.Message())
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeDenial(c, ReasonNotFound)
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You don't own this file")
	case errors.Is(err, ErrUnavailable):
		_ = c.Error(err)
		writeDenial(c, ReasonUnavailable)
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Request failed")
	}
}

func isSuspiciousAgent(ua string) bool {
	ua = strings.ToLower(ua)
	for _, s := range suspiciousAgents {
		if strings.Contains(ua, s) {
			return true
		}
	}
	return false
}

func prefix(token string) string {
	if len(token) <= 6 {
		return token
	}
	return fmt.Sprintf("%s...", token[:6])
}
