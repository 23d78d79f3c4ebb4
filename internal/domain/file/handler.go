package file

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vaultshare/internal/middleware"
	"vaultshare/internal/pkg/response"
	"vaultshare/internal/pkg/validator"
)

// Handler serves the owner-side file endpoints. Every route requires JWT auth.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Upload godoc
// @Summary Upload a file
// @Description Multipart upload with access policy options. Returns the file and its share link.
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File to upload"
// @Success 201 {object} FileResponse
// @Failure 400,401,413,500 {object} response.Envelope
// @Router /files [post]
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "NO_FILE", "No file provided")
		return
	}
	maxSize := h.service.MaxFileSize()
	if maxSize > 0 && fileHeader.Size > maxSize {
		response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds the maximum upload size")
		return
	}

	var opts UploadOptions
	if err := c.ShouldBind(&opts); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid upload options")
		return
	}
	if fields := validator.Validate(opts); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid upload options", fields)
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusBadRequest, "NO_FILE", "Could not read uploaded file")
		return
	}
	defer src.Close()

	reader := io.Reader(src)
	if maxSize > 0 {
		reader = io.LimitReader(src, maxSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusBadRequest, "NO_FILE", "Could not read uploaded file")
		return
	}

	f, err := h.service.Upload(c.Request.Context(), middleware.UserID(c), UploadInput{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
		Options:     opts,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, NewFileResponse(f, h.service.AccessURL(f), time.Now()))
}

// List godoc
// @Summary List the caller's files
// @Tags Files
// @Security BearerAuth
// @Success 200 {object} []FileResponse
// @Router /files [get]
func (h *Handler) List(c *gin.Context) {
	files, err := h.service.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	now := time.Now()
	items := make([]FileResponse, len(files))
	for i := range files {
		items[i] = NewFileResponse(&files[i], h.service.AccessURL(&files[i]), now)
	}
	response.Success(c, http.StatusOK, gin.H{"files": items, "total": len(items)})
}

// Get godoc
// @Summary Get one of the caller's files
// @Tags Files
// @Security BearerAuth
// @Param id path string true "File ID"
// @Success 200 {object} FileResponse
// @Router /files/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	f, err := h.service.GetOwned(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewFileResponse(f, h.service.AccessURL(f), time.Now()))
}

// Update godoc
// @Summary Toggle is_active / disable_download
// @Tags Files
// @Security BearerAuth
// @Param id path string true "File ID"
// @Param body body UpdateRequest true "fields to change"
// @Success 200 {object} FileResponse
// @Router /files/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	f, err := h.service.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewFileResponse(f, h.service.AccessURL(f), time.Now()))
}

// Delete godoc
// @Summary Delete a file
// @Tags Files
// @Security BearerAuth
// @Param id path string true "File ID"
// @Success 200 {object} response.Envelope
// @Router /files/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "deleted"})
}

// CreateShare godoc
// @Summary Record a share and notify the recipient
// @Tags Files
// @Security BearerAuth
// @Param id path string true "File ID"
// @Param body body ShareRequest true "share"
// @Success 201 {object} ShareResult
// @Router /files/{id}/shares [post]
func (h *Handler) CreateShare(c *gin.Context) {
	var req ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid share request", fields)
		return
	}

	result, err := h.service.Share(c.Request.Context(), middleware.UserID(c), c.GetString(middleware.ContextEmail), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}

// ListShares godoc
// @Summary List shares of a file
// @Tags Files
// @Security BearerAuth
// @Param id path string true "File ID"
// @Success 200 {object} []FileShare
// @Router /files/{id}/shares [get]
func (h *Handler) ListShares(c *gin.Context) {
	shares, err := h.service.Shares(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"shares": shares})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrFileNotFound):
		response.Error(c, http.StatusNotFound, "FILE_NOT_FOUND", "File not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You don't own this file")
	case errors.Is(err, ErrAlreadyDeleted):
		response.Error(c, http.StatusGone, "FILE_DELETED", "File already deleted")
	case errors.Is(err, ErrEmptyFile):
		response.Error(c, http.StatusBadRequest, "EMPTY_FILE", "File is empty")
	case errors.Is(err, ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds the maximum upload size")
	case errors.Is(err, ErrQuotaExceeded):
		response.Error(c, http.StatusInsufficientStorage, "QUOTA_EXCEEDED", "Storage quota exceeded")
	case errors.Is(err, ErrInvalidOptions), errors.Is(err, ErrInvalidShare):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Request failed")
	}
}
