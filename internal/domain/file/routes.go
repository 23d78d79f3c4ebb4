package file

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	files := protected.Group("/files")
	{
		files.POST("", h.Upload)
		files.GET("", h.List)
		files.GET("/:id", h.Get)
		files.PATCH("/:id", h.Update)
		files.DELETE("/:id", h.Delete)
		files.POST("/:id/shares", h.CreateShare)
		files.GET("/:id/shares", h.ListShares)
	}
}
