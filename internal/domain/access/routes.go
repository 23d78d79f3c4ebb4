package access

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes expects the group to run OptionalAuth so signed-in
// visitors are accounted by user id.
func (h *Handler) RegisterPublicRoutes(public *gin.RouterGroup) {
	a := public.Group("/access")
	{
		a.POST("/validate", h.Validate)
		a.POST("/view", h.View)
		a.POST("/download", h.Download)
		a.GET("/serve/:token", h.Serve)
		a.POST("/report", h.Report)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.GET("/files/:id/access-logs", h.AccessLogs)
}
