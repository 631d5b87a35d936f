package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pdfmark/internal/modules/files"
	"pdfmark/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the admin view. The group must already run JWTAuth
// and RequireAdmin.
func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("/files", h.ListAll)
	admin.GET("/files/edited", h.ListEdited)

	// statistics
	admin.GET("/stats", h.GetStats)
}

// ListAll returns every file record, oldest first.
// @Summary		All files
// @Tags		Admin
// @Security	BearerAuth
// @Success		200	{object}		map[string]interface{} "File records"
// @Failure		403	{object}		map[string]interface{} "Admin only"
// @Router		/admin/files [GET]
func (h *Handler) ListAll(c *gin.Context) {
	recs, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"files": files.ToFileResponses(recs)})
}

// ListEdited returns every edited file record.
// @Summary		All edited files
// @Tags		Admin
// @Security	BearerAuth
// @Success		200	{object}		map[string]interface{} "File records"
// @Failure		403	{object}		map[string]interface{} "Admin only"
// @Router		/admin/files/edited [GET]
func (h *Handler) ListEdited(c *gin.Context) {
	recs, err := h.service.ListEdited(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"files": files.ToFileResponses(recs)})
}

// GetStats returns platform counters.
// @Summary		Statistics
// @Tags		Admin
// @Security	BearerAuth
// @Success		200	{object}		map[string]interface{} "Counters"
// @Router		/admin/stats [GET]
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStatistics(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}
