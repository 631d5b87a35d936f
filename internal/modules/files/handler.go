package files

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pdfmark/internal/domain"
	"pdfmark/internal/middleware"
	"pdfmark/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.GET("/dashboard", h.Dashboard)

	files := protected.Group("/files")
	{
		files.POST("", h.Upload)
		files.GET("", h.List)
		files.GET("/edited", h.ListEdited)
		files.GET("/:id", h.Get)
		files.GET("/:id/raw", h.Raw)
		files.GET("/:id/edited/raw", h.EditedRaw)
		files.POST("/:id/edit", h.Edit)
	}
}

// Upload accepts a PDF as multipart field "file".
// @Summary		Upload a PDF
// @Tags		Files
// @Security	BearerAuth
// @Accept		multipart/form-data
// @Param		file	formData	file	true	"PDF document"
// @Success		201	{object}		map[string]interface{} "Created file record"
// @Failure		400	{object}		map[string]interface{} "Missing file, not a PDF or too large"
// @Failure		502	{object}		map[string]interface{} "Blob storage failed"
// @Router		/files [POST]
func (h *Handler) Upload(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	limit := h.service.MaxUploadBytes()
	// Leave room for the multipart envelope around the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+1<<20)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "File is too large")
			return
		}
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Missing multipart field 'file'")
		return
	}
	if fileHeader.Size > limit {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "File is too large")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Failed to read uploaded file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Failed to read uploaded file")
		return
	}

	rec, err := h.service.Upload(c.Request.Context(), id, fileHeader.Filename, data)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"file": ToFileResponse(rec)})
}

// List returns the caller's files, oldest first.
// @Summary		My files
// @Tags		Files
// @Security	BearerAuth
// @Success		200	{object}		map[string]interface{} "File records"
// @Router		/files [GET]
func (h *Handler) List(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	recs, err := h.service.List(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"files": ToFileResponses(recs)})
}

// ListEdited returns the caller's edited files.
// @Summary		My edited files
// @Tags		Files
// @Security	BearerAuth
// @Success		200	{object}		map[string]interface{} "File records"
// @Router		/files/edited [GET]
func (h *Handler) ListEdited(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	recs, err := h.service.ListEdited(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"files": ToFileResponses(recs)})
}

// Get returns file metadata.
// @Summary		File metadata
// @Tags		Files
// @Security	BearerAuth
// @Param		id	path	int	true	"File ID"
// @Success		200	{object}		map[string]interface{} "File record"
// @Failure		403	{object}		map[string]interface{} "Not the owner"
// @Failure		404	{object}		map[string]interface{} "Not found"
// @Router		/files/{id} [GET]
func (h *Handler) Get(c *gin.Context) {
	id, fileID, ok := identityAndFileID(c)
	if !ok {
		return
	}

	rec, err := h.service.Get(c.Request.Context(), id, fileID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"file": ToFileResponse(rec)})
}

// Raw streams the original PDF.
// @Summary		Original PDF bytes
// @Tags		Files
// @Security	BearerAuth
// @Produce		application/pdf
// @Param		id	path	int	true	"File ID"
// @Router		/files/{id}/raw [GET]
func (h *Handler) Raw(c *gin.Context) {
	id, fileID, ok := identityAndFileID(c)
	if !ok {
		return
	}

	rec, data, err := h.service.Raw(c.Request.Context(), id, fileID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	sendPDF(c, rec.DisplayName, data)
}

// EditedRaw streams the edited PDF.
// @Summary		Edited PDF bytes
// @Tags		Files
// @Security	BearerAuth
// @Produce		application/pdf
// @Param		id	path	int	true	"File ID"
// @Failure		404	{object}		map[string]interface{} "Not edited yet"
// @Router		/files/{id}/edited/raw [GET]
func (h *Handler) EditedRaw(c *gin.Context) {
	id, fileID, ok := identityAndFileID(c)
	if !ok {
		return
	}

	rec, data, err := h.service.EditedRaw(c.Request.Context(), id, fileID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	sendPDF(c, "edited-"+rec.DisplayName, data)
}

// Edit stamps annotations onto the original and attaches the result.
// @Summary		Annotate a PDF
// @Tags		Files
// @Security	BearerAuth
// @Param		id		path	int			true	"File ID"
// @Param		request	body	EditRequest	true	"Annotations and viewport"
// @Success		200	{object}		map[string]interface{} "Updated file record"
// @Failure		422	{object}		map[string]interface{} "Document could not be rendered"
// @Failure		502	{object}		map[string]interface{} "Blob storage failed"
// @Router		/files/{id}/edit [POST]
func (h *Handler) Edit(c *gin.Context) {
	id, fileID, ok := identityAndFileID(c)
	if !ok {
		return
	}

	var req EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	rec, err := h.service.Edit(c.Request.Context(), id, fileID, req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"file": ToFileResponse(rec)})
}

// Dashboard greets the caller and shows file counts.
// @Summary		Dashboard
// @Tags		Files
// @Security	BearerAuth
// @Success		200	{object}		map[string]interface{} "Welcome message and counts"
// @Router		/dashboard [GET]
func (h *Handler) Dashboard(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}

	dash, err := h.service.Dashboard(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, dash)
}

func identity(c *gin.Context) (domain.Identity, bool) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	}
	return id, ok
}

func identityAndFileID(c *gin.Context) (domain.Identity, int64, bool) {
	id, ok := identity(c)
	if !ok {
		return domain.Identity{}, 0, false
	}
	fileID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || fileID <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid file ID")
		return domain.Identity{}, 0, false
	}
	return id, fileID, true
}

func sendPDF(c *gin.Context, name string, data []byte) {
	c.Header("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": name}))
	c.Data(http.StatusOK, "application/pdf", data)
}
