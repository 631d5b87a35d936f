package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pdfmark/internal/domain"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// Abort writes an error envelope and stops the handler chain.
func Abort(c *gin.Context, statusCode int, code string, message string) {
	Error(c, statusCode, code, message)
	c.Abort()
}

// FromError maps a domain error kind to its status code and error code.
// Unclassified errors are attached to the gin context for ErrorLogger and
// answered with a generic 500.
func FromError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status, code := StatusFor(kind)
	if kind == domain.KindInternal || kind == domain.KindStorage {
		_ = c.Error(err)
	}
	Error(c, status, code, domain.MessageOf(err))
}

func StatusFor(kind domain.Kind) (int, string) {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case domain.KindConflict:
		return http.StatusConflict, "CONFLICT"
	case domain.KindAuth:
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case domain.KindForbidden:
		return http.StatusForbidden, "FORBIDDEN"
	case domain.KindNotFound:
		return http.StatusNotFound, "NOT_FOUND"
	case domain.KindStorage:
		return http.StatusBadGateway, "STORAGE_ERROR"
	case domain.KindRender:
		return http.StatusUnprocessableEntity, "RENDER_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
