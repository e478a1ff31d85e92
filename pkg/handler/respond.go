package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/parley-chat/parley/pkg/models"
	"github.com/parley-chat/parley/pkg/service"
)

const userIDKey = "parley.user_id"

// currentUserID is the account the request acts as. Until authentication
// exists every request belongs to the default user.
func currentUserID(c *gin.Context) uint {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return service.DefaultUserID
}

// idParam parses a positive numeric path parameter, answering 404 when it
// is not one.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: name + " not found"})
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes the body into req. A malformed body is answered with 400.
// An empty body is accepted when allowEmpty is set.
func bindJSON(c *gin.Context, req interface{}, allowEmpty bool) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request: " + err.Error()})
		return false
	}
	return true
}

// respondError maps service errors onto status codes. Unexpected errors are
// logged and reported without detail.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	default:
		logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal error"})
	}
}
