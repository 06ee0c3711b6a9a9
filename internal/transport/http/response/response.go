package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"account-service/internal/app"
	"account-service/internal/model"
)

// ConflictStatus is the status for an already registered user. Existing
// clients expect 400 here rather than 409.
const ConflictStatus = http.StatusBadRequest

type MessageBody struct {
	Message string             `json:"message"`
	Errors  []model.FieldError `json:"errors,omitempty"`
}

func JSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

func Message(c *gin.Context, status int, message string) {
	c.JSON(status, MessageBody{Message: message})
}

// Error writes the response for a service error. Internal causes are logged
// and never sent to the client.
func Error(c *gin.Context, logger *slog.Logger, err error) {
	var appErr *app.Error
	if !errors.As(err, &appErr) {
		logger.ErrorContext(c.Request.Context(), "unexpected error", "path", c.FullPath(), "error", err)
		Message(c, http.StatusInternalServerError, app.MsgServerError)
		return
	}

	switch appErr.Kind {
	case app.KindBadRequest:
		Message(c, http.StatusBadRequest, appErr.Message)
	case app.KindValidation:
		c.JSON(http.StatusBadRequest, MessageBody{Message: appErr.Message, Errors: appErr.Fields})
	case app.KindConflict:
		Message(c, ConflictStatus, appErr.Message)
	case app.KindUnauthorized:
		Message(c, http.StatusUnauthorized, appErr.Message)
	case app.KindNotFound:
		Message(c, http.StatusNotFound, appErr.Message)
	case app.KindInternal:
		logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", appErr.Err)
		Message(c, http.StatusInternalServerError, app.MsgServerError)
	default:
		logger.ErrorContext(c.Request.Context(), "unknown error kind", "kind", appErr.Kind, "error", err)
		Message(c, http.StatusInternalServerError, app.MsgServerError)
	}
}
