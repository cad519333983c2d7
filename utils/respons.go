package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

// RespondError writes err using the status code of its kind. Internal
// failures are reported without their cause.
func RespondError(c *gin.Context, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, JSONResponse{
			Status:  false,
			Message: "internal server error",
		})
		return
	}

	message := appErr.Message
	if appErr.Kind == KindInternal {
		_ = c.Error(err)
		if message == "" {
			message = "internal server error"
		}
	}
	c.AbortWithStatusJSON(appErr.Kind.HTTPStatus(), JSONResponse{
		Status:  false,
		Message: message,
		Data:    gin.H{"error": appErr.Kind.String()},
	})
}
