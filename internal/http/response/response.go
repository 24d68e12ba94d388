package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/kaical-backend/internal/platform/apierr"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

// ErrorBody is the error shape every endpoint returns.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorBody{Error: msg, Code: code})
}

// RespondAPIError maps err through apierr. Server-side failures are logged
// with their cause; the client only sees the public message.
func RespondAPIError(c *gin.Context, log *logger.Logger, err error) {
	ae := apierr.As(err)
	if ae == nil {
		ae = apierr.New(http.StatusInternalServerError, "internal_error", nil)
	}
	if log != nil && ae.Status >= http.StatusInternalServerError {
		log.Error("Request failed", "path", c.FullPath(), "code", ae.Code, "error", ae.Error())
	}
	c.AbortWithStatusJSON(ae.Status, ErrorBody{Error: ae.Message(), Code: ae.Code})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
