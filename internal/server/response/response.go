package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opsforge/opsforge-backend/internal/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := code
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondAPIError(c *gin.Context, e *apierr.Error) {
	status := e.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: e.Error(),
			Code:    e.Code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
