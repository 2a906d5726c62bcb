package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/xenking/local-market/internal/domain/apperr"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func statusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as an error response. Unclassified errors are logged and
// their message is not exposed.
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zctx.From(c.Request.Context()).Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
		msg = http.StatusText(status)
	}
	c.JSON(status, errorBody{Code: status, Message: msg})
}

// bind decodes the JSON body into dst. Malformed JSON yields 400, failed
// binding rules 422.
func (h *Handler) bind(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusUnprocessableEntity, errorBody{Code: http.StatusUnprocessableEntity, Message: verrs.Error()})
		return false
	}
	c.JSON(http.StatusBadRequest, errorBody{Code: http.StatusBadRequest, Message: "invalid request body: " + err.Error()})
	return false
}

func badQuery(c *gin.Context, name string) {
	c.JSON(http.StatusBadRequest, errorBody{Code: http.StatusBadRequest, Message: "invalid query parameter " + name})
}
