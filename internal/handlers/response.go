package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/caelexhq/caelex-backend/internal/pkg/errors"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
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

// RespondServiceError maps the service-layer sentinels onto HTTP statuses.
// Anything unrecognized is a 500 with a generic message so internals do
// not leak into responses.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, pkgerrors.ErrLimitExceeded):
		RespondError(c, http.StatusPaymentRequired, "limit_exceeded", err)
	case errors.Is(err, pkgerrors.ErrForbidden):
		RespondError(c, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, pkgerrors.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, pkgerrors.ErrConflict):
		RespondError(c, http.StatusConflict, "conflict", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", errors.New("internal error"))
	}
}
