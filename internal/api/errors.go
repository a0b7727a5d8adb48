package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gunuduru/assignment-auth/internal/dto/resp"
	"github.com/gunuduru/assignment-auth/internal/errs"
	"github.com/gunuduru/assignment-auth/pkg/logger"
	"go.uber.org/zap"
)

type apiError struct {
	status int
	code   string
}

var errorTable = []struct {
	target error
	apiError
}{
	{errs.ErrInvalidBracket, apiError{http.StatusBadRequest, "INVALID_AGE_GROUP"}},
	{errs.ErrFormat, apiError{http.StatusBadRequest, "INVALID_IDENTIFIER"}},
	{errs.ErrNoUpdates, apiError{http.StatusBadRequest, "NO_UPDATES"}},
	{errs.ErrUsernameTaken, apiError{http.StatusConflict, "USERNAME_TAKEN"}},
	{errs.ErrSSNTaken, apiError{http.StatusConflict, "SSN_TAKEN"}},
	{errs.ErrInvalidCredentials, apiError{http.StatusUnauthorized, "INVALID_CREDENTIALS"}},
	{errs.ErrTokenInvalid, apiError{http.StatusUnauthorized, "TOKEN_INVALID"}},
	{errs.ErrSessionExpired, apiError{http.StatusUnauthorized, "SESSION_EXPIRED"}},
	{errs.ErrInactiveUser, apiError{http.StatusForbidden, "INACTIVE_USER"}},
	{errs.ErrUserNotFound, apiError{http.StatusNotFound, "USER_NOT_FOUND"}},
	{errs.ErrTickInProgress, apiError{http.StatusConflict, "TICK_IN_PROGRESS"}},
}

// writeError maps domain errors onto the response envelope. Anything
// unrecognised is logged and reported as a 500 without details.
func writeError(c *gin.Context, err error) {
	for _, e := range errorTable {
		if errors.Is(err, e.target) {
			c.JSON(e.status, resp.Envelope{Code: e.code, Message: e.target.Error()})
			return
		}
	}

	_ = c.Error(err)
	logger.Error("request failed",
		zap.String("path", c.FullPath()),
		zap.String("method", c.Request.Method),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, resp.Envelope{Code: "INTERNAL_ERROR", Message: "internal server error"})
}

func writeBindError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, resp.Envelope{Code: "VALIDATION_FAILED", Message: "malformed request body"})
		return
	}
	fields := make([]resp.FieldError, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, resp.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	c.JSON(http.StatusBadRequest, resp.Envelope{
		Code:    "VALIDATION_FAILED",
		Message: "request validation failed",
		Errors:  fields,
	})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "alphanum":
		return "must contain only letters and digits"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "phone":
		return "must be a mobile number like 010-1234-5678"
	case "ssn":
		return "must be a valid identifier like 900101-1234567"
	case "strongpw":
		return "must contain a letter, a digit and a symbol"
	}
	return "is invalid"
}
