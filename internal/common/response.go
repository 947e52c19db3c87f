// File: internal/common/response.go
package common

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SignInPath is where callers are sent when the session is gone.
const SignInPath = "/login"

// SuccessResponse wraps successful API responses.
type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// RespondWithError sends a JSON error response, translating the error taxonomy of the
// dashboard into HTTP statuses.
func RespondWithError(c *gin.Context, err error) {
	var (
		authErr       *AuthError
		transitionErr *TransitionError
	)

	switch {
	case errors.Is(err, ErrUnauthorized):
		// The session is already cleared by the API client; tell the caller where to go.
		c.Header("Location", SignInPath)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code":     ErrUnauthorized.Code,
			"message":  ErrUnauthorized.Message,
			"redirect": SignInPath,
		})
		return
	case errors.As(err, &authErr):
		if authErr.Kind == AuthInvalidCredentials {
			abortWith(c, ErrUnauthorized.WithDetails("Invalid email or password."))
			return
		}
		abortWith(c, ErrBadGateway.WithDetails("The authentication provider could not be reached."))
		return
	case errors.As(err, &transitionErr):
		abortWith(c, NewAPIError(http.StatusUnprocessableEntity, "INVALID_TRANSITION", transitionErr.Error()))
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		abortWith(c, ErrServiceUnavailable.WithDetails(err.Error()))
		return
	}

	apiErr, ok := IsAPIError(err)
	if !ok {
		if l, exists := c.Get(LoggerKey); exists {
			if logger, ok := l.(*zap.Logger); ok {
				logger.Error("Unhandled internal error being wrapped", zap.Error(err))
			}
		}
		apiErr = ErrInternalServer.WithDetails(err.Error())
	}
	abortWith(c, apiErr)
}

func abortWith(c *gin.Context, apiErr *APIError) {
	status := apiErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, apiErr)
}

// RespondSuccess sends a JSON success response.
func RespondSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	response := SuccessResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
	c.JSON(statusCode, response)
}

// RespondOK sends a 200 OK response.
func RespondOK(c *gin.Context, message string, data interface{}) {
	RespondSuccess(c, http.StatusOK, message, data)
}

// RespondCreated sends a 201 Created response.
func RespondCreated(c *gin.Context, message string, data interface{}) {
	RespondSuccess(c, http.StatusCreated, message, data)
}

// RespondNoContent sends a 204 No Content response.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// PaginatedResponse structure for paginated data
type PaginatedResponse struct {
	Status     string      `json:"status"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data"`
	Counts     interface{} `json:"counts,omitempty"`
	Filter     string      `json:"filter,omitempty"`
	Pagination *Pagination `json:"pagination"`
}

// RespondPaginated sends a JSON response for paginated data.
func RespondPaginated(c *gin.Context, message string, data interface{}, pagination *Pagination) {
	response := PaginatedResponse{
		Status:     "success",
		Message:    message,
		Data:       data,
		Pagination: pagination,
	}
	c.JSON(http.StatusOK, response)
}

// RespondListView sends a paginated response that also carries per-status counts and the active filter.
func RespondListView(c *gin.Context, message string, data interface{}, counts interface{}, filter string, pagination *Pagination) {
	c.JSON(http.StatusOK, PaginatedResponse{
		Status:     "success",
		Message:    message,
		Data:       data,
		Counts:     counts,
		Filter:     filter,
		Pagination: pagination,
	})
}
