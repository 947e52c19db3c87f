// File: internal/common/context_keys.go
package common

const (
	// AuthorizationHeader is the header name for authorization token
	AuthorizationHeader = "Authorization"
	// AuthorizationTypeBearer is the prefix for Bearer tokens
	AuthorizationTypeBearer = "Bearer"
	// UserEmailKey is the context key for storing the signed-in user's email
	UserEmailKey = "userEmail"
	// UserRoleKey is the context key for storing the resolved role
	UserRoleKey = "userRole"
	// LoggerKey is the context key for the request-scoped logger
	LoggerKey = "logger"
)
