package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/investor-account-ledger/internal/api/middleware"
)

// ErrorResponse represents a standard API error: a machine-readable kind, a
// human-readable message, and the request's correlation id
type ErrorResponse struct {
	Error         string      `json:"error"`
	Message       string      `json:"message"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Transaction   interface{} `json:"transaction,omitempty"`
}

// RespondWithData sends a JSON response with data
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// RespondWithError sends a JSON error response
func RespondWithError(c *gin.Context, statusCode int, kind, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:         kind,
		Message:       message,
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// RespondOK sends a 200 OK response with data
func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

// RespondCreated sends a 201 Created response with data
func RespondCreated(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusCreated, data)
}

// RespondBadRequest sends a 400 Bad Request response with an error kind
func RespondBadRequest(c *gin.Context, kind, message string) {
	RespondWithError(c, http.StatusBadRequest, kind, message)
}

// RespondNotFound sends a 404 Not Found response with an error kind
func RespondNotFound(c *gin.Context, kind, message string) {
	RespondWithError(c, http.StatusNotFound, kind, message)
}

// RespondConflict sends a 409 Conflict response. The existing transaction is
// included when the conflict is an idempotent replay, so clients can treat
// the request as already done.
func RespondConflict(c *gin.Context, kind, message string, existing interface{}) {
	c.JSON(http.StatusConflict, ErrorResponse{
		Error:         kind,
		Message:       message,
		CorrelationID: middleware.GetCorrelationID(c),
		Transaction:   existing,
	})
}

// RespondInternalError sends a 500 Internal Server Error response
func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal server error occurred")
}
