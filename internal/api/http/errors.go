package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/CTerminal/bridge/internal/bridge"
)

// CodeInvalidRequest marks a body that is not a JSON object with a string command.
const CodeInvalidRequest = "invalid_request"

// StatusClientClosedRequest is written when the caller disconnected before the
// backend answered. Nobody reads it; it only shows up in logs and metrics.
const StatusClientClosedRequest = 499

// StatusFor maps an error code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case bridge.CodeOK:
		return http.StatusOK
	case bridge.CodeEmptyCommand, bridge.CodeInvalidCommand, CodeInvalidRequest:
		return http.StatusBadRequest
	case bridge.CodeQueueFull:
		return http.StatusServiceUnavailable
	case bridge.CodeTimeout:
		return http.StatusGatewayTimeout
	case bridge.CodeCanceled:
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// Diagnostic returns the human-readable message sent as stderr.
func Diagnostic(code string, err error) string {
	switch code {
	case bridge.CodeTimeout:
		return "timed out waiting for backend"
	case bridge.CodeCanceled:
		return "request canceled"
	case bridge.CodeInternal:
		return "server error"
	default:
		return err.Error()
	}
}

// errorBody mirrors the backend's result shape so clients render failures
// the same way as command output.
func errorBody(code, diagnostic string) gin.H {
	return gin.H{
		"ok":     false,
		"stdout": "",
		"stderr": diagnostic,
		"error":  code,
	}
}
