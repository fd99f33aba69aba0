package router

import (
	"net/http"

	"github.com/akeren/waitlist-intake/internal/log"
	"github.com/gin-gonic/gin"
)

// ServiceResult is rendered as {"success", "message"} plus "data" when set
// and any top-level extras.
type ServiceResult struct {
	StatusCode int
	Data       any
	Message    string
	Extras     map[string]any
}

type RateLimitResponse struct {
	Limit      int    `json:"limit"`
	Window     string `json:"window"`
	RetryAfter string `json:"retry_after"`
}

func (result *ServiceResult) ToJSON() gin.H {
	body := gin.H{
		"success": result.IsSuccess(),
		"message": result.Message,
	}
	if result.Data != nil {
		body["data"] = result.Data
	}
	for key, value := range result.Extras {
		if _, reserved := body[key]; !reserved {
			body[key] = value
		}
	}
	return body
}

// With adds a top-level field to the response body. Envelope keys win.
func (result *ServiceResult) With(key string, value any) *ServiceResult {
	if result.Extras == nil {
		result.Extras = make(map[string]any)
	}
	result.Extras[key] = value
	return result
}

func (result *ServiceResult) IsSuccess() bool {
	return result.StatusCode >= 200 && result.StatusCode < 300
}

func newResult(statusCode int, message string, data any) *ServiceResult {
	return &ServiceResult{StatusCode: statusCode, Data: data, Message: message}
}

func ErrorResult(statusCode int, message string, data any) *ServiceResult {
	return newResult(statusCode, message, data)
}

func OKResult(data any, message string) *ServiceResult {
	return newResult(http.StatusOK, message, data)
}

func BadRequestResult(message string, payload any) *ServiceResult {
	return newResult(http.StatusBadRequest, message, payload)
}

func NotFoundResult(message string) *ServiceResult {
	return newResult(http.StatusNotFound, message, nil)
}

func MethodNotAllowedResult(message string) *ServiceResult {
	return newResult(http.StatusMethodNotAllowed, message, nil)
}

func InternalServerErrorResult(message string) *ServiceResult {
	return newResult(http.StatusInternalServerError, message, nil)
}

func TooManyRequestsResult(data RateLimitResponse) *ServiceResult {
	return newResult(http.StatusTooManyRequests, "Too Many Requests", data)
}

// GetLogger returns the request-scoped logger injected by the router.
func GetLogger(ctx *RequestContext) *log.Logger {
	return log.GetLoggerInstanceFromContext(ctx.Request.Context(), nil)
}
