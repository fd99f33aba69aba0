package waitlist

import (
	"errors"
	"net/http"

	"github.com/akeren/waitlist-intake/config/router"
	apperrors "github.com/akeren/waitlist-intake/pkg/errors"
	"github.com/akeren/waitlist-intake/pkg/ratelimit"
)

// NewWaitlistController mounts the signup endpoint at route. Every method
// other than POST, including non-standard ones, is answered with 405; the
// OPTIONS preflight is handled by the router.
func NewWaitlistController(route string, service WaitlistService, limiter ratelimit.RateLimiter) *router.RESTController {
	return router.NewRESTController(
		"WaitlistController",
		route,
		func(rs *router.RouterService, c *router.RESTController) {
			rs.AddPostHandler(c, limiter, "", submitWaitlistEntryHandler(service))

			rs.AddMethodNotAllowedHandler(c, "", methodNotAllowedHandler())
		},
	)
}

func submitWaitlistEntryHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		body, err := ctx.GetRawData()
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				logger.Warn("Waitlist submission body too large", "limit", tooLarge.Limit)
				return errorResult(apperrors.NewPayloadTooLargeError(msgPayloadTooLarge, err))
			}
			logger.Error("Failed to read request body", "error", err)
			return router.BadRequestResult(msgNoData, nil)
		}

		if len(body) == 0 {
			logger.Warn("Waitlist submission without body")
			return router.BadRequestResult(msgNoData, nil)
		}

		input, err := DecodeSubmission(body)
		if err != nil {
			logger.Warn("Waitlist submission with invalid JSON", "error", err)
			return router.BadRequestResult(msgInvalidJSON+err.Error(), nil)
		}

		result, err := service.Submit(ctx.Request.Context(), input, ctx.ClientIP())
		if err != nil {
			return errorResult(err)
		}

		return router.OKResult(nil, msgSubmitted).
			With("file", result.File).
			With("timestamp", result.Timestamp)
	}
}

func methodNotAllowedHandler() router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		router.GetLogger(ctx).Warn("Waitlist endpoint called with unsupported method", "method", ctx.Request.Method)
		return errorResult(apperrors.NewMethodNotAllowedError(msgMethodNotAllowed, nil))
	}
}

// errorResult renders err in the response envelope. Server-side failures get
// a pointer to the logs instead of the cause.
func errorResult(err error) *router.ServiceResult {
	status := apperrors.HTTPStatusCode(err)
	result := router.ErrorResult(status, apperrors.GetHumanReadableMessage(err), nil)
	if status >= http.StatusInternalServerError {
		result.With("error_details", msgErrorDetails)
	}
	return result
}
