package router

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/akeren/waitlist-intake/pkg/ratelimit"
	"github.com/gin-gonic/gin"
)

type RequestContext = gin.Context

type MiddlewareFunc = gin.HandlerFunc

type HandlerFunction func(*RequestContext) *ServiceResult

// RESTController groups handlers under one mount point. prepare runs once,
// when the controller is mounted.
type RESTController struct {
	name         string
	mountPoint   string
	handlerCount int
	prepare      func(*RouterService, *RESTController)
}

func cleanMountPoint(parts ...string) string {
	return path.Clean("/" + strings.Join(parts, "/"))
}

func NewRESTController(name, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: cleanMountPoint(mountPoint),
		prepare:    prepare,
	}
}

func (controller *RESTController) routePath(relativePath string) string {
	if relativePath == "" {
		return controller.mountPoint
	}
	return cleanMountPoint(controller.mountPoint, relativePath)
}

func (routerService *RouterService) keyForPathAndMethod(path, method string) string {
	return method + "-" + path
}

func (routerService *RouterService) bindHandlerToController(controller *RESTController, path, method string) {
	key := routerService.keyForPathAndMethod(path, method)
	if other, found := routerService.handlerToControllerMap[key]; found {
		panic(fmt.Sprintf("A handler is already registered for %s %s by controller '%s'", method, path, other.name))
	}
	routerService.handlerToControllerMap[key] = controller
}

func (routerService *RouterService) bindOverrideRateLimiter(key string, limiter ratelimit.RateLimiter) {
	if limiter == nil {
		return
	}
	if _, found := routerService.rateLimitOverrides[key]; found {
		panic(fmt.Sprintf("A rate limiter is already registered for '%s'", key))
	}
	routerService.rateLimitOverrides[key] = limiter
}

func renderResult(handler HandlerFunction) MiddlewareFunc {
	return func(c *RequestContext) {
		result := handler(c)
		if result == nil {
			c.JSON(http.StatusInternalServerError, InternalServerErrorResult("A handler returned an undefined result. This typically indicates a bug in a handler's implementation.").ToJSON())
			return
		}
		c.JSON(result.StatusCode, result.ToJSON())
	}
}

// addHandler registers handler for method on the controller-relative path.
// limiter may be nil to inherit the default limiter.
func (routerService *RouterService) addHandler(
	method string,
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	relativePath string,
	handler HandlerFunction,
	middlewares ...MiddlewareFunc,
) {
	fullPath := controller.routePath(relativePath)

	routerService.bindHandlerToController(controller, fullPath, method)
	routerService.bindOverrideRateLimiter(routerService.keyForPathAndMethod(fullPath, method), limiter)
	routerService.engine.Handle(method, fullPath, append(middlewares, renderResult(handler))...)

	controller.handlerCount++
	routerService.logger.Debug("Handler registered", "method", method, "path", fullPath)
}

func (routerService *RouterService) AddPostHandler(controller *RESTController, limiter ratelimit.RateLimiter, path string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.addHandler(http.MethodPost, controller, limiter, path, handler, middlewares...)
}

func (routerService *RouterService) AddGetHandler(controller *RESTController, limiter ratelimit.RateLimiter, path string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.addHandler(http.MethodGet, controller, limiter, path, handler, middlewares...)
}

// AddMethodNotAllowedHandler answers every method that has no handler on the
// controller-relative path, in place of the generic 405 body. CORS preflights
// never reach it.
func (routerService *RouterService) AddMethodNotAllowedHandler(controller *RESTController, path string, handler HandlerFunction) {
	fullPath := controller.routePath(path)
	if _, found := routerService.methodFallbacks[fullPath]; found {
		panic(fmt.Sprintf("A method-not-allowed handler is already registered for %s", fullPath))
	}
	routerService.methodFallbacks[fullPath] = renderResult(handler)
	routerService.logger.Debug("Method-not-allowed handler registered", "path", fullPath)
}
