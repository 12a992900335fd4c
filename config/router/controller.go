package router

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/akeren/lingo-site/pkg/ratelimit"
)

func NewRESTController(name, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: cleanMountPoint(mountPoint),
		prepare:    prepare,
	}
}

// NewVersionedRESTController mounts under /<version>/<mountPoint>.
func NewVersionedRESTController(name, version, mountPoint string, prepare func(*RouterService, *RESTController)) *RESTController {
	return &RESTController{
		name:       name,
		mountPoint: cleanMountPoint(version + "/" + mountPoint),
		version:    version,
		prepare:    prepare,
	}
}

func cleanMountPoint(p string) string {
	return path.Clean("/" + p)
}

// fullPath joins the controller mount point and a relative gin pattern. Wildcard
// segments such as "*path" and ":slug" pass through untouched.
func (controller *RESTController) fullPath(relativePath string) string {
	relativePath = strings.Trim(relativePath, "/")
	if relativePath == "" {
		return controller.mountPoint
	}
	if controller.mountPoint == "/" {
		return "/" + relativePath
	}
	return controller.mountPoint + "/" + relativePath
}

// RateLimitWith applies limiter to every route of the controller that has no
// limiter of its own.
func (controller *RESTController) RateLimitWith(routerService *RouterService, limiter ratelimit.RateLimiter) *RESTController {
	if limiter == nil {
		return controller
	}
	if _, taken := routerService.controllerLimiters[controller.mountPoint]; taken {
		panic(fmt.Sprintf("A rate limiter is already registered for path '%s'", controller.mountPoint))
	}
	routerService.controllerLimiters[controller.mountPoint] = limiter
	return controller
}

// NoBodyLimit lifts the request body cap for a controller, e.g. for one that
// relays bodies to another service untouched.
const NoBodyLimit int64 = -1

// LimitBodyWith replaces MAX_REQUEST_BODY_BYTES for every route of the
// controller. Pass NoBodyLimit to accept bodies of any size.
func (controller *RESTController) LimitBodyWith(routerService *RouterService, maxBytes int64) *RESTController {
	if maxBytes == 0 {
		return controller
	}
	if _, taken := routerService.controllerBodyLimits[controller.mountPoint]; taken {
		panic(fmt.Sprintf("A body limit is already registered for path '%s'", controller.mountPoint))
	}
	routerService.controllerBodyLimits[controller.mountPoint] = maxBytes
	return controller
}

// register records the route before handing it to gin. Registering the same
// method and path twice panics at startup rather than shadowing a handler.
func (routerService *RouterService) register(
	controller *RESTController,
	limiter ratelimit.RateLimiter,
	method string,
	relativePath string,
	handlers ...MiddlewareFunc,
) {
	r := route{method: method, path: controller.fullPath(relativePath)}
	if existing, taken := routerService.routes[r]; taken {
		panic(fmt.Sprintf("A handler is already registered for %s '%s' by controller '%s'", r.method, r.path, existing.controller.name))
	}

	routerService.routes[r] = binding{controller: controller, limiter: limiter}
	controller.handlerCount++

	routerService.engine.Handle(method, r.path, handlers...)
	routerService.logger.Debug("Handler registered", "method", r.method, "path", r.path)
}

// toMiddleware writes the handler's ServiceResult as the JSON envelope.
func toMiddleware(handler HandlerFunction) MiddlewareFunc {
	return func(c *RequestContext) {
		result := handler(c)
		if result == nil {
			c.JSON(http.StatusInternalServerError, InternalServerErrorResult("Handler returned no result").ToJSON())
			return
		}
		c.JSON(result.StatusCode, result.ToJSON())
	}
}

func (routerService *RouterService) AddGetHandler(controller *RESTController, limiter ratelimit.RateLimiter, path string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.register(controller, limiter, http.MethodGet, path, append(middlewares, toMiddleware(handler))...)
}

func (routerService *RouterService) AddPostHandler(controller *RESTController, limiter ratelimit.RateLimiter, path string, handler HandlerFunction, middlewares ...MiddlewareFunc) {
	routerService.register(controller, limiter, http.MethodPost, path, append(middlewares, toMiddleware(handler))...)
}

// AddRawHandler registers a handler that writes its own response (HTML pages, proxied bytes)
// instead of a ServiceResult envelope. Rate limiting and controller bookkeeping still apply.
func (routerService *RouterService) AddRawHandler(controller *RESTController, limiter ratelimit.RateLimiter, method string, path string, handler MiddlewareFunc, middlewares ...MiddlewareFunc) {
	routerService.register(controller, limiter, method, path, append(middlewares, handler)...)
}
