package server

import (
	"net/http"
	"sync"
)

// BasicRouter is a simple HTTP router implementing the [Router] interface.
//
// Uses [http.ServeMux] internally for routing. Routes are registered as method patterns ("GET /path/{id}"),
// so the mux itself answers 404 and 405.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware

	once    sync.Once
	handler http.Handler
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:         http.NewServeMux(),
		middlewares: []Middleware{},
	}
}

// Use adds [Middleware] to the [Router] instance's middleware stack, applied in the order it's added.
//
// Router middleware wraps the mux, so it also sees requests that match no route (CORS preflights, 404s).
// It must be added before the first request is served.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for the specified HTTP method and path.
//
// The route middleware runs inside the router middleware, closest to the handler.
func (r *BasicRouter) Handle(method, path string, handler http.Handler, middleware ...Middleware) {
	r.mux.Handle(method+" "+path, chain(handler, middleware))
}

// Handler registers every [Route] of a [Handler] implementation.
func (r *BasicRouter) Handler(handler Handler) {
	for _, route := range handler.Routes() {
		r.Handle(route.Method, route.Path, route.Handler, route.Middleware...)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.once.Do(func() { r.handler = r.Apply(r.mux) })
	r.handler.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware.
//
// Middleware is applied in reverse order (last added wraps first).
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	return chain(handler, r.middlewares)
}

func chain(handler http.Handler, middlewares []Middleware) http.Handler {
	wrapped := handler

	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}

	return wrapped
}

var _ Router = (*BasicRouter)(nil)
