// Package server exposes the EmoTune services as a JSON API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so unknown paths get 404 and known paths
// with the wrong method get 405 without extra code. Router middleware wraps the whole mux; [Route] middleware wraps a
// single route and runs inside it.
//
// # Handler Interface
//
// Each API area implements [Handler] and returns its routes, keeping route definitions next to the code that serves
// them:
//
//	/api/auth/*     registration, login, logout, refresh, password reset
//	/api/music/*    recommendations, liked songs, catalog search
//	/api/emotion/*  face image classification
//	/api/user/*     profile, preferences, statistics, account deletion
//
// # Responses
//
// Every JSON body carries "success". Failures add "error" (the [shared.ErrorKind] name) and "message". The status code
// is derived from the error kind in one place, so services only return wrapped sentinel errors.
//
// # Middleware
//
// [Recover], [Logging], [CORS] and [RateLimit] wrap every request. [RequireAuth] guards bearer routes and stores the
// token claims, read back with [ClaimsFrom]. The auth routes get a stricter rate limit of their own.
//
// Request counts and latency are exported on /metrics together with the recommendation counters.
package server
