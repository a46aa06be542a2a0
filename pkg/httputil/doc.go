// Package httputil provides JSON response helpers, request parsing and the
// middleware chain used by the API server.
//
// Responses:
//
//	httputil.WriteJSON(w, http.StatusOK, result)
//	httputil.WriteCreated(w, result)
//	httputil.WriteNotFoundError(w, "validation run not found")
//
// Requests:
//
//	var req ValidateRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//	limit, err := httputil.ParseQueryInt(r, "limit", 20)
//
// Middleware:
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.MaxBytesMiddleware(1<<20),
//	)
package httputil
