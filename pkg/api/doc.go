// Package api exposes feed validation over HTTP.
//
// # Endpoints
//
//	POST   /v1/validations        - Validate a feed reference, body {"feed": "<ref>"}
//	GET    /v1/validations        - List recent runs (?feed=<ref>&limit=<n>)
//	GET    /v1/validations/{id}   - Fetch a stored run with its diagnostics
//	GET    /v1/codes              - Diagnostic code catalog
//	GET    /metrics               - Prometheus metrics
//	GET    /health                - Full dependency check
//	GET    /health/live           - Liveness probe
//	GET    /health/ready          - Readiness probe
//
// A feed reference is anything feedsource.Resolver accepts: a directory, a
// .zip archive or an s3:// URL.
//
// When a result cache is configured, a request for feed content that was
// already validated returns the cached result with status 200 and
// "X-Cache: hit" instead of running the validators again. Fresh runs answer
// 201 with a Location header pointing at the stored run.
//
// WithRateLimiter limits POST /v1/validations per client address; requests
// over the limit get 429 with a Retry-After header.
//
// # Usage
//
//	server := api.NewServer(resolver, engine,
//		api.WithStore(store),
//		api.WithCache(cache),
//		api.WithMetrics(metrics, registry),
//		api.WithLogger(logger),
//		api.WithRateLimiter(middleware.NewRateLimiter(nil)),
//	)
//	http.ListenAndServe(":8080", server.Handler())
package api
