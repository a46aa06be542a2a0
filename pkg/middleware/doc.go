// Package middleware provides request rate limiting for the validation API.
//
// Two limiters implement Limiter:
//
//	// token bucket per key, for a single instance
//	limiter := middleware.NewRateLimiter(&middleware.RateLimitConfig{
//		RequestsPerWindow: 30,
//		WindowDuration:    time.Minute,
//		BurstSize:         5,
//	})
//	limiter.StartCleanup(ctx)
//
//	// fixed window counters in Redis, shared by every instance
//	limiter := middleware.NewDistributedRateLimiter(redisClient, cfg, "")
//
// RateLimit turns a limiter into HTTP middleware. Requests over the limit get
// 429 with Retry-After and X-RateLimit-* headers. When the limiter itself
// fails, for example Redis is unreachable, the request is allowed and a
// warning is logged.
//
//	router.Handle("/v1/validations",
//		middleware.RateLimit(limiter, middleware.ByClientIP, logger)(handler))
package middleware
