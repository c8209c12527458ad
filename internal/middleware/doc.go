// Package middleware provides the HTTP middleware for the gateway's
// Gin-based API.
//
// # Available Middleware
//
//   - APIKeyAuth: shared API key validation (Authorization or X-API-Key)
//   - RequestID: per-request ID assignment and propagation
//   - RequestLogger: structured request logging via logrus
//   - Metrics: Prometheus request duration and in-flight tracking
//   - CORS: cross-origin resource sharing
//   - MaxBodySize: request body size cap
//   - RateLimiter: per-client token-bucket rate limiting
//   - RequireJSON / ValidateChatRequest: content-type and payload validation
//
// # Middleware Chain
//
// The router applies them in this order:
//
//	router := gin.New()
//	router.Use(gin.Recovery())
//	router.Use(middleware.RequestID())
//	router.Use(middleware.RequestLogger(log))
//	router.Use(middleware.Metrics(collector))
//	router.Use(middleware.CORS(origins))        // when enabled
//	router.Use(middleware.MaxBodySize(limit))
//	router.Use(limiter.Middleware())            // when enabled
//
//	api := router.Group("/api")
//	api.Use(middleware.APIKeyAuth(key, log))    // all but /api/health
//
// Validation runs only on the chat and stream routes, which bind the
// request body a second time inside their handlers.
package middleware
