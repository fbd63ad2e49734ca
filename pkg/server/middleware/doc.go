// Package middleware provides the HTTP middleware chain of the banker API:
// request IDs, structured request logging and panic recovery.
//
// The chain is applied innermost first:
//
//	handler = middleware.RequestID(handler)
//	handler = middleware.Logging(logger)(handler)
//	handler = middleware.Recovery(logger)(handler)
package middleware
