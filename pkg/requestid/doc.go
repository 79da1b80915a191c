// Package requestid tags every onboarding API request with an id that shows
// up in the X-Request-ID response header, in error bodies and in log records.
//
//	r.Use(requestid.Middleware)
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
package requestid
