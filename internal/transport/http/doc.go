// Package http exposes the audit services over a chi router.
//
// Handlers only decode requests, call a service and render the result.
// Every failure goes through errors.ErrorHandler and reaches the client as
// RFC 7807 problem details.
//
// Routes:
//
//	POST /api/audits   run an audit over a list of folders
//	POST /api/scores   score the suppliers of a list of folders
//	GET  /api/health   dependency status
//	GET  /metrics      Prometheus exposition
package http
