// Package api exposes the study engine over HTTP: request decoding and
// validation, auth and study handlers, and the mapping of internal errors to
// sanitized responses.
package api
