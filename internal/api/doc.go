// Package api handles incoming HTTP requests, request validation, and
// response formatting for the thing API. Handlers translate HTTP concerns to
// service calls and map service errors onto status codes with a JSON
// {"reason": ...} body.
package api
