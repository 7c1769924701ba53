// Package client talks to the recipe book REST API.
//
// HTTPClient keeps the token pair obtained at login, sends the access token
// as a bearer credential and, when the server reports it expired, rotates
// the pair through the refresh endpoint and retries the call once.
//
// Transport failures wrap ErrUnavailable. Error responses are returned as
// *Error carrying the server's envelope; 401 and 404 also match
// ErrUnauthorized and ErrNotFound with errors.Is.
package client
