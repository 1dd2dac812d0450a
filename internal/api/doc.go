// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It covers both the client-facing REST surface
// and the broker-facing consumer endpoints, translating HTTP concerns to
// business operations.
package api
