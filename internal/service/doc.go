// Package service holds the request-level logic between the HTTP handlers
// and the solver kernel.
package service
