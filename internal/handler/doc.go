// Package handler implements the HTTP handlers of the equation API.
package handler
