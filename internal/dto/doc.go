// Package dto defines the JSON shapes exchanged over HTTP.
package dto
