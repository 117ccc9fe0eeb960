// Package id defines run ID generation.
package id

// Generator produces run IDs.
type Generator interface {
	NewID() (string, error)
}
