// Package sink abstracts the destination of serialized index artifacts.
package sink

import "context"

// Provider writes one artifact and returns a URI describing where it went.
type Provider interface {
	Put(ctx context.Context, name string, contentType string, data []byte) (string, error)
}
