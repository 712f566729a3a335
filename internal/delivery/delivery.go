// Package delivery holds the entry points that drive the use cases: the API server, the
// Pub/Sub push worker and the import scheduler.
package delivery

import "context"

// Delivery is a long-running entry point started by the fx application.
type Delivery interface {
	Serve(ctx context.Context) error
}
