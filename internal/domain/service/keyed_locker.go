package service

import "context"

// KeyedLocker serializes work per key, e.g. per normalized email.
type KeyedLocker interface {
	// Lock blocks until the key is held or ctx is done. The returned func releases it.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
