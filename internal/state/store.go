// Package state persists per-session storefront state under the same keys
// and JSON shapes the static pages use in localStorage.
package state

import (
	"context"
	"fmt"
)

// Persisted keys.
const (
	KeyCustomBuild     = "voip:customBuild"
	KeyBuildMeta       = "voip:buildMeta"
	KeySolutionTotals  = "voip:solutionTotals"
	KeySelectedPackage = "voip:selectedPackage"
	KeyVirtualNumber   = "voip:virtualNumber"
	KeyCallBundles     = "voip:callBundles"
)

// Store is a flat key-value space partitioned by session. Get returns
// domain.ErrNotFound for an absent key. Writes are last-writer-wins.
type Store interface {
	Get(ctx context.Context, session, key string) ([]byte, error)
	Put(ctx context.Context, session, key string, value []byte) error
	Delete(ctx context.Context, session string, keys ...string) error
	Ping(ctx context.Context) error
}

// DecodeError reports a stored value that is present but unreadable.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
