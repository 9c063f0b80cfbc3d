// Package storage defines the result cache interface and its backends.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrissnell/lunarmansion/internal/engine"
	"github.com/chrissnell/lunarmansion/pkg/responseformat"
)

// ErrClosed is returned by a store used after Close
var ErrClosed = errors.New("result store is closed")

// ResultStore caches resolution results by key. A miss is (nil, false, nil).
// Entries never expire: a result for a given key and engine fingerprint never changes.
type ResultStore interface {
	Get(ctx context.Context, key string) (*engine.Result, bool, error)
	Put(ctx context.Context, key string, res *engine.Result) error
	Close() error
}

// HealthChecker is implemented by stores backed by a remote service
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// Encode serializes a result for stores that keep bytes
func Encode(res *engine.Result) ([]byte, error) {
	b, err := responseformat.MarshalMsgPack(res)
	if err != nil {
		return nil, fmt.Errorf("error encoding result: %w", err)
	}
	return b, nil
}

// Decode is the inverse of Encode
func Decode(b []byte) (*engine.Result, error) {
	res := &engine.Result{}
	if err := responseformat.UnmarshalMsgPack(b, res); err != nil {
		return nil, fmt.Errorf("error decoding cached result: %w", err)
	}
	return res, nil
}
