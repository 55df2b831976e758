// Package store implements C1, the Resource Store: a durable mapping
// name -> AdapterRecord/ToolRecord (spec.md section 4.1). Records are
// serialized opaquely (JSON) so one store implementation backs both
// adapters and tools, distinguished only by the key prefix the caller
// supplies.
package store

import (
	"context"
	"encoding/json"

	"github.com/streamspace-dev/mcp-gateway/internal/apperr"
)

// Store is the contract every C1 backend kind implements.
type Store interface {
	// TryGet fetches the record stored under key. ok is false if absent.
	TryGet(ctx context.Context, key string) (raw []byte, ok bool, err error)
	// Upsert stores raw under key, replacing any existing value (idempotent).
	Upsert(ctx context.Context, key string, raw []byte) error
	// Delete removes key; absent is success.
	Delete(ctx context.Context, key string) error
	// List returns every stored record whose key starts with prefix. Implementations must tolerate a
	// name present in a secondary index with no backing record by
	// silently dropping it rather than erroring.
	List(ctx context.Context, prefix string) ([][]byte, error)
}

// TypedStore wraps a Store with JSON marshal/unmarshal for a concrete
// record type T, and prefixes keys by kind so adapters and tools can share
// a single backend without colliding.
type TypedStore[T any] struct {
	backend Store
	prefix  string
}

// NewTypedStore constructs a TypedStore for records of type T, all keyed
// under the given prefix (e.g. "adapter:" or "tool:").
func NewTypedStore[T any](backend Store, prefix string) *TypedStore[T] {
	return &TypedStore[T]{backend: backend, prefix: prefix}
}

func (s *TypedStore[T]) key(name string) string {
	return s.prefix + name
}

// TryGet returns the record named name, or ok=false if absent.
func (s *TypedStore[T]) TryGet(ctx context.Context, name string) (T, bool, error) {
	var zero T
	raw, ok, err := s.backend.TryGet(ctx, s.key(name))
	if err != nil {
		return zero, false, apperr.BackendUnavailable(err)
	}
	if !ok {
		return zero, false, nil
	}
	var rec T
	if err := json.Unmarshal(raw, &rec); err != nil {
		return zero, false, apperr.InternalServer(err)
	}
	return rec, true, nil
}

// Upsert stores record under its name key. Idempotent: a repeated call with
// the same value is a no-op observably.
func (s *TypedStore[T]) Upsert(ctx context.Context, name string, record T) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return apperr.InternalServer(err)
	}
	if err := s.backend.Upsert(ctx, s.key(name), raw); err != nil {
		return apperr.BackendUnavailable(err)
	}
	return nil
}

// Delete removes the record named name. Absent is success.
func (s *TypedStore[T]) Delete(ctx context.Context, name string) error {
	if err := s.backend.Delete(ctx, s.key(name)); err != nil {
		return apperr.BackendUnavailable(err)
	}
	return nil
}

// List returns every record under this store's prefix. Records that fail
// to unmarshal (a name in the index with no valid record) are dropped
// rather than failing the whole list, per spec.md section 4.1.
func (s *TypedStore[T]) List(ctx context.Context) ([]T, error) {
	rawList, err := s.backend.List(ctx, s.prefix)
	if err != nil {
		return nil, apperr.BackendUnavailable(err)
	}
	out := make([]T, 0, len(rawList))
	for _, raw := range rawList {
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
