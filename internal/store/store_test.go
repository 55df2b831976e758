package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testRecord struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestMemoryStoreTryGetUpsertDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	_, ok, err := m.TryGet(ctx, "adapter:search")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, m.Upsert(ctx, "adapter:search", []byte(`{"name":"search"}`)))

	raw, ok, err := m.TryGet(ctx, "adapter:search")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"name":"search"}`, string(raw))

	assert.NoError(t, m.Delete(ctx, "adapter:search"))
	_, ok, _ = m.TryGet(ctx, "adapter:search")
	assert.False(t, ok)
}

func TestMemoryStoreListFiltersByPrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	assert.NoError(t, m.Upsert(ctx, "adapter:a1", []byte(`{}`)))
	assert.NoError(t, m.Upsert(ctx, "adapter:a2", []byte(`{}`)))
	assert.NoError(t, m.Upsert(ctx, "tool:t1", []byte(`{}`)))

	adapters, err := m.List(ctx, "adapter:")
	assert.NoError(t, err)
	assert.Len(t, adapters, 2)

	tools, err := m.List(ctx, "tool:")
	assert.NoError(t, err)
	assert.Len(t, tools, 1)
}

func TestTypedStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryStore()
	typed := NewTypedStore[testRecord](backend, "adapter:")

	_, ok, err := typed.TryGet(ctx, "search")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, typed.Upsert(ctx, "search", testRecord{Name: "search", Value: 1}))

	rec, ok, err := typed.TryGet(ctx, "search")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, testRecord{Name: "search", Value: 1}, rec)

	assert.NoError(t, typed.Delete(ctx, "search"))
	_, ok, _ = typed.TryGet(ctx, "search")
	assert.False(t, ok)
}

func TestTypedStoreListDropsUnmarshalableEntries(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryStore()
	typed := NewTypedStore[testRecord](backend, "adapter:")

	assert.NoError(t, backend.Upsert(ctx, "adapter:valid", []byte(`{"name":"valid","value":1}`)))
	assert.NoError(t, backend.Upsert(ctx, "adapter:corrupt", []byte(`not-json`)))

	records, err := typed.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, "valid", records[0].Name)
}

func TestTypedStoreKeysDoNotCollideAcrossPrefixes(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryStore()
	adapters := NewTypedStore[testRecord](backend, "adapter:")
	tools := NewTypedStore[testRecord](backend, "tool:")

	assert.NoError(t, adapters.Upsert(ctx, "search", testRecord{Name: "search", Value: 1}))
	assert.NoError(t, tools.Upsert(ctx, "search", testRecord{Name: "search", Value: 2}))

	a, _, _ := adapters.TryGet(ctx, "search")
	tl, _, _ := tools.TryGet(ctx, "search")
	assert.Equal(t, 1, a.Value)
	assert.Equal(t, 2, tl.Value)
}
