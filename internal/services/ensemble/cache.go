package ensemble

import (
	"context"
	"sync"

	domrepo "Lenxys/internal/domain/repository"
)

// ModelCache memoizes loaded model handles by id. Loads for a missing id may
// race; the first stored handle wins and later callers observe it.
type ModelCache struct {
	loader  domrepo.ModelLoader
	handles sync.Map // model id -> domrepo.ModelHandle
}

// NewModelCache creates a cache in front of loader.
func NewModelCache(loader domrepo.ModelLoader) *ModelCache {
	return &ModelCache{loader: loader}
}

// GetOrLoad returns the cached handle for id, loading it on first use.
// Load errors are not cached.
func (c *ModelCache) GetOrLoad(ctx context.Context, id string) (domrepo.ModelHandle, error) {
	if h, ok := c.handles.Load(id); ok {
		return h.(domrepo.ModelHandle), nil
	}
	h, err := c.loader.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	actual, _ := c.handles.LoadOrStore(id, h)
	return actual.(domrepo.ModelHandle), nil
}

// Invalidate drops one model so the next use reloads its artifact.
func (c *ModelCache) Invalidate(id string) {
	c.handles.Delete(id)
}

// Reset drops every cached model.
func (c *ModelCache) Reset() {
	c.handles.Range(func(k, _ any) bool {
		c.handles.Delete(k)
		return true
	})
}

// Len returns the number of cached handles.
func (c *ModelCache) Len() int {
	n := 0
	c.handles.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
