package surface

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrCollision = errors.New("bitmap already registered")
	ErrNotFound  = errors.New("bitmap not registered")
	ErrClosed    = errors.New("registry closed")
)

// A Registry maps IDs to bitmaps. Its lock is held only to insert,
// find or remove entries, never while pixels are copied.
type Registry struct {
	mu      sync.Mutex
	bitmaps map[ID]*Bitmap
	closed  bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{bitmaps: make(map[ID]*Bitmap)}
}

// Create registers b. If a bitmap with the same ID is already
// registered, Create returns it along with ErrCollision; the caller
// may choose to use it instead.
func (r *Registry) Create(b *Bitmap) (*Bitmap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if old, ok := r.bitmaps[b.ID]; ok {
		return old, fmt.Errorf("surface: %v: %w", b.ID, ErrCollision)
	}
	r.bitmaps[b.ID] = b
	return b, nil
}

// Lookup returns the bitmap registered as id.
func (r *Registry) Lookup(id ID) (*Bitmap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bitmaps[id]
	if !ok {
		return nil, fmt.Errorf("surface: %v: %w", id, ErrNotFound)
	}
	return b, nil
}

// Delete unregisters id and returns its bitmap, which the caller
// then owns.
func (r *Registry) Delete(id ID) (*Bitmap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bitmaps[id]
	if !ok {
		return nil, fmt.Errorf("surface: %v: %w", id, ErrNotFound)
	}
	delete(r.bitmaps, id)
	return b, nil
}

// Destroy unregisters id, brings its bitmap in sync, and frees
// its surface and memory.
func (r *Registry) Destroy(id ID) error {
	b, err := r.Delete(id)
	if err != nil {
		return err
	}
	if err := b.release(); err != nil {
		return fmt.Errorf("surface: %v: %w", id, err)
	}
	return nil
}

// Len returns the number of registered bitmaps.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bitmaps)
}

// Close destroys every registered bitmap. The registry accepts no
// new bitmaps afterward.
func (r *Registry) Close() error {
	r.mu.Lock()
	r.closed = true
	bitmaps := r.bitmaps
	r.bitmaps = make(map[ID]*Bitmap)
	r.mu.Unlock()

	var first error
	for id, b := range bitmaps {
		if err := b.release(); err != nil && first == nil {
			first = fmt.Errorf("surface: %v: %w", id, err)
		}
	}
	return first
}

// find returns the bitmap whose memory holds addr, or nil.
func (r *Registry) find(addr uintptr) *Bitmap {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bitmaps {
		if b.Contains(addr) {
			return b
		}
	}
	return nil
}
