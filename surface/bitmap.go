// Package surface keeps the DIB memory of a bitmap and the native
// surface shadowing it coherent.
//
// Each Bitmap is in one of four states (see State). Operations take the
// bitmap's lock for the state they need, which copies pixels between
// the two representations as required, and release it when done.
// Application access to the DIB memory itself is caught by page
// protection and resolved by the Registry.
package surface

import (
	"fmt"
	"log"
	"sync"

	"dibsync.org/go/dib"
	"dibsync.org/go/dib/conv"
	"dibsync.org/go/native"
)

// Debug enables logging of every state transition.
var Debug = false

// Stats counts the pixel copies a bitmap has made.
type Stats struct {
	ToSurface int // DIB memory copied to the surface
	ToDIB     int // surface copied to DIB memory
}

// A Bitmap is DIB memory in a declared format, optionally shadowed
// by a native surface.
type Bitmap struct {
	ID     ID
	Width  int
	Height int
	Format dib.Format

	mu      sync.Mutex
	colors  dib.ColorTable
	state   State
	prev    State
	intent  State
	mem     []byte
	stride  int
	prot    Protector
	surf    native.Surface
	backend native.Backend
	toSurf  conv.Map // DIB value to surface value, for indexed DIBs
	toDIB   conv.Map // surface value to DIB value, for indexed surfaces
	stats   Stats
}

// New allocates the DIB memory for a width×height bitmap in format f
// through prot. An indexed bitmap without colors gets the default
// palette for its depth. The bitmap starts in state None.
func New(width, height int, f dib.Format, colors dib.ColorTable, prot Protector) (*Bitmap, error) {
	if err := f.Valid(); err != nil {
		return nil, fmt.Errorf("surface: %w", err)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("surface: bad size %dx%d", width, height)
	}
	if prot == nil {
		prot = Unprotected{}
	}
	stride := dib.Stride(width, f.Depth)
	mem, err := prot.Alloc(stride * height)
	if err != nil {
		return nil, fmt.Errorf("surface: %w", err)
	}
	b := &Bitmap{
		ID:     NewID(),
		Width:  width,
		Height: height,
		Format: f,
		mem:    mem,
		stride: stride,
		prot:   prot,
	}
	if f.Indexed() {
		if len(colors) == 0 {
			colors = native.DefaultPalette(f.Depth)
		}
		if len(colors) > f.Colors() {
			colors = colors[:f.Colors()]
		}
		b.colors = colors.Clone()
	}
	return b, nil
}

// Attach makes s, created by backend, the surface shadowing b.
// The DIB memory is authoritative until the surface is first drawn to,
// so b enters state AppMod.
func (b *Bitmap) Attach(s native.Surface, backend native.Backend) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.surf != nil {
		return fmt.Errorf("surface: %v already has a surface", b.ID)
	}
	if s.Bounds() != dib.Rect(0, 0, b.Width, b.Height) {
		return fmt.Errorf("surface: %v: surface bounds %v for %dx%d bitmap", b.ID, s.Bounds(), b.Width, b.Height)
	}
	b.surf = s
	b.backend = backend
	if err := b.buildMaps(); err != nil {
		b.surf, b.backend = nil, nil
		return err
	}
	b.state = AppMod
	if Debug {
		log.Printf("surface: %v: attached %v surface, AppMod", b.ID, s.Format())
	}
	return nil
}

func (b *Bitmap) buildMaps() error {
	b.toSurf, b.toDIB = nil, nil
	sf := b.surf.Format()
	if b.Format.Indexed() {
		m, err := conv.Build(conv.Explicit, sf.Depth, conv.Source{Colors: b.colors}, 0, len(b.colors), native.Resolver{Surface: b.surf})
		if err != nil {
			return fmt.Errorf("surface: %v: %w", b.ID, err)
		}
		b.toSurf = m
	}
	if sf.Indexed() {
		pal := b.surf.Palette()
		m, err := conv.Build(conv.Explicit, b.Format.Depth, conv.Source{Colors: pal}, 0, len(pal), b.DIBResolver())
		if err != nil {
			return fmt.Errorf("surface: %v: %w", b.ID, err)
		}
		b.toDIB = m
	}
	return nil
}

// DIBResolver resolves colors to pixel values of b's DIB format.
// It reads b's color table, so b must be locked while it is used.
func (b *Bitmap) DIBResolver() conv.Resolver {
	return conv.FormatResolver{Format: b.Format, Colors: b.colors}
}

// Bits returns the DIB memory. The application may read and write it
// directly; with a trapping protector those accesses must happen under
// Registry.Guard, otherwise they must be announced with Access.
func (b *Bitmap) Bits() []byte {
	return b.mem
}

// Stride returns the length of a row of DIB memory in bytes.
func (b *Bitmap) Stride() int {
	return b.stride
}

// Contains reports whether addr lies in b's DIB memory.
func (b *Bitmap) Contains(addr uintptr) bool {
	if cap(b.mem) == 0 {
		return false
	}
	base := addrOf(b.mem)
	return base <= addr && addr < base+uintptr(cap(b.mem))
}

// State returns b's coherency state.
// It must not be called while holding b's lock.
func (b *Bitmap) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// StateLocked returns b's coherency state to the holder of its lock.
func (b *Bitmap) StateLocked() State {
	return b.state
}

// Stats returns the number of copies b has made.
func (b *Bitmap) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// Colors returns a copy of b's color table.
func (b *Bitmap) Colors() dib.ColorTable {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.colors.Clone()
}

// Surface returns the surface shadowing b, or nil.
func (b *Bitmap) Surface() native.Surface {
	return b.surf
}

// DIBSpan describes the DIB memory. The caller must hold b's lock
// in a state that allows the access it makes.
func (b *Bitmap) DIBSpan() *conv.Span {
	return &conv.Span{
		Format: b.Format,
		Pix:    b.mem,
		Stride: b.stride,
		Width:  b.Width,
		Rows:   b.Height,
		Colors: b.colors,
	}
}

// SurfaceMap returns the map from DIB values to surface values,
// nil when the DIB is not indexed.
func (b *Bitmap) SurfaceMap() conv.Map {
	return b.toSurf
}

// DIBMap returns the map from surface values to DIB values,
// nil when the surface is not indexed.
func (b *Bitmap) DIBMap() conv.Map {
	return b.toDIB
}

// Lock takes b's lock and brings b to state req, returning the state
// it was in. If lossy is set the caller promises to overwrite the whole
// bitmap, so stale pixels need not be copied. The lock is held until
// Unlock; a read and a write take the same lock.
func (b *Bitmap) Lock(req State, lossy bool) State {
	b.mu.Lock()
	b.prev = b.state
	b.intent = req
	b.coerce(req, lossy)
	return b.prev
}

// Unlock releases b's lock. With commit false the operation failed and
// b returns to the state it was in before Lock. With commit true the
// protection matching the new state is reasserted, so that the next
// application access is seen. Unlock never copies: DIB memory left
// ahead reaches the surface on the next GdiMod Lock.
func (b *Bitmap) Unlock(commit bool) {
	defer b.mu.Unlock()
	if b.state == None {
		return
	}
	if !commit {
		if b.state != b.prev && b.prev != None {
			if Debug {
				log.Printf("surface: %v: rollback %v -> %v", b.ID, b.state, b.prev)
			}
			if b.protect(b.prev.mode()) {
				b.state = b.prev
			}
		}
		return
	}
	if b.intent == GdiMod && b.state == GdiMod {
		b.protect(NoAccess)
	}
}

// Access announces that the application is about to read or, if write
// is set, write the DIB memory. It is the explicit path for protectors
// that do not trap.
func (b *Bitmap) Access(write bool) {
	req := InSync
	if write {
		req = AppMod
	}
	b.Lock(req, false)
	b.Unlock(true)
}

// coerce moves b to state req. Must hold b.mu.
func (b *Bitmap) coerce(req State, lossy bool) {
	from := b.state
	if from == None || from == req {
		return
	}
	switch from {
	case InSync:
		switch req {
		case GdiMod:
			if !b.protect(NoAccess) {
				return
			}
		case AppMod:
			if !b.protect(ReadWrite) {
				return
			}
		default:
			return
		}
	case GdiMod:
		switch req {
		case InSync:
			if !lossy {
				if !b.protect(ReadWrite) {
					return
				}
				b.copyToDIB()
			}
			if !b.protect(ReadOnly) {
				return
			}
		case AppMod:
			if !b.protect(ReadWrite) {
				return
			}
			if !lossy {
				b.copyToDIB()
			}
		default:
			return
		}
	case AppMod:
		switch req {
		case GdiMod:
			if !lossy {
				if !b.protect(ReadOnly) {
					return
				}
				b.copyToSurface()
			}
			if !b.protect(NoAccess) {
				return
			}
		default:
			// Reading while the application owns the memory needs no copy:
			// it already sees its own writes. The state stays AppMod.
			return
		}
	}
	if Debug {
		log.Printf("surface: %v: %v -> %v lossy=%v", b.ID, from, req, lossy)
	}
	b.state = req
}

// protect sets the protection of the DIB memory. If that fails the
// bitmap can no longer be kept coherent: it is made accessible if
// possible and drops to state None for good.
func (b *Bitmap) protect(m Mode) bool {
	err := b.prot.Protect(b.mem, m)
	if err == nil {
		return true
	}
	log.Printf("surface: %v: protect %v: %v; no longer tracking", b.ID, m, err)
	if m != ReadWrite {
		if err := b.prot.Protect(b.mem, ReadWrite); err != nil {
			log.Printf("surface: %v: protect %v: %v", b.ID, ReadWrite, err)
		}
	}
	b.state = None
	return false
}

func (b *Bitmap) copyToSurface() {
	err := conv.Convert(b.surf.Span(), dib.ZP, b.DIBSpan(), dib.ZP, b.Width, b.Height, b.toSurf)
	if err != nil {
		panic(fmt.Sprintf("surface: %v: DIB to surface: %v", b.ID, err))
	}
	b.stats.ToSurface++
}

func (b *Bitmap) copyToDIB() {
	err := conv.Convert(b.DIBSpan(), dib.ZP, b.surf.Span(), dib.ZP, b.Width, b.Height, b.toDIB)
	if err != nil {
		panic(fmt.Sprintf("surface: %v: surface to DIB: %v", b.ID, err))
	}
	b.stats.ToDIB++
}

// SetColors replaces entries of b's color table from start on and
// returns how many were set. Only the changed entries of the color map
// are rebuilt. The DIB memory becomes authoritative so that the surface
// is regenerated with the new colors when it is next drawn to.
func (b *Bitmap) SetColors(start int, colors dib.ColorTable) (int, error) {
	if !b.Format.Indexed() {
		return 0, nil
	}
	b.Lock(AppMod, false)
	if start < 0 || start >= len(b.colors) {
		b.Unlock(true)
		return 0, nil
	}
	n := copy(b.colors[start:], colors)
	if b.surf != nil {
		src := conv.Source{Colors: b.colors}
		r := native.Resolver{Surface: b.surf}
		if err := b.toSurf.Refresh(conv.Explicit, b.surf.Format().Depth, src, start, start+n, r); err != nil {
			b.Unlock(false)
			return 0, fmt.Errorf("surface: %v: %w", b.ID, err)
		}
		if b.toDIB != nil {
			pal := b.surf.Palette()
			if err := b.toDIB.Refresh(conv.Explicit, b.Format.Depth, conv.Source{Colors: pal}, 0, len(pal), b.DIBResolver()); err != nil {
				b.Unlock(false)
				return 0, fmt.Errorf("surface: %v: %w", b.ID, err)
			}
		}
	}
	b.Unlock(true)
	return n, nil
}

// Free releases the surface and memory of a bitmap that is not
// registered. Registered bitmaps are freed by Registry.Destroy.
func (b *Bitmap) Free() error {
	return b.release()
}

// release brings b to a final state, destroys its surface and frees
// its memory.
func (b *Bitmap) release() error {
	b.Lock(InSync, false)
	defer b.mu.Unlock()
	if b.surf != nil {
		b.backend.Release(b.surf)
		b.surf, b.backend = nil, nil
	}
	b.state = None
	var err error
	if b.mem != nil {
		err = b.prot.Free(b.mem)
		b.mem = nil
	}
	return err
}
