package native

import (
	"fmt"
	"sync"

	"dibsync.org/go/dib"
	"dibsync.org/go/dib/conv"
)

// MemFormats are the surface formats of a MemBackend, by depth.
var MemFormats = map[int]dib.Format{
	1:  dib.Mono,
	4:  dib.Index4,
	8:  dib.Index8,
	15: {Depth: 15, Red: 0x7C00, Green: 0x03E0, Blue: 0x001F},
	16: dib.RGB565,
	24: dib.RGB24,
	32: dib.XRGB32,
}

// A MemBackend keeps surfaces in ordinary memory, top row first.
// Formats overrides MemFormats for the depths it lists.
type MemBackend struct {
	Formats map[int]dib.Format

	mu   sync.Mutex
	live int
}

type memSurface struct {
	span *conv.Span
	pal  dib.ColorTable
}

func (s *memSurface) Format() dib.Format      { return s.span.Format }
func (s *memSurface) Bounds() dib.Rectangle   { return s.span.Bounds() }
func (s *memSurface) Span() *conv.Span        { return s.span }
func (s *memSurface) Palette() dib.ColorTable { return s.pal }

func (b *MemBackend) format(depth int) (dib.Format, bool) {
	if f, ok := b.Formats[depth]; ok {
		return f, true
	}
	f, ok := MemFormats[depth]
	return f, ok
}

func (b *MemBackend) NewSurface(width, height, depth int) (Surface, error) {
	f, ok := b.format(depth)
	if !ok {
		return nil, fmt.Errorf("native: no %d-bit surface format", depth)
	}
	if err := f.Valid(); err != nil {
		return nil, fmt.Errorf("native: %d-bit surface: %w", depth, err)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("native: bad surface size %dx%d", width, height)
	}
	span := conv.NewSpan(f.WithDir(dib.TopDown), width, height)
	s := &memSurface{span: span, pal: DefaultPalette(f.Depth)}
	span.Colors = s.pal
	b.mu.Lock()
	b.live++
	b.mu.Unlock()
	return s, nil
}

func (b *MemBackend) Release(s Surface) {
	if _, ok := s.(*memSurface); !ok {
		panic(fmt.Sprintf("native: releasing foreign surface %T", s))
	}
	b.mu.Lock()
	b.live--
	b.mu.Unlock()
}

// Live returns the number of surfaces created and not yet released.
func (b *MemBackend) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live
}
