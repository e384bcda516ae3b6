// Package gdi implements the bitmap operations of a graphics device
// interface on top of coherent DIB sections: creating and deleting
// them, setting and getting their bits and color tables, and block
// transfers between them.
//
// Every bitmap the engine creates is DIB memory the application may
// touch directly, shadowed by a native surface that the drawing
// operations work on. The surface package keeps the two in step;
// the operations here only say which side they need.
package gdi

import (
	"errors"
	"fmt"
	"log"

	"dibsync.org/go/dib"
	"dibsync.org/go/dib/conv"
	"dibsync.org/go/native"
	"dibsync.org/go/surface"
)

var ErrNoSource = errors.New("raster operation needs a source")

// Config configures an Engine. Zero fields take their defaults.
type Config struct {
	Backend   native.Backend    // creates native surfaces; default a native.MemBackend
	Protector surface.Protector // guards DIB memory; default surface.DefaultProtector()
	Depth     int               // depth of native surfaces; default 32
}

// An Engine creates DIB sections and owns the registry they live in.
type Engine struct {
	backend native.Backend
	prot    surface.Protector
	depth   int
	reg     *surface.Registry
}

// New returns an engine with an empty registry.
func New(cfg Config) *Engine {
	e := &Engine{
		backend: cfg.Backend,
		prot:    cfg.Protector,
		depth:   cfg.Depth,
		reg:     surface.NewRegistry(),
	}
	if e.backend == nil {
		e.backend = new(native.MemBackend)
	}
	if e.prot == nil {
		e.prot = surface.DefaultProtector()
	}
	if e.depth == 0 {
		e.depth = 32
	}
	return e
}

// Registry returns the registry of e's bitmaps.
func (e *Engine) Registry() *surface.Registry {
	return e.reg
}

// Close destroys every bitmap e created.
func (e *Engine) Close() error {
	return e.reg.Close()
}

// CreateDIBSection creates a bitmap laid out as info describes,
// shadowed by a native surface. For PaletteIndexed usage the color
// table indexes the palette selected into dc, which may be nil.
// The new bitmap's memory is zero and authoritative.
func (e *Engine) CreateDIBSection(dc *DC, info *dib.Info, usage conv.Usage) (*surface.Bitmap, error) {
	f, err := info.Format()
	if err != nil {
		return nil, fmt.Errorf("gdi: CreateDIBSection: %w", err)
	}
	if info.Compressed() {
		return nil, fmt.Errorf("gdi: CreateDIBSection: %w", dib.FormatError(info.Compression.String()+" section"))
	}
	rows, _ := info.Rows()
	if info.Width <= 0 || rows <= 0 {
		return nil, fmt.Errorf("gdi: CreateDIBSection: bad size %dx%d", info.Width, info.Height)
	}
	var colors dib.ColorTable
	if f.Indexed() {
		src := conv.Source{Colors: info.Colors, Indices: info.Indices}
		colors, err = conv.Colors(usage, src, dc.resolver(nil))
		if err != nil {
			return nil, fmt.Errorf("gdi: CreateDIBSection: %w", err)
		}
	}
	b, err := surface.New(info.Width, rows, f, colors, e.prot)
	if err != nil {
		return nil, err
	}
	if _, err := e.reg.Create(b); err != nil {
		if ferr := b.Free(); ferr != nil {
			log.Printf("gdi: CreateDIBSection: %v", ferr)
		}
		return nil, fmt.Errorf("gdi: CreateDIBSection: %w", err)
	}
	s, err := e.backend.NewSurface(b.Width, b.Height, e.depth)
	if err == nil {
		err = b.Attach(s, e.backend)
		if err != nil {
			e.backend.Release(s)
		}
	}
	if err != nil {
		if derr := e.reg.Destroy(b.ID); derr != nil {
			log.Printf("gdi: CreateDIBSection: %v", derr)
		}
		return nil, fmt.Errorf("gdi: CreateDIBSection: %w", err)
	}
	return b, nil
}

// DeleteBitmap destroys the bitmap registered as id after bringing
// its memory up to date.
func (e *Engine) DeleteBitmap(id surface.ID) error {
	return e.reg.Destroy(id)
}
