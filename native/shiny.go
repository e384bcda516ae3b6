package native

import (
	"fmt"
	"image"

	"dibsync.org/go/dib"
	"dibsync.org/go/dib/conv"
	"golang.org/x/exp/shiny/screen"
)

// ScreenFormat is the layout of a shiny buffer: bytes r, g, b, a.
var ScreenFormat = dib.XBGR32.WithDir(dib.TopDown)

// A ShinyBackend makes each surface a screen buffer, ready to be
// uploaded to a window. Only 32-bit surfaces are available.
type ShinyBackend struct {
	Screen screen.Screen
}

// A ShinySurface is a surface backed by a screen buffer.
type ShinySurface struct {
	buf  screen.Buffer
	span *conv.Span
}

func (s *ShinySurface) Format() dib.Format      { return s.span.Format }
func (s *ShinySurface) Bounds() dib.Rectangle   { return s.span.Bounds() }
func (s *ShinySurface) Span() *conv.Span        { return s.span }
func (s *ShinySurface) Palette() dib.ColorTable { return nil }

// Buffer returns the screen buffer holding the pixels.
func (s *ShinySurface) Buffer() screen.Buffer { return s.buf }

// Opaque sets the alpha byte of every pixel, which conversions leave zero.
func (s *ShinySurface) Opaque() {
	pix := s.buf.RGBA().Pix
	for i := 3; i < len(pix); i += 4 {
		pix[i] = 0xFF
	}
}

func (b ShinyBackend) NewSurface(width, height, depth int) (Surface, error) {
	if depth != 32 {
		return nil, fmt.Errorf("native: shiny buffers are 32-bit, not %d-bit", depth)
	}
	buf, err := b.Screen.NewBuffer(image.Pt(width, height))
	if err != nil {
		return nil, fmt.Errorf("native: %w", err)
	}
	rgba := buf.RGBA()
	return &ShinySurface{
		buf: buf,
		span: &conv.Span{
			Format: ScreenFormat,
			Pix:    rgba.Pix,
			Stride: rgba.Stride,
			Width:  width,
			Rows:   height,
		},
	}, nil
}

func (b ShinyBackend) Release(s Surface) {
	ss, ok := s.(*ShinySurface)
	if !ok {
		panic(fmt.Sprintf("native: releasing foreign surface %T", s))
	}
	ss.buf.Release()
}
