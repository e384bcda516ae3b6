// Dibview displays a bitmap file and lets you draw on it.
//
// Usage:
//
//	dibview file.bmp
//
// The bitmap is loaded into a DIB section whose surface is the window
// buffer. Clicking paints a small square in the brush color. Typing
// i inverts the image and m mirrors it. Typing d halves every byte of
// the DIB memory, writing it directly rather than through a drawing
// call. Typing q or Escape exits.
package main // import "dibsync.org/go/cmd/dibview"

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"

	"dibsync.org/go/dib"
	"dibsync.org/go/dib/conv"
	"dibsync.org/go/gdi"
	"dibsync.org/go/native"
	"dibsync.org/go/surface"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
)

var debug = flag.Bool("d", false, "log state transitions")

func usage() {
	fmt.Fprintf(os.Stderr, "usage: dibview [-d] file.bmp\n")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetPrefix("dibview: ")
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
	}
	surface.Debug = *debug
	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	driver.Main(func(s screen.Screen) {
		if err := view(s, flag.Arg(0), data); err != nil {
			log.Fatal(err)
		}
	})
}

type viewer struct {
	e    *gdi.Engine
	prot surface.Protector
	b    *surface.Bitmap
	dc   *gdi.DC
}

func view(s screen.Screen, name string, data []byte) error {
	prot := surface.DefaultProtector()
	e := gdi.New(gdi.Config{Backend: native.ShinyBackend{Screen: s}, Protector: prot, Depth: 32})
	defer e.Close()

	info, pix, err := dib.ParseFile(data)
	if err != nil {
		return fmt.Errorf("%s: %v", name, err)
	}
	f, err := info.Format()
	if err != nil {
		return fmt.Errorf("%s: %v", name, err)
	}
	rows, _ := info.Rows()
	b, err := e.CreateDIBSection(nil, dib.NewInfo(info.Width, rows, f, info.Colors), conv.Explicit)
	if err != nil {
		return err
	}
	if _, err := gdi.SetDIBits(nil, b, 0, rows, pix, info, conv.Explicit); err != nil {
		return fmt.Errorf("%s: %v", name, err)
	}
	v := &viewer{e: e, prot: prot, b: b, dc: gdi.NewDC(b)}
	v.dc.Brush = dib.RGB{R: 0xFF}

	w, err := s.NewWindow(&screen.NewWindowOptions{
		Title:  name,
		Width:  b.Width,
		Height: b.Height,
	})
	if err != nil {
		return err
	}
	defer w.Release()

	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return nil
			}

		case key.Event:
			if e.Direction != key.DirPress {
				break
			}
			if e.Code == key.CodeEscape || e.Rune == 'q' {
				return nil
			}
			if err := v.command(e.Rune); err != nil {
				log.Print(err)
			}
			w.Send(paint.Event{})

		case mouse.Event:
			if e.Direction != mouse.DirPress {
				break
			}
			x, y := int(e.X), int(e.Y)
			if err := gdi.PatBlt(v.dc, x-2, y-2, 5, 5, gdi.PATCOPY); err != nil {
				log.Print(err)
			}
			w.Send(paint.Event{})

		case paint.Event:
			buf := v.sync()
			w.Upload(image.Point{}, buf, buf.Bounds())
			w.Publish()

		case size.Event:
			w.Send(paint.Event{})

		case error:
			log.Print(e)
		}
	}
}

func (v *viewer) command(r rune) error {
	b := v.b
	switch r {
	case 'i':
		return gdi.PatBlt(v.dc, 0, 0, b.Width, b.Height, gdi.DSTINVERT)
	case 'm':
		return gdi.StretchBlt(v.dc, b.Width-1, 0, -b.Width, b.Height, v.dc, 0, 0, b.Width, b.Height, gdi.SRCCOPY)
	case 'd':
		if !v.prot.Traps() {
			b.Access(true)
		}
		return v.e.Registry().Guard(func() {
			bits := b.Bits()
			for i := range bits {
				bits[i] >>= 1
			}
		})
	}
	return nil
}

// sync brings the window buffer up to date with the bitmap
// and returns it.
func (v *viewer) sync() screen.Buffer {
	v.b.Lock(surface.GdiMod, false)
	defer v.b.Unlock(true)
	s := v.b.Surface().(*native.ShinySurface)
	s.Opaque()
	return s.Buffer()
}
