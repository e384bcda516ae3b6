// Dibconv converts a bitmap file to another pixel format.
//
// Usage:
//
//	dibconv [-f format] [-s WxH] [-std] [-v] [-o out.bmp] file.bmp
//
// Dibconv loads file.bmp into a DIB section, copies it into a second
// DIB section in the format given by -f (default x8r8g8b8), stretching
// it to the size given by -s if any, and writes the result to out.bmp
// or standard output. Formats are written in channel notation:
// m1, m4 and m8 for indexed formats, r5g6b5, x1r5g5b5, b8g8r8,
// x8r8g8b8, x8b8g8r8 and so on for direct ones.
//
// By default the output keeps the exact layout of the format, using
// bit-field masks where the format needs them. With -std the result is
// written as a plain 24-bit or 8-bit file any reader understands.
package main // import "dibsync.org/go/cmd/dibconv"

import (
	"bufio"
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"os"

	"dibsync.org/go/dib"
	"dibsync.org/go/dib/conv"
	"dibsync.org/go/gdi"
	"dibsync.org/go/surface"
	"golang.org/x/image/bmp"
)

var (
	format  = flag.String("f", "x8r8g8b8", "output pixel `format`")
	size    = flag.String("s", "", "stretch to `WxH`")
	std     = flag.Bool("std", false, "write a standard 24-bit or 8-bit file")
	verbose = flag.Bool("v", false, "describe input and output")
	output  = flag.String("o", "", "write output to `file`")
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: dibconv [-f format] [-s WxH] [-std] [-v] [-o out.bmp] file.bmp\n")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetPrefix("dibconv: ")
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
	}

	f, err := dib.ParseFormat(*format)
	if err != nil {
		log.Fatal(err)
	}
	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	e := gdi.New(gdi.Config{})
	defer e.Close()

	src, err := load(e, data)
	if err != nil {
		log.Fatalf("%s: %v", flag.Arg(0), err)
	}
	width, height := src.Width, src.Height
	if *size != "" {
		if _, err := fmt.Sscanf(*size, "%dx%d", &width, &height); err != nil || width <= 0 || height <= 0 {
			log.Fatalf("bad size %q", *size)
		}
	}
	dst, err := convert(e, src, f, width, height)
	if err != nil {
		log.Fatal(err)
	}
	if *verbose {
		log.Printf("%s: %dx%d %v", flag.Arg(0), src.Width, src.Height, src.Format)
		log.Printf("output: %dx%d %v", dst.Width, dst.Height, dst.Format)
	}

	w := io.Writer(os.Stdout)
	if *output != "" {
		file, err := os.Create(*output)
		if err != nil {
			log.Fatal(err)
		}
		defer file.Close()
		w = file
	}
	bw := bufio.NewWriter(w)
	if err := encode(bw, dst, *std); err != nil {
		log.Fatal(err)
	}
	if err := bw.Flush(); err != nil {
		log.Fatal(err)
	}
}

// load creates a DIB section holding the bitmap file data.
func load(e *gdi.Engine, data []byte) (*surface.Bitmap, error) {
	info, pix, err := dib.ParseFile(data)
	if err != nil {
		return nil, err
	}
	f, err := info.Format()
	if err != nil {
		return nil, err
	}
	rows, _ := info.Rows()
	b, err := e.CreateDIBSection(nil, dib.NewInfo(info.Width, rows, f, info.Colors), conv.Explicit)
	if err != nil {
		return nil, err
	}
	if _, err := gdi.SetDIBits(nil, b, 0, rows, pix, info, conv.Explicit); err != nil {
		return nil, err
	}
	return b, nil
}

// convert returns a width×height DIB section in format f holding src.
// An indexed result keeps the colors of src if it has the same depth.
func convert(e *gdi.Engine, src *surface.Bitmap, f dib.Format, width, height int) (*surface.Bitmap, error) {
	var colors dib.ColorTable
	if f.Indexed() && src.Format.Indexed() && src.Format.Depth == f.Depth {
		colors = src.Colors()
	}
	dst, err := e.CreateDIBSection(nil, dib.NewInfo(width, height, f, colors), conv.Explicit)
	if err != nil {
		return nil, err
	}
	err = gdi.StretchBlt(gdi.NewDC(dst), 0, 0, width, height, gdi.NewDC(src), 0, 0, src.Width, src.Height, gdi.SRCCOPY)
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// encode writes b as a bitmap file. With std set the file is plain
// 24-bit or 8-bit; otherwise it keeps b's own layout.
func encode(w io.Writer, b *surface.Bitmap, std bool) error {
	if std {
		m, err := toImage(b)
		if err != nil {
			return err
		}
		return bmp.Encode(w, m)
	}
	info := dib.NewInfo(b.Width, b.Height, b.Format, nil)
	bits := make([]byte, info.ImageSize())
	if _, err := gdi.GetDIBits(nil, b, 0, b.Height, bits, info, conv.Explicit); err != nil {
		return err
	}
	_, err := w.Write(info.AppendFile(nil, bits))
	return err
}

// toImage reads b back as an 8-bit paletted image if it is indexed
// and as an RGBA image otherwise.
func toImage(b *surface.Bitmap) (image.Image, error) {
	r := image.Rect(0, 0, b.Width, b.Height)
	if b.Format.Indexed() {
		info := dib.NewInfo(b.Width, b.Height, dib.Index8.WithDir(dib.TopDown), b.Colors())
		bits := make([]byte, info.ImageSize())
		if _, err := gdi.GetDIBits(nil, b, 0, b.Height, bits, info, conv.Explicit); err != nil {
			return nil, err
		}
		return &image.Paletted{Pix: bits, Stride: info.Stride(), Rect: r, Palette: info.Colors.Palette()}, nil
	}
	info := dib.NewInfo(b.Width, b.Height, dib.XBGR32.WithDir(dib.TopDown), nil)
	bits := make([]byte, info.ImageSize())
	if _, err := gdi.GetDIBits(nil, b, 0, b.Height, bits, info, conv.Explicit); err != nil {
		return nil, err
	}
	for i := 3; i < len(bits); i += 4 {
		bits[i] = 0xFF
	}
	return &image.RGBA{Pix: bits, Stride: info.Stride(), Rect: r}, nil
}
