//go:build unix

package surface

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// PageProtector maps DIB memory as anonymous pages and
// protects it with mprotect.
type PageProtector struct{}

// DefaultProtector returns the best protector for the platform.
func DefaultProtector() Protector {
	return PageProtector{}
}

func (PageProtector) Alloc(n int) ([]byte, error) {
	pg := unix.Getpagesize()
	size := (n + pg - 1) / pg * pg
	if size == 0 {
		size = pg
	}
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap %d bytes: %w", size, err)
	}
	return b[:n], nil
}

func (PageProtector) Free(b []byte) error {
	return unix.Munmap(b[:cap(b)])
}

func (PageProtector) Protect(b []byte, m Mode) error {
	prot := unix.PROT_READ | unix.PROT_WRITE
	switch m {
	case ReadOnly:
		prot = unix.PROT_READ
	case NoAccess:
		prot = unix.PROT_NONE
	}
	return unix.Mprotect(b[:cap(b)], prot)
}

func (PageProtector) Traps() bool { return true }
