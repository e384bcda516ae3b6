package surface

import (
	"errors"
	"log"
	"runtime/debug"
)

// MaxFaults bounds the faults Guard resolves for one call.
const MaxFaults = 16

var ErrFaultLoop = errors.New("too many faults on DIB memory")

// HandleFault resolves an access fault at addr. If addr lies in the
// memory of a registered bitmap and that memory is protected against
// the access, the bitmap is brought to InSync for a read or AppMod
// for a write and HandleFault reports true: the access may be retried.
// Otherwise the fault is not the registry's and it reports false.
func (r *Registry) HandleFault(addr uintptr, write bool) bool {
	b := r.find(addr)
	if b == nil {
		return false
	}
	req := InSync
	if write {
		req = AppMod
	}
	b.mu.Lock()
	st := b.state
	b.mu.Unlock()
	switch {
	case st == GdiMod:
	case st == InSync && write:
	default:
		return false
	}
	if Debug {
		log.Printf("surface: %v: fault at %#x in %v, write=%v", b.ID, addr, st, write)
	}
	b.Lock(req, false)
	b.Unlock(true)
	return true
}

// A faultError is what the runtime panics with on a memory fault
// when SetPanicOnFault is enabled.
type faultError interface {
	error
	Addr() uintptr
}

// Guard runs fn, which may touch the DIB memory of registered bitmaps
// directly, resolving the faults that protected memory raises.
// After each resolved fault fn is run again from the start, so it must
// be safe to repeat. A fault does not say whether it was a read or a
// write: memory that allows no access is first made readable, memory
// that is read-only is made writable. Panics that are not faults on
// registered memory are passed on.
func (r *Registry) Guard(fn func()) error {
	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	for i := 0; i < MaxFaults; i++ {
		if !r.try(fn) {
			return nil
		}
	}
	return ErrFaultLoop
}

// try runs fn and reports whether it faulted on memory the registry
// has since made accessible.
func (r *Registry) try(fn func()) (retry bool) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		f, ok := v.(faultError)
		if !ok {
			panic(v)
		}
		b := r.find(f.Addr())
		if b == nil || !r.HandleFault(f.Addr(), b.State() == InSync) {
			panic(v)
		}
		retry = true
	}()
	fn()
	return false
}
