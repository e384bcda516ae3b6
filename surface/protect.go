package surface

// A Protector allocates DIB memory and controls access to it.
//
// A protector that Traps turns application access to protected memory
// into a fault the Registry can resolve (see Registry.Guard).
// One that does not relies on callers announcing their accesses
// with Bitmap.Access.
type Protector interface {
	Alloc(n int) ([]byte, error)
	Free(b []byte) error
	Protect(b []byte, m Mode) error
	Traps() bool
}

// Unprotected keeps DIB memory on the Go heap and never restricts it.
type Unprotected struct{}

func (Unprotected) Alloc(n int) ([]byte, error)    { return make([]byte, n), nil }
func (Unprotected) Free(b []byte) error            { return nil }
func (Unprotected) Protect(b []byte, m Mode) error { return nil }
func (Unprotected) Traps() bool                    { return false }
