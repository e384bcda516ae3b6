//go:build !unix

package surface

// DefaultProtector returns the best protector for the platform.
func DefaultProtector() Protector {
	return Unprotected{}
}
