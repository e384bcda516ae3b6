package surface

import "fmt"

// State says which copy of a bitmap's pixels is authoritative.
type State int

const (
	None   State = iota // no surface shadows the DIB memory
	InSync              // both copies hold the same pixels; DIB memory is read-only
	GdiMod              // the surface is ahead; DIB memory is inaccessible
	AppMod              // the DIB memory is ahead and writable; the surface is stale
)

var stateNames = [...]string{
	None:   "None",
	InSync: "InSync",
	GdiMod: "GdiMod",
	AppMod: "AppMod",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// mode returns the protection DIB memory carries in state s.
func (s State) mode() Mode {
	switch s {
	case InSync:
		return ReadOnly
	case GdiMod:
		return NoAccess
	}
	return ReadWrite
}

// Mode is a page protection.
type Mode int

const (
	ReadWrite Mode = iota
	ReadOnly
	NoAccess
)

func (m Mode) String() string {
	switch m {
	case ReadWrite:
		return "rw"
	case ReadOnly:
		return "r"
	case NoAccess:
		return "none"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}
