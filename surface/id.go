package surface

import (
	"bytes"

	"github.com/google/uuid"
)

// An ID names a bitmap in a Registry.
type ID uuid.UUID

// NewID returns a fresh random ID.
func NewID() ID {
	return ID(uuid.New())
}

// ParseID decodes the textual form of an ID.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	return ID(u), err
}

func (id ID) String() string {
	return uuid.UUID(id).String()
}

// Less orders IDs, for taking the locks of two bitmaps in a fixed order.
func (id ID) Less(o ID) bool {
	return bytes.Compare(id[:], o[:]) < 0
}
