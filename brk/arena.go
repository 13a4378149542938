package brk

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/malloc/memutils"
)

// ArenaBrk is a Brk implementation that moves its boundary inside a single
// reserved byte slice. The full capacity is held for the arena's lifetime, so
// addresses handed out by Extend stay stable no matter how the boundary moves
// afterward. It backs tests and consumers that want an allocator without
// touching the operating system.
type ArenaBrk struct {
	region []byte
	used   int
}

// NewArenaBrk reserves capacity bytes and places the boundary at the start of
// the reservation.
func NewArenaBrk(capacity int) (*ArenaBrk, error) {
	if capacity <= 0 {
		return nil, errors.Errorf("arena capacity must be positive, but %d was requested", capacity)
	}

	return &ArenaBrk{region: make([]byte, capacity)}, nil
}

func (b *ArenaBrk) base() unsafe.Pointer {
	return unsafe.Pointer(&b.region[0])
}

// Extend grows the heap by exactly size bytes and returns the start of the
// fresh region. It returns an error wrapping memutils.OutOfMemoryError when
// the request does not fit in the remaining reservation.
func (b *ArenaBrk) Extend(size int) (unsafe.Pointer, error) {
	if size <= 0 {
		return nil, errors.Errorf("extend size must be positive, but %d was requested", size)
	}

	if b.used+size > len(b.region) {
		return nil, errors.Wrapf(memutils.OutOfMemoryError, "extending by %d bytes would exceed the %d-byte arena", size, len(b.region))
	}

	region := unsafe.Add(b.base(), b.used)
	b.used += size
	return region, nil
}

// Boundary returns the current upper address limit of the heap.
func (b *ArenaBrk) Boundary() unsafe.Pointer {
	return unsafe.Add(b.base(), b.used)
}

// Shrink moves the boundary back by exactly size bytes.
func (b *ArenaBrk) Shrink(size int) error {
	if size < 0 || size > b.used {
		return errors.Errorf("cannot shrink by %d bytes- only %d bytes are extended", size, b.used)
	}

	b.used -= size
	return nil
}

// BytesExtended reports how far the boundary has moved from the arena base.
func (b *ArenaBrk) BytesExtended() int {
	return b.used
}
