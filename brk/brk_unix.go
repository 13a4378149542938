//go:build unix

package brk

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// MmapBrk is a Brk implementation backed by a single anonymous private
// mapping. The whole capacity is reserved up front and the boundary moves
// inside it, which gives the same guarantee sbrk gives a process: block
// addresses stay stable while the heap grows and shrinks.
type MmapBrk struct {
	ArenaBrk
	mapping []byte
}

// NewMmapBrk maps capacity bytes of anonymous memory and places the boundary
// at the start of the mapping.
func NewMmapBrk(capacity int) (*MmapBrk, error) {
	if capacity <= 0 {
		return nil, errors.Errorf("mapping capacity must be positive, but %d was requested", capacity)
	}

	mapping, err := unix.Mmap(-1, 0, capacity, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to map %d bytes of anonymous memory", capacity)
	}

	return &MmapBrk{
		ArenaBrk: ArenaBrk{region: mapping},
		mapping:  mapping,
	}, nil
}

// Close returns the mapping to the operating system. No memory obtained from
// this heap may be touched afterward.
func (b *MmapBrk) Close() error {
	if b.mapping == nil {
		return nil
	}

	err := unix.Munmap(b.mapping)
	b.mapping = nil
	b.region = nil
	b.used = 0
	return err
}
