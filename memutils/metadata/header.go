package metadata

import (
	"unsafe"
)

// BlockHeader is the bookkeeping record carved into heap memory immediately
// before every payload the allocator hands out. The caller-visible pointer for
// a block is always HeaderSize bytes past its header, so a header can be
// recovered from a payload pointer with plain pointer arithmetic and no side
// lookup.
//
// A header's size is the payload size the caller requested when the block was
// carved. It never changes afterward- resizing allocates a new block rather
// than rewriting an existing header.
type BlockHeader struct {
	size int
	free bool
	next *BlockHeader
}

// HeaderSize is the number of heap bytes a BlockHeader occupies in front of
// its payload.
var HeaderSize = int(unsafe.Sizeof(BlockHeader{}))

// HeaderAlignment is the natural alignment of a BlockHeader. Block footprints
// are rounded to at least this alignment so that a header carved after an
// earlier block always lands on an addressable boundary.
var HeaderAlignment = uint(unsafe.Alignof(BlockHeader{}))

// CarveHeader writes a fresh header at addr, which must be the start of a
// region of at least HeaderSize+size bytes that no other block occupies. The
// new block is in use and unlinked.
func CarveHeader(addr unsafe.Pointer, size int) *BlockHeader {
	header := (*BlockHeader)(addr)
	header.size = size
	header.free = false
	header.next = nil
	return header
}

// HeaderForPayload recovers a block's header from the pointer that was handed
// to the caller. The pointer's provenance is not checked- passing anything
// other than a live payload pointer from this allocator family is undefined.
func HeaderForPayload(payload unsafe.Pointer) *BlockHeader {
	return (*BlockHeader)(unsafe.Add(payload, -HeaderSize))
}

// Payload returns the caller-visible pointer for this block, which begins
// immediately after the header.
func (h *BlockHeader) Payload() unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(h), HeaderSize)
}

// Size returns the payload size in bytes that was requested when this block
// was carved.
func (h *BlockHeader) Size() int { return h.size }

// IsFree returns true if the block is waiting in the registry for reuse.
func (h *BlockHeader) IsFree() bool { return h.free }

// Next returns the block carved immediately after this one, or nil for the
// registry tail.
func (h *BlockHeader) Next() *BlockHeader { return h.next }

// MarkUsed flags the block as handed out to a caller.
func (h *BlockHeader) MarkUsed() { h.free = false }

// MarkFree flags the block as eligible for first-fit reuse.
func (h *BlockHeader) MarkFree() { h.free = true }
