package brk

import "unsafe"

// Brk models the classic program-break interface to the operating system: a
// single contiguous heap whose upper boundary moves forward when the process
// asks for more memory and backward when trailing memory is handed back. The
// boundary never moves for any other reason.
//
// Implementations are not required to be safe for concurrent use- the
// allocator serializes every call under its own guard.
type Brk interface {
	// Extend grows the heap by exactly size bytes and returns the start of the
	// fresh region, which is the boundary value from before the call. It
	// returns an error wrapping memutils.OutOfMemoryError when the heap cannot
	// grow any further.
	Extend(size int) (unsafe.Pointer, error)
	// Boundary returns the current upper address limit of the heap. No block
	// ever extends past this address.
	Boundary() unsafe.Pointer
	// Shrink moves the boundary back by exactly size bytes, releasing the
	// trailing region. It is only valid when those bytes were previously
	// extended and no live block still references them.
	Shrink(size int) error
}
