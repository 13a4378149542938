package malloc

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/malloc/brk"
	"github.com/vkngwrapper/arsenal/malloc/internal/utils"
	"github.com/vkngwrapper/arsenal/malloc/memutils"
	"github.com/vkngwrapper/arsenal/malloc/memutils/metadata"
	"golang.org/x/exp/slog"
)

// Allocator is a process-local dynamic memory allocator in the malloc/free
// tradition. It carves arbitrary-size blocks out of a single growable heap
// region, reuses freed blocks first-fit, and returns a freed block's memory
// to the heap-growth service when the block is the physical tail of the heap.
//
// All methods are safe for concurrent use unless the allocator was created
// with AllocatorCreateExternallySynchronized. The guard covers the registry
// and the heap boundary only: callers synchronize their own reads and writes
// of allocated payloads.
type Allocator struct {
	mutex  utils.OptionalMutex
	logger *slog.Logger

	heap   brk.Brk
	blocks metadata.BlockList

	createFlags CreateFlags

	// Populated only in builds with the debug_malloc tag
	liveAllocations allocationIndex
}

// Alloc hands out a block of at least size bytes and returns a pointer to its
// payload. The first free block large enough is reused whole, so the usable
// region may be larger than requested; when no free block fits, the heap is
// extended at the boundary.
//
// A size of zero or less fails with memutils.ZeroSizeError. When the heap
// cannot grow, the error wraps memutils.OutOfMemoryError and no state is
// changed.
func (a *Allocator) Alloc(size int) (unsafe.Pointer, error) {
	if size <= 0 {
		return nil, errors.Wrapf(memutils.ZeroSizeError, "%d bytes requested", size)
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.allocFromHeap(size)
}

// allocFromHeap must be called with the guard held
func (a *Allocator) allocFromHeap(size int) (unsafe.Pointer, error) {
	header := a.blocks.FindReusable(size)
	if header != nil {
		header.MarkUsed()
		a.liveAllocations.add(header)
		return header.Payload(), nil
	}

	region, err := a.heap.Extend(a.blocks.FootprintFor(size))
	if err != nil {
		return nil, err
	}

	header = metadata.CarveHeader(region, size)
	a.blocks.PushBack(header)
	memutils.WriteMagicValue(header.Payload(), size)
	a.liveAllocations.add(header)
	memutils.DebugValidate(&a.blocks)

	return header.Payload(), nil
}

// AllocZero allocates memory for an array of count elements of elementSize
// bytes each and zero-fills the whole requested region before returning it.
// Either argument being zero or less fails with memutils.ZeroSizeError, and a
// count*elementSize product that does not fit in an int fails with
// memutils.SizeOverflowError.
func (a *Allocator) AllocZero(count, elementSize int) (unsafe.Pointer, error) {
	if count <= 0 || elementSize <= 0 {
		return nil, errors.Wrapf(memutils.ZeroSizeError, "%d elements of %d bytes requested", count, elementSize)
	}

	size := count * elementSize
	// Multiply-overflow probe: if the product wrapped, dividing it back out
	// cannot reproduce elementSize
	if elementSize != size/count {
		return nil, errors.Wrapf(memutils.SizeOverflowError, "%d elements of %d bytes requested", count, elementSize)
	}

	region, err := a.Alloc(size)
	if err != nil {
		return nil, err
	}

	payload := unsafe.Slice((*byte)(region), size)
	for i := range payload {
		payload[i] = 0
	}

	return region, nil
}

// Realloc changes the size of the block behind ptr.
//
// A nil ptr delegates to Alloc. A newSize of zero or less fails without
// touching the block, which stays valid and owned by the caller. When the
// block's recorded size already covers newSize, the same pointer is returned
// unchanged- a block's recorded size is never lowered. Otherwise a new block
// is allocated, the old recorded size's worth of bytes is copied across, and
// the old block is freed. If the new allocation fails, the old block is not
// freed.
func (a *Allocator) Realloc(ptr unsafe.Pointer, newSize int) (unsafe.Pointer, error) {
	if newSize <= 0 {
		return nil, errors.Wrapf(memutils.ZeroSizeError, "%d bytes requested", newSize)
	}

	if ptr == nil {
		return a.Alloc(newSize)
	}

	a.mutex.Lock()
	a.liveAllocations.verify(ptr)
	a.mutex.Unlock()

	// The caller owns this block outright until it is freed, so reading its
	// recorded size does not need the guard
	header := metadata.HeaderForPayload(ptr)
	oldSize := header.Size()
	if oldSize >= newSize {
		return ptr, nil
	}

	region, err := a.Alloc(newSize)
	if err != nil {
		// The original block is still valid and still the caller's
		return nil, err
	}

	copy(unsafe.Slice((*byte)(region), oldSize), unsafe.Slice((*byte)(ptr), oldSize))
	a.Free(ptr)

	return region, nil
}

// Free releases the block behind ptr. A nil ptr is a no-op.
//
// When the block's footprint ends at the current heap boundary, its memory is
// returned to the growth service and it leaves the registry; otherwise it is
// marked free in place and becomes eligible for first-fit reuse. Only the
// freed block itself is ever reclaimed: a free block newly exposed at the
// boundary stays registered until it is freed again or reused.
//
// Passing a pointer that did not come from this allocator, or passing the
// same pointer twice without reallocating it in between, is undefined
// behavior. Builds with the debug_malloc tag panic on both instead.
func (a *Allocator) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.liveAllocations.remove(ptr)
	header := metadata.HeaderForPayload(ptr)

	if memutils.DebugMargin > 0 && !memutils.ValidateMagicValue(ptr, header.Size()) {
		panic(fmt.Sprintf("corruption detected in the debug margin behind the block at %p", ptr))
	}

	blockEnd := unsafe.Add(unsafe.Pointer(header), a.blocks.Footprint(header))
	if blockEnd == a.heap.Boundary() {
		// Physically the last block- give the memory back to the heap instead
		// of keeping the block around for reuse
		removed := a.blocks.PopBack()
		if removed != header {
			panic("the block ending at the heap boundary was not the registry tail")
		}

		err := a.heap.Shrink(a.blocks.Footprint(header))
		if err != nil {
			panic(err)
		}

		memutils.DebugValidate(&a.blocks)
		return
	}

	header.MarkFree()
	memutils.DebugValidate(&a.blocks)
}

// AddStatistics sums the allocator's current block population into the
// statistics currently present in the provided memutils.Statistics object.
func (a *Allocator) AddStatistics(stats *memutils.Statistics) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.blocks.AddStatistics(stats)
}

// AddDetailedStatistics sums the allocator's current block population into
// the statistics currently present in the provided
// memutils.DetailedStatistics object.
func (a *Allocator) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.blocks.AddDetailedStatistics(stats)
}

// Validate performs internal consistency checks on the registry and the heap
// boundary. When the allocator is functioning correctly it should not be
// possible for this method to return an error.
func (a *Allocator) Validate() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	err := a.blocks.Validate()
	if err != nil {
		return err
	}

	tail := a.blocks.Tail()
	if tail != nil {
		tailEnd := unsafe.Add(unsafe.Pointer(tail), a.blocks.Footprint(tail))
		if tailEnd != a.heap.Boundary() {
			return errors.Errorf("the tail block ends at %p but the heap boundary is %p", tailEnd, a.heap.Boundary())
		}
	}

	return nil
}

// Destroy tears the allocator down. Every block must have been freed first:
// unreleased blocks are logged and an error is returned without tearing
// anything down. Free blocks still registered from non-trailing frees are
// returned to the growth service in a single shrink.
//
// Destroy does not release the heap reservation itself- that belongs to
// whoever created the Brk.
func (a *Allocator) Destroy() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	var leaked int
	_ = a.blocks.VisitAllBlocks(func(header *metadata.BlockHeader) error {
		if header.IsFree() {
			return nil
		}

		leaked++
		a.logger.LogAttrs(context.Background(), slog.LevelError,
			"[UNRELEASED MEMORY] unfreed block",
			slog.String("address", fmt.Sprintf("%p", header.Payload())),
			slog.Int("size", header.Size()),
		)
		return nil
	})
	if leaked > 0 {
		return errors.Errorf("%d blocks were not freed before the destruction of this allocator", leaked)
	}

	if !a.blocks.IsEmpty() {
		// Every block from the head to the tail's footprint end is one
		// contiguous extended range
		head := unsafe.Pointer(a.blocks.Head())
		tail := a.blocks.Tail()
		tailEnd := unsafe.Add(unsafe.Pointer(tail), a.blocks.Footprint(tail))

		err := a.heap.Shrink(int(uintptr(tailEnd) - uintptr(head)))
		if err != nil {
			return err
		}

		a.blocks.Clear()
	}

	a.liveAllocations.clear()
	a.heap = nil
	return nil
}
