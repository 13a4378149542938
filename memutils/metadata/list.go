package metadata

import (
	"fmt"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/arsenal/malloc/memutils"
)

// BlockList is the insertion-ordered registry of every block carved from the
// heap. Blocks are appended as they are carved at the heap boundary and are
// only ever removed from the tail, so insertion order and address order
// coincide and the list walk visits blocks in ascending address order.
//
// The list owns no memory- every BlockHeader it links lives in the heap
// region it describes. It performs no locking of its own; the allocator holds
// its guard across every call.
type BlockList struct {
	head *BlockHeader
	tail *BlockHeader

	blockAlignment uint
	blockCount     int
}

// Init must be called before the BlockList is used. blockAlignment is the
// power-of-two boundary every block footprint is rounded to; it must be at
// least HeaderAlignment so that consecutive headers stay addressable.
func (l *BlockList) Init(blockAlignment uint) {
	memutils.DebugCheckPow2(blockAlignment, "blockAlignment")

	l.head = nil
	l.tail = nil
	l.blockAlignment = blockAlignment
	l.blockCount = 0
}

// Head returns the oldest block in the registry, or nil when it is empty.
func (l *BlockList) Head() *BlockHeader { return l.head }

// Tail returns the most-recently-carved block still present, or nil.
func (l *BlockList) Tail() *BlockHeader { return l.tail }

// BlockCount returns the number of blocks in the registry, free or in use.
func (l *BlockList) BlockCount() int { return l.blockCount }

// IsEmpty will return true if the registry tracks no blocks at all.
func (l *BlockList) IsEmpty() bool { return l.head == nil }

// FootprintFor returns the number of heap bytes a block with the provided
// payload size occupies: its header plus the payload (and the debug margin,
// in debug builds) rounded up to the block alignment. The same value is used
// to extend the heap when carving and to shrink it when reclaiming, so the
// boundary arithmetic always balances.
func (l *BlockList) FootprintFor(size int) int {
	return HeaderSize + memutils.AlignUp(size+memutils.DebugMargin, l.blockAlignment)
}

// Footprint returns FootprintFor the block's recorded payload size.
func (l *BlockList) Footprint(header *BlockHeader) int {
	return l.FootprintFor(header.size)
}

// FindReusable scans from the head in insertion order and returns the first
// free block whose recorded size is at least size, or nil if none qualifies.
// An oversized block is handed back whole- the registry never splits a free
// block, trading internal fragmentation for simplicity.
func (l *BlockList) FindReusable(size int) *BlockHeader {
	for curr := l.head; curr != nil; curr = curr.next {
		if curr.free && curr.size >= size {
			return curr
		}
	}

	return nil
}

// PushBack appends a freshly-carved block to the registry. The block must
// have been carved at the heap boundary, immediately after the current tail.
func (l *BlockList) PushBack(header *BlockHeader) {
	if l.head == nil {
		l.head = header
	}
	if l.tail != nil {
		l.tail.next = header
	}
	l.tail = header
	l.blockCount++
}

// PopBack unlinks and returns the tail block, or nil when the registry is
// empty. The tail's predecessor is located with a scan from the head- removal
// only ever happens at the tail, so the walk always terminates there.
func (l *BlockList) PopBack() *BlockHeader {
	removed := l.tail
	if removed == nil {
		return nil
	}

	if l.head == removed {
		l.head = nil
		l.tail = nil
	} else {
		for curr := l.head; curr != nil; curr = curr.next {
			if curr.next == removed {
				curr.next = nil
				l.tail = curr
				break
			}
		}
	}

	l.blockCount--
	return removed
}

// VisitAllBlocks calls handleBlock once for each registry entry in insertion
// order, stopping at the first error and returning it.
func (l *BlockList) VisitAllBlocks(handleBlock func(header *BlockHeader) error) error {
	for curr := l.head; curr != nil; curr = curr.next {
		err := handleBlock(curr)
		if err != nil {
			return err
		}
	}

	return nil
}

// Clear drops every block from the registry without touching the heap. The
// caller is responsible for returning the backing memory.
func (l *BlockList) Clear() {
	l.head = nil
	l.tail = nil
	l.blockCount = 0
}

// Validate performs internal consistency checks on the registry. When the
// allocator is functioning correctly it should not be possible for this
// method to return an error, but it may assist in diagnosing issues.
func (l *BlockList) Validate() error {
	if (l.head == nil) != (l.tail == nil) {
		return errors.Errorf("the registry head is %s but the tail is %s- they must be empty together", formatBlockPointer(l.head), formatBlockPointer(l.tail))
	}

	if l.tail != nil && l.tail.next != nil {
		return errors.Errorf("the tail block at %s has a successor at %s", formatBlockPointer(l.tail), formatBlockPointer(l.tail.next))
	}

	var count int
	var last *BlockHeader
	var prevEnd uintptr

	for curr := l.head; curr != nil; curr = curr.next {
		addr := uintptr(unsafe.Pointer(curr))
		if count > 0 && addr < prevEnd {
			return errors.Errorf("the block at %#x overlaps its predecessor, which ends at %#x", addr, prevEnd)
		}

		prevEnd = addr + uintptr(l.Footprint(curr))
		last = curr
		count++

		if count > l.blockCount {
			return errors.Errorf("walked more than the registry's declared %d blocks without reaching the tail", l.blockCount)
		}
	}

	if count != l.blockCount {
		return errors.Errorf("the registry declares %d blocks but %d are reachable from the head", l.blockCount, count)
	}

	if last != l.tail {
		return errors.Errorf("the walk from the head ended at %s, not at the tail %s", formatBlockPointer(last), formatBlockPointer(l.tail))
	}

	return nil
}

// AddStatistics sums this registry's block population into the statistics
// currently present in the provided memutils.Statistics object.
func (l *BlockList) AddStatistics(stats *memutils.Statistics) {
	stats.BlockCount += l.blockCount

	for curr := l.head; curr != nil; curr = curr.next {
		stats.HeapBytes += l.Footprint(curr)
		if !curr.free {
			stats.AllocationCount++
			stats.AllocationBytes += curr.size
		}
	}
}

// AddDetailedStatistics sums this registry's block population into the
// statistics currently present in the provided memutils.DetailedStatistics
// object.
func (l *BlockList) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	stats.BlockCount += l.blockCount

	for curr := l.head; curr != nil; curr = curr.next {
		stats.HeapBytes += l.Footprint(curr)
		if curr.free {
			stats.AddFreeBlock(curr.size)
		} else {
			stats.AddAllocation(curr.size)
		}
	}
}

// BlockListJson populates a json object with the head and tail addresses and
// one entry per block, in insertion order.
func (l *BlockList) BlockListJson(json jwriter.ObjectState) {
	json.Name("Head").String(formatBlockPointer(l.head))
	json.Name("Tail").String(formatBlockPointer(l.tail))

	arr := json.Name("Blocks").Array()
	defer arr.End()

	for curr := l.head; curr != nil; curr = curr.next {
		o := arr.Object()
		o.Name("Address").String(formatBlockPointer(curr))
		o.Name("PayloadAddress").String(fmt.Sprintf("%p", curr.Payload()))
		o.Name("Size").Int(curr.size)
		o.Name("IsFree").Bool(curr.free)
		o.Name("Next").String(formatBlockPointer(curr.next))
		o.End()
	}
}

func formatBlockPointer(header *BlockHeader) string {
	if header == nil {
		return "0x0"
	}

	return fmt.Sprintf("%p", unsafe.Pointer(header))
}
