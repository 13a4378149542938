//go:build debug_malloc

package malloc

import (
	"fmt"
	"unsafe"

	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/arsenal/malloc/memutils/metadata"
)

// allocationIndex tracks live payload pointers so that misuse of Free and
// Realloc can be caught. With the debug_malloc tag present it panics on
// double frees and on pointers this allocator never handed out. That is a
// deliberate divergence from the release contract, where both are undefined
// behavior.
type allocationIndex struct {
	owned *swiss.Map[uintptr, *metadata.BlockHeader]
}

func (x *allocationIndex) init() {
	x.owned = swiss.NewMap[uintptr, *metadata.BlockHeader](42)
}

func (x *allocationIndex) add(header *metadata.BlockHeader) {
	x.owned.Put(uintptr(header.Payload()), header)
}

func (x *allocationIndex) remove(ptr unsafe.Pointer) {
	x.verify(ptr)
	x.owned.Delete(uintptr(ptr))
}

func (x *allocationIndex) verify(ptr unsafe.Pointer) {
	_, ok := x.owned.Get(uintptr(ptr))
	if !ok {
		panic(fmt.Sprintf("the pointer %p is not a live allocation from this allocator", ptr))
	}
}

func (x *allocationIndex) clear() {
	x.owned = nil
}
