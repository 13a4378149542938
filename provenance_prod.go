//go:build !debug_malloc

package malloc

import (
	"unsafe"

	"github.com/vkngwrapper/arsenal/malloc/memutils/metadata"
)

// allocationIndex tracks live payload pointers so that misuse of Free and
// Realloc can be caught. In builds without the debug_malloc tag it holds
// nothing and every method no-ops: pointer provenance is the caller's
// responsibility, as in the classic malloc contract.
type allocationIndex struct{}

func (x *allocationIndex) init()                            {}
func (x *allocationIndex) add(header *metadata.BlockHeader) {}
func (x *allocationIndex) remove(ptr unsafe.Pointer)        {}
func (x *allocationIndex) verify(ptr unsafe.Pointer)        {}
func (x *allocationIndex) clear()                           {}
