package malloc_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/malloc/memutils"
)

func TestFreeNilIsNoOp(t *testing.T) {
	allocator, heap := createTestAllocator(t, 1024)

	allocator.Free(nil)
	require.Equal(t, 0, heap.BytesExtended())
	require.NoError(t, allocator.Validate())
}

func TestFreeTrailingBlockReclaimsHeap(t *testing.T) {
	allocator, heap := createTestAllocator(t, 1024)

	ptr, err := allocator.Alloc(40)
	require.NoError(t, err)
	require.Equal(t, blockFootprint(40), heap.BytesExtended())

	allocator.Free(ptr)

	// The boundary is back at its pre-allocation value and the registry is empty
	require.Equal(t, 0, heap.BytesExtended())
	dump := allocator.BuildStatsString()
	require.True(t, strings.Contains(dump, `"Head":"0x0"`), dump)
	require.True(t, strings.Contains(dump, `"Tail":"0x0"`), dump)

	var stats memutils.Statistics
	stats.Clear()
	allocator.AddStatistics(&stats)
	require.Equal(t, memutils.Statistics{}, stats)

	require.NoError(t, allocator.Destroy())
}

func TestFreeNonTrailingBlockStaysRegistered(t *testing.T) {
	allocator, heap := createTestAllocator(t, 1024)

	first, err := allocator.Alloc(24)
	require.NoError(t, err)
	_, err = allocator.Alloc(24)
	require.NoError(t, err)
	extended := heap.BytesExtended()

	allocator.Free(first)

	require.Equal(t, extended, heap.BytesExtended())

	var stats memutils.DetailedStatistics
	stats.Clear()
	allocator.AddDetailedStatistics(&stats)
	require.Equal(t, 2, stats.BlockCount)
	require.Equal(t, 1, stats.AllocationCount)
	require.Equal(t, 1, stats.FreeBlockCount)
	require.Equal(t, 24, stats.FreeBlockSizeMin)

	require.NoError(t, allocator.Validate())
}

func TestFreeDoesNotCascadeReclaim(t *testing.T) {
	allocator, heap := createTestAllocator(t, 1024)

	first, err := allocator.Alloc(32)
	require.NoError(t, err)
	second, err := allocator.Alloc(48)
	require.NoError(t, err)

	allocator.Free(first)
	allocator.Free(second)

	// The second block was trailing and went back to the heap. The first block
	// is now trailing and free, but it is not reclaimed until something acts
	// on it again.
	require.Equal(t, blockFootprint(32), heap.BytesExtended())

	var stats memutils.DetailedStatistics
	stats.Clear()
	allocator.AddDetailedStatistics(&stats)
	require.Equal(t, 1, stats.BlockCount)
	require.Equal(t, 1, stats.FreeBlockCount)

	// A later allocation picks the stranded block up again
	reused, err := allocator.Alloc(32)
	require.NoError(t, err)
	require.Equal(t, first, reused)

	require.NoError(t, allocator.Validate())
}

func TestDestroyReportsLeaks(t *testing.T) {
	allocator, _ := createTestAllocator(t, 1024)

	ptr, err := allocator.Alloc(16)
	require.NoError(t, err)

	err = allocator.Destroy()
	require.Error(t, err)

	// The allocator survives a failed Destroy
	allocator.Free(ptr)
	require.NoError(t, allocator.Destroy())
}

func TestDestroyReturnsStrandedFreeBlocks(t *testing.T) {
	allocator, heap := createTestAllocator(t, 4096)

	first, err := allocator.Alloc(16)
	require.NoError(t, err)
	second, err := allocator.Alloc(32)
	require.NoError(t, err)
	third, err := allocator.Alloc(64)
	require.NoError(t, err)

	allocator.Free(first)
	allocator.Free(second)
	allocator.Free(third)

	// Only the third block was trailing when freed; the other two are stranded
	require.Equal(t, blockFootprint(16)+blockFootprint(32), heap.BytesExtended())

	require.NoError(t, allocator.Destroy())
	require.Equal(t, 0, heap.BytesExtended())
}

func TestBuildStatsStringListsBlocksInOrder(t *testing.T) {
	allocator, _ := createTestAllocator(t, 1024)

	first, err := allocator.Alloc(4)
	require.NoError(t, err)
	_, err = allocator.Alloc(8)
	require.NoError(t, err)

	allocator.Free(first)

	dump := allocator.BuildStatsString()
	require.True(t, strings.Contains(dump, `"Size":4`), dump)
	require.True(t, strings.Contains(dump, `"Size":8`), dump)
	require.True(t, strings.Contains(dump, `"IsFree":true`), dump)
	require.True(t, strings.Contains(dump, `"IsFree":false`), dump)
	require.True(t, strings.Contains(dump, `"BlockCount":2`), dump)
	require.True(t, strings.Contains(dump, `"AllocationCount":1`), dump)

	require.Less(t, strings.Index(dump, `"Size":4`), strings.Index(dump, `"Size":8`), "blocks must be dumped in insertion order")
}
