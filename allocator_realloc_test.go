package malloc_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/malloc/memutils"
)

func TestReallocNilPointerAllocates(t *testing.T) {
	allocator, _ := createTestAllocator(t, 1024)

	ptr, err := allocator.Realloc(nil, 32)
	require.NoError(t, err)
	require.NotNil(t, ptr)

	var stats memutils.Statistics
	stats.Clear()
	allocator.AddStatistics(&stats)
	require.Equal(t, 1, stats.BlockCount)
	require.Equal(t, 32, stats.AllocationBytes)
}

func TestReallocRejectsNonPositiveSizes(t *testing.T) {
	allocator, _ := createTestAllocator(t, 1024)

	ptr, err := allocator.Realloc(nil, 0)
	require.ErrorIs(t, err, memutils.ZeroSizeError)
	require.Nil(t, ptr)

	block, err := allocator.Alloc(16)
	require.NoError(t, err)
	payloadBytes(block, 16)[0] = 0x5A

	resized, err := allocator.Realloc(block, 0)
	require.ErrorIs(t, err, memutils.ZeroSizeError)
	require.Nil(t, resized)

	// The old block stays valid and untouched
	require.Equal(t, byte(0x5A), payloadBytes(block, 16)[0])

	var stats memutils.Statistics
	stats.Clear()
	allocator.AddStatistics(&stats)
	require.Equal(t, 1, stats.AllocationCount)
}

func TestReallocShrinkIsNoOp(t *testing.T) {
	allocator, heap := createTestAllocator(t, 1024)

	ptr, err := allocator.Alloc(64)
	require.NoError(t, err)
	extended := heap.BytesExtended()

	for _, newSize := range []int{64, 32, 1} {
		resized, err := allocator.Realloc(ptr, newSize)
		require.NoError(t, err)
		require.Equal(t, ptr, resized)
	}

	require.Equal(t, extended, heap.BytesExtended())

	var stats memutils.Statistics
	stats.Clear()
	allocator.AddStatistics(&stats)
	// The recorded size never moves downward
	require.Equal(t, 64, stats.AllocationBytes)
	require.Equal(t, 1, stats.BlockCount)
}

func TestReallocGrowthPreservesData(t *testing.T) {
	allocator, _ := createTestAllocator(t, 4096)

	const oldSize = 16
	ptr, err := allocator.Alloc(oldSize)
	require.NoError(t, err)

	for i := range payloadBytes(ptr, oldSize) {
		payloadBytes(ptr, oldSize)[i] = byte(i + 1)
	}

	resized, err := allocator.Realloc(ptr, oldSize*2)
	require.NoError(t, err)
	require.NotEqual(t, ptr, resized)

	for i, b := range payloadBytes(resized, oldSize) {
		require.Equal(t, byte(i+1), b)
	}

	// The old block was freed; it was not trailing, so it stays registered
	var stats memutils.DetailedStatistics
	stats.Clear()
	allocator.AddDetailedStatistics(&stats)
	require.Equal(t, 2, stats.BlockCount)
	require.Equal(t, 1, stats.AllocationCount)
	require.Equal(t, 1, stats.FreeBlockCount)

	require.NoError(t, allocator.Validate())
}

func TestReallocFailureKeepsOldBlock(t *testing.T) {
	allocator, _ := createTestAllocator(t, blockFootprint(16))

	ptr, err := allocator.Alloc(16)
	require.NoError(t, err)
	payloadBytes(ptr, 16)[0] = 0xA7

	resized, err := allocator.Realloc(ptr, 64)
	require.ErrorIs(t, err, memutils.OutOfMemoryError)
	require.Nil(t, resized)

	// The old block is still the caller's
	require.Equal(t, byte(0xA7), payloadBytes(ptr, 16)[0])

	var stats memutils.Statistics
	stats.Clear()
	allocator.AddStatistics(&stats)
	require.Equal(t, 1, stats.AllocationCount)

	allocator.Free(ptr)
	require.NoError(t, allocator.Destroy())
}

// The walkthrough scenario: three blocks of 4, 8 and 1 bytes, a non-trailing
// free, then growing the third block to 10 bytes.
func TestAllocatorScenario(t *testing.T) {
	allocator, heap := createTestAllocator(t, 4096)

	first, err := allocator.Alloc(4)
	require.NoError(t, err)
	_, err = allocator.Alloc(8)
	require.NoError(t, err)
	third, err := allocator.Alloc(1)
	require.NoError(t, err)

	var stats memutils.DetailedStatistics
	stats.Clear()
	allocator.AddDetailedStatistics(&stats)
	require.Equal(t, 3, stats.BlockCount)

	allocator.Free(first)

	stats.Clear()
	allocator.AddDetailedStatistics(&stats)
	require.Equal(t, 3, stats.BlockCount)
	require.Equal(t, 1, stats.FreeBlockCount)

	// No free block holds 10 bytes (the free one has 4), so the heap grows and
	// the old third block is freed in place
	payloadBytes(third, 1)[0] = 0x3C
	resized, err := allocator.Realloc(third, 10)
	require.NoError(t, err)
	require.NotEqual(t, third, resized)
	require.Equal(t, byte(0x3C), payloadBytes(resized, 1)[0])

	stats.Clear()
	allocator.AddDetailedStatistics(&stats)
	require.Equal(t, 4, stats.BlockCount)
	require.Equal(t, 2, stats.AllocationCount)
	require.Equal(t, 2, stats.FreeBlockCount)

	expected := blockFootprint(4) + blockFootprint(8) + blockFootprint(1) + blockFootprint(10)
	require.Equal(t, expected, heap.BytesExtended())

	require.NoError(t, allocator.Validate())
}
