package malloc

import (
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/arsenal/malloc/memutils"
)

// BuildStatsString dumps the allocator state as a JSON string: the heap
// boundary, the registry head and tail, one entry per block in insertion
// order, and aggregate statistics. It is a diagnostic convenience invoked
// explicitly by the consumer, never from error paths.
func (a *Allocator) BuildStatsString() string {
	writer := jwriter.NewWriter()

	a.mutex.Lock()
	defer a.mutex.Unlock()

	obj := writer.Object()
	obj.Name("Boundary").String(fmt.Sprintf("%p", a.heap.Boundary()))
	a.blocks.BlockListJson(obj)

	var stats memutils.DetailedStatistics
	stats.Clear()
	a.blocks.AddDetailedStatistics(&stats)

	statsObj := obj.Name("Stats").Object()
	statsObj.Name("BlockCount").Int(stats.BlockCount)
	statsObj.Name("AllocationCount").Int(stats.AllocationCount)
	statsObj.Name("HeapBytes").Int(stats.HeapBytes)
	statsObj.Name("AllocationBytes").Int(stats.AllocationBytes)
	statsObj.Name("FreeBlockCount").Int(stats.FreeBlockCount)
	statsObj.End()

	obj.End()

	return string(writer.Bytes())
}
