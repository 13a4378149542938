package malloc

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/malloc/brk"
	"github.com/vkngwrapper/arsenal/malloc/internal/utils"
	"github.com/vkngwrapper/arsenal/malloc/memutils"
	"github.com/vkngwrapper/arsenal/malloc/memutils/metadata"
	"golang.org/x/exp/slog"
)

// CreateFlags indicate specific allocator behaviors to activate or deactivate
type CreateFlags int32

const (
	// AllocatorCreateExternallySynchronized ensures that this allocator will not be
	// synchronized internally. The consumer must guarantee it is used from only one
	// thread at a time or is synchronized by some other mechanism, but performance
	// may improve because the internal mutex is not used.
	AllocatorCreateExternallySynchronized CreateFlags = 1 << iota
)

// CreateOptions contains optional settings when creating an allocator
type CreateOptions struct {
	// Flags indicates specific allocator behaviors to activate or deactivate
	Flags CreateFlags

	// BlockAlignment is the power-of-two boundary each block's heap footprint is
	// rounded to. When 0, the natural alignment of the block header is used. Values
	// smaller than the header's natural alignment are rejected, since a misaligned
	// header is not addressable on all platforms.
	BlockAlignment uint
}

// New creates a new Allocator that carves blocks out of the provided heap.
//
// logger - Destination for diagnostics, currently the unreleased-block reports
// written during Destroy. When nil, slog.Default() is used
//
// heap - The growth service the allocator acquires heap memory from. The allocator
// assumes ownership of the boundary: every Extend and Shrink must go through the
// allocator from this point on
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, heap brk.Brk, options CreateOptions) (*Allocator, error) {
	if heap == nil {
		return nil, errors.New("a heap-growth service is required, but heap was nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	blockAlignment := options.BlockAlignment
	if blockAlignment == 0 {
		blockAlignment = metadata.HeaderAlignment
	}

	err := memutils.CheckPow2(blockAlignment, "options.BlockAlignment")
	if err != nil {
		return nil, err
	}
	if blockAlignment < metadata.HeaderAlignment {
		return nil, errors.Errorf("options.BlockAlignment is %d, which is smaller than the block header's natural alignment of %d", blockAlignment, metadata.HeaderAlignment)
	}

	useMutex := options.Flags&AllocatorCreateExternallySynchronized == 0

	allocator := &Allocator{
		mutex:       utils.OptionalMutex{UseMutex: useMutex},
		logger:      logger,
		heap:        heap,
		createFlags: options.Flags,
	}
	allocator.blocks.Init(blockAlignment)
	allocator.liveAllocations.init()

	return allocator, nil
}
