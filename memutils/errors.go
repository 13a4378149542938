package memutils

import "github.com/pkg/errors"

// ZeroSizeError is the error returned when an allocation of zero or fewer bytes is requested
var ZeroSizeError error = errors.New("allocation size must be a positive number of bytes")

// SizeOverflowError is the error returned when a computed allocation size does not fit in an int
var SizeOverflowError error = errors.New("allocation size calculation overflows")

// OutOfMemoryError is the error returned when the heap-growth service cannot extend the heap
var OutOfMemoryError error = errors.New("the heap cannot be extended any further")

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")
