package pool

import "sync"

var defaultClasses = []int{256, 1024, 4096, 16384, 65536, 262144, 1048576}

// SizedBytes manages one sync.Pool per size class so payload buffers of very
// different weights do not poison each other's reuse.
type SizedBytes struct {
	pools map[int]*sync.Pool
	sizes []int
}

// NewSizedBytes initializes the given size classes (ascending); with no
// arguments a default ladder from 256B to 1MB is used.
func NewSizedBytes(sizes ...int) *SizedBytes {
	if len(sizes) == 0 {
		sizes = defaultClasses
	}

	pools := make(map[int]*sync.Pool, len(sizes))
	for _, size := range sizes {
		sz := size
		pools[sz] = &sync.Pool{
			New: func() any {
				buf := make([]byte, 0, sz)
				return &buf
			},
		}
	}

	return &SizedBytes{pools: pools, sizes: sizes}
}

// Get returns a length-zero []byte pointer with capacity for weight.
func (s *SizedBytes) Get(weight int) *[]byte {
	bufPtr := s.pools[s.sizeClass(weight)].Get().(*[]byte)
	*bufPtr = (*bufPtr)[:0]
	return bufPtr
}

// Put returns the buffer to the pool of its capacity class.
func (s *SizedBytes) Put(buf *[]byte) {
	s.pools[s.sizeClass(cap(*buf))].Put(buf)
}

// sizeClass finds the smallest class >= weight, falling back to the biggest.
func (s *SizedBytes) sizeClass(weight int) int {
	for _, size := range s.sizes {
		if weight <= size {
			return size
		}
	}
	return s.sizes[len(s.sizes)-1]
}
