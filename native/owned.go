package native

import (
	"errors"
	"sync"
	"unsafe"
)

var (
	errNullResult   = errors.New("null result pointer")
	errUnterminated = errors.New("result is not NUL-terminated within the size limit")
)

// ownedCString is a NUL-terminated string owned by the native module. It
// must be released through the module's own free routine, exactly once.
type ownedCString struct {
	ptr     unsafe.Pointer
	release func(unsafe.Pointer)
	once    sync.Once
}

func acquire(ptr unsafe.Pointer, release func(unsafe.Pointer)) *ownedCString {
	return &ownedCString{ptr: ptr, release: release}
}

// Release hands the memory back to the module. Later calls do nothing.
func (s *ownedCString) Release() {
	s.once.Do(func() {
		if s.ptr != nil {
			s.release(s.ptr)
		}
		s.ptr = nil
	})
}

// copyOut reads at most limit bytes looking for the terminator and returns
// a Go copy of the text before it. It does not release.
func (s *ownedCString) copyOut(limit int) ([]byte, error) {
	if s.ptr == nil {
		return nil, errNullResult
	}
	for n := 0; n < limit; n++ {
		if *(*byte)(unsafe.Add(s.ptr, n)) == 0 {
			out := make([]byte, n)
			copy(out, unsafe.Slice((*byte)(s.ptr), n))
			return out, nil
		}
	}
	return nil, errUnterminated
}
