package bilrost

import "sync"

// Size-tiered buffer pools, used by MarshalPooled to avoid a fresh
// allocation per call when the caller can bound the message's size.
var bufferPools = [6]sync.Pool{
	{New: func() any { return make([]byte, 0, 64) }},
	{New: func() any { return make([]byte, 0, 256) }},
	{New: func() any { return make([]byte, 0, 1024) }},
	{New: func() any { return make([]byte, 0, 4096) }},
	{New: func() any { return make([]byte, 0, 16384) }},
	{New: func() any { return make([]byte, 0, 65536) }},
}

var bufferSizes = [6]int{64, 256, 1024, 4096, 16384, 65536}

func poolIndex(size int) int {
	for i, s := range bufferSizes {
		if size <= s {
			return i
		}
	}
	return -1
}

// getBuffer returns a zero-length buffer with at least sizeHint capacity,
// drawn from the pool when sizeHint fits a size class.
func getBuffer(sizeHint int) []byte {
	idx := poolIndex(sizeHint)
	if idx < 0 {
		return make([]byte, 0, sizeHint)
	}
	buf := bufferPools[idx].Get().([]byte)
	return buf[:0]
}

// putBuffer returns buf to the pool matching its capacity. Buffers
// larger than the largest size class are left for the garbage collector.
func putBuffer(buf []byte) {
	idx := poolIndex(cap(buf))
	if idx >= 0 {
		bufferPools[idx].Put(buf[:0]) //nolint:staticcheck // capacity, not length, determines the tier
	}
}

// MarshalPooled encodes m using a pooled scratch buffer sized by
// hint, copies the result out, and returns the scratch buffer to the
// pool. Prefer this over Marshal in a hot loop where the caller would
// otherwise allocate and discard a buffer per call.
func MarshalPooled(m Message, hint int) ([]byte, error) {
	buf := getBuffer(hint)
	defer putBuffer(buf)
	encoded, err := MarshalAppend(buf, m)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(encoded))
	copy(out, encoded)
	return out, nil
}
