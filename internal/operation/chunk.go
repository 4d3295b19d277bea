package operation

import (
	"fmt"
	"iter"

	"github.com/srg/gattop/internal/device"
)

// Split divides data into consecutive chunks of at most size bytes.
//
// Concatenating the chunks in order yields data exactly; only the last chunk may be
// shorter than size and no chunk is empty. Empty data yields no chunks. A non-positive
// size fails with device.ErrInvalidConfiguration.
//
// Chunks alias data with their capacity clipped, so appending to one never overwrites
// the next.
func Split(data []byte, size int) ([][]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", device.ErrInvalidConfiguration, size)
	}

	chunks := make([][]byte, 0, (len(data)+size-1)/size)
	for chunk := range Chunks(data, size) {
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// Chunks yields data in consecutive pieces of at most size bytes.
// It yields nothing when size is not positive; use Split to get that reported.
func Chunks(data []byte, size int) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		if size <= 0 {
			return
		}
		for start := 0; start < len(data); start += size {
			end := min(start+size, len(data))
			if !yield(data[start:end:end]) {
				return
			}
		}
	}
}
