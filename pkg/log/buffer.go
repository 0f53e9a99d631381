package log

import (
	"fmt"
	"io"
	"slices"
	"sync"
)

const DefaultBufferLimit = 100

// Buffer keeps the most recent log writes in memory. It is used while an
// interactive prompt owns the terminal; the lines are replayed afterwards.
type Buffer struct {
	lines   [][]byte
	limit   int
	dropped int
	mu      sync.Mutex
}

// NewBuffer creates a [Buffer] holding up to limit writes. A limit of zero
// or less uses [DefaultBufferLimit].
func NewBuffer(limit int) *Buffer {
	if limit <= 0 {
		limit = DefaultBufferLimit
	}

	return &Buffer{limit: limit}
}

// Write stores a copy of p. When the buffer is at its limit, the oldest
// write is dropped.
func (b *Buffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.lines) == b.limit {
		b.lines = slices.Delete(b.lines, 0, 1)
		b.dropped++
	}

	b.lines = append(b.lines, slices.Clone(p))

	return len(p), nil
}

// Lines returns copies of the stored writes, oldest first.
func (b *Buffer) Lines() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([][]byte, len(b.lines))
	for i, l := range b.lines {
		out[i] = slices.Clone(l)
	}

	return out
}

// Len returns the number of stored writes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.lines)
}

// Dropped returns how many writes were discarded to stay within the limit.
func (b *Buffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.dropped
}

// Reset discards all stored writes.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lines = nil
	b.dropped = 0
}

// WriteTo writes the stored writes to w, oldest first.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	var total int64

	for _, l := range b.Lines() {
		n, err := w.Write(l)
		total += int64(n)

		if err != nil {
			return total, fmt.Errorf("write log line: %w", err)
		}
	}

	return total, nil
}
