package log_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rulecat/pkg/log"
)

func TestBufferWrite(t *testing.T) {
	t.Parallel()

	b := log.NewBuffer(2)

	n, err := b.Write([]byte("one\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = b.Write(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, b.Len())

	p := []byte("two\n")
	_, err = b.Write(p)
	require.NoError(t, err)

	p[0] = 'X'

	_, err = b.Write([]byte("three\n"))
	require.NoError(t, err)

	assert.Equal(t, [][]byte{[]byte("two\n"), []byte("three\n")}, b.Lines())
	assert.Equal(t, 1, b.Dropped())

	b.Reset()
	assert.Zero(t, b.Len())
	assert.Zero(t, b.Dropped())
}

func TestBufferDefaultLimit(t *testing.T) {
	t.Parallel()

	b := log.NewBuffer(0)
	for i := range log.DefaultBufferLimit + 5 {
		_, err := fmt.Fprintf(b, "line %d\n", i)
		require.NoError(t, err)
	}

	assert.Equal(t, log.DefaultBufferLimit, b.Len())
	assert.Equal(t, 5, b.Dropped())
	assert.Equal(t, "line 5\n", string(b.Lines()[0]))
}

func TestBufferWriteTo(t *testing.T) {
	t.Parallel()

	b := log.NewBuffer(10)
	logger := slog.New(slog.NewTextHandler(b, &slog.HandlerOptions{
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}

			return a
		},
	}))

	logger.Info("first")
	logger.Warn("second", slog.Int("n", 2))

	var out bytes.Buffer

	n, err := b.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, int64(out.Len()), n)
	assert.Equal(t, "level=INFO msg=first\nlevel=WARN msg=second n=2\n", out.String())
}

func TestBufferConcurrentWrites(t *testing.T) {
	t.Parallel()

	b := log.NewBuffer(50)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Go(func() {
			for j := range 20 {
				_, _ = fmt.Fprintf(b, "%d-%d\n", i, j)
			}
		})
	}

	wg.Wait()

	assert.Equal(t, 50, b.Len())
	assert.Equal(t, 150, b.Dropped())
}
