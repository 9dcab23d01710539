package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// DefaultChunkSize is the read size used by LimitedReader.
const DefaultChunkSize = 8192

// ErrTooLarge is returned when a stream exceeds the configured limit.
var ErrTooLarge = errors.New("content exceeds size limit")

// LimitedReader reads whole streams in pooled chunks with an upper bound on total size.
// It is safe for concurrent use.
type LimitedReader struct {
	buffers  *BufferPool
	chunks   *BytePool
	maxBytes int64
}

// NewLimitedReader creates a reader capped at maxBytes (0 or less means unlimited).
func NewLimitedReader(maxBytes int64) *LimitedReader {
	return &LimitedReader{
		buffers:  NewBufferPool(),
		chunks:   NewBytePool(DefaultChunkSize),
		maxBytes: maxBytes,
	}
}

// ReadAll reads r until EOF, checking ctx between chunks. The returned slice is owned by the caller.
func (lr *LimitedReader) ReadAll(ctx context.Context, r io.Reader) ([]byte, error) {
	buf := lr.buffers.Get()
	defer lr.buffers.Put(buf)

	chunk := lr.chunks.Get()
	defer lr.chunks.Put(chunk)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		n, err := r.Read(*chunk)
		if n > 0 {
			if lr.maxBytes > 0 && int64(buf.Len()+n) > lr.maxBytes {
				return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, lr.maxBytes)
			}
			buf.Write((*chunk)[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}
