package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const maxLineBytes = 1 << 20

// Reader yields recognized events from a trace stream, skipping every
// other line. It tracks the 1-based number of the last line read.
type Reader struct {
	scanner *bufio.Scanner
	closers []io.Closer
	line    int
	err     error
}

// NewReader reads a plain-text trace from r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &Reader{scanner: sc}
}

// Open opens a trace file. Files ending in .zst are decompressed on the fly.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	if !strings.HasSuffix(path, ".zst") {
		rd := NewReader(f)
		rd.closers = []io.Closer{f}
		return rd, nil
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	rd := NewReader(dec)
	rd.closers = []io.Closer{decoderCloser{dec}, f}
	return rd, nil
}

// Next returns the next recognized event. It returns false at end of input
// or on a read error; check Err afterwards.
func (r *Reader) Next() (Event, bool) {
	for r.scanner.Scan() {
		r.line++
		if ev, ok := Tokenize(r.scanner.Text()); ok {
			return ev, true
		}
	}
	if err := r.scanner.Err(); err != nil {
		r.err = fmt.Errorf("read trace line %d: %w", r.line+1, err)
	}
	return nil, false
}

// Line returns the number of the line the last event came from.
func (r *Reader) Line() int {
	return r.line
}

func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

// zstd.Decoder.Close has no error result.
type decoderCloser struct {
	dec *zstd.Decoder
}

func (d decoderCloser) Close() error {
	d.dec.Close()
	return nil
}
