package mp4io

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Unbounded is the limit passed to Parse when the enclosing region has no known length.
const Unbounded int64 = -1

const directReadMax = 1 << 20

// Reader is a position tracking byte source. It never reads ahead of what
// was asked for, except one byte when EOF is queried.
type Reader struct {
	r    io.Reader
	pos  int64
	peek []byte
	// err is a source failure met while probing for EOF; ReadN returns it.
	err error
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// NewReaderAt is NewReader for a stream whose first byte sits at pos.
func NewReaderAt(r io.Reader, pos int64) *Reader {
	return &Reader{r: r, pos: pos}
}

func NewBytesReader(b []byte) *Reader {
	return &Reader{r: bytes.NewReader(b)}
}

func (r *Reader) Pos() int64 {
	return r.pos
}

// Remaining returns the number of unread bytes, or Unbounded when the source cannot tell.
func (r *Reader) Remaining() int64 {
	if l, ok := r.r.(interface{ Len() int }); ok {
		return int64(l.Len() + len(r.peek))
	}
	return Unbounded
}

// EOF reports whether the source is exhausted. A failing source is not at
// EOF: the failure is returned by the next ReadN.
func (r *Reader) EOF() bool {
	if len(r.peek) > 0 || r.err != nil {
		return false
	}
	var b [1]byte
	n, err := io.ReadFull(r.r, b[:])
	if n == 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			r.err = err
			return false
		}
		return true
	}
	r.peek = append(r.peek, b[0])
	return false
}

// ReadN reads exactly n bytes. A short source yields a *TruncatedInputError
// and the bytes that were available are consumed.
func (r *Reader) ReadN(n int64) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("mp4io: negative read length %d", n)
	}
	if r.err != nil {
		return nil, r.err
	}
	start := r.pos
	src := r.r
	if len(r.peek) > 0 {
		src = io.MultiReader(bytes.NewReader(r.peek), r.r)
		r.peek = nil
	}

	var (
		out []byte
		err error
	)
	if n <= directReadMax {
		out = make([]byte, n)
		var got int
		got, err = io.ReadFull(src, out)
		out = out[:got]
	} else {
		// Sizes come from untrusted headers: grow with the data instead of allocating up front.
		buf := new(bytes.Buffer)
		_, err = io.CopyN(buf, src, n)
		out = buf.Bytes()
	}
	r.pos += int64(len(out))

	if int64(len(out)) < n {
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return out, err
		}
		return out, &TruncatedInputError{Offset: start, Need: n, Have: int64(len(out))}
	}
	return out, nil
}

func (r *Reader) readWhat(n int64, what string) ([]byte, error) {
	b, err := r.ReadN(n)
	var te *TruncatedInputError
	if errors.As(err, &te) {
		te.What = what
	}
	return b, err
}
