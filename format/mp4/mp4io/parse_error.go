package mp4io

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFormat matches every error returned by Parse and Build via errors.Is.
var ErrFormat = errors.New("mp4io: format error")

// TruncatedInputError reports fewer bytes than a box or field declares.
type TruncatedInputError struct {
	What   string
	Offset int64
	Need   int64
	Have   int64
}

func (e *TruncatedInputError) Error() string {
	return fmt.Sprintf("mp4io: truncated input: %s at offset %d needs %d bytes, %d available",
		e.What, e.Offset, e.Need, e.Have)
}

func (*TruncatedInputError) Is(target error) bool { return target == ErrFormat }

// UnsupportedSizeError reports a box size that cannot be resolved, such as
// size 0 without an enclosing limit or a size smaller than its own header.
type UnsupportedSizeError struct {
	Type   Tag
	Offset int64
	Size   uint64
	Reason string
}

func (e *UnsupportedSizeError) Error() string {
	return fmt.Sprintf("mp4io: unsupported size %d for %q at offset %d: %s", e.Size, e.Type.String(), e.Offset, e.Reason)
}

func (*UnsupportedSizeError) Is(target error) bool { return target == ErrFormat }

// FieldEncodingError reports a value that cannot be written in its field's declared width.
type FieldEncodingError struct {
	Type   Tag
	Field  string
	Value  any
	Reason string
}

func (e *FieldEncodingError) Error() string {
	return fmt.Sprintf("mp4io: cannot encode %s.%s (%v): %s", e.Type.String(), e.Field, e.Value, e.Reason)
}

func (*FieldEncodingError) Is(target error) bool { return target == ErrFormat }

// ParseError records the chain of boxes that led to a failure, outermost first.
type ParseError struct {
	Debug  string
	Offset int64
	Err    error
	prev   *ParseError
}

func (p *ParseError) Error() string {
	s := []string{}
	for err := p; err != nil; err = err.prev {
		s = append(s, fmt.Sprintf("%s:%d", err.Debug, err.Offset))
	}
	return "mp4io: parse error: " + strings.Join(s, ",") + ": " + p.Err.Error()
}

func (p *ParseError) Unwrap() error { return p.Err }

func parseErr(debug string, offset int64, err error) error {
	var prev *ParseError
	if errors.As(err, &prev) {
		return &ParseError{Debug: debug, Offset: offset, Err: prev.Err, prev: prev}
	}
	return &ParseError{Debug: debug, Offset: offset, Err: err}
}
