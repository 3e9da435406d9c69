package mp4io

import (
	"io"
	"math"

	"github.com/ugparu/mp4box/utils/bits/pio"
)

// Build encodes box and its subtree using DefaultRegistry.
func Build(box *Box) ([]byte, error) {
	return DefaultRegistry.Build(box)
}

// Write encodes box and writes it to w.
func Write(w io.Writer, box *Box) (int64, error) {
	return DefaultRegistry.Write(w, box)
}

// Build encodes box. Sizes are always recomputed from the encoded body;
// Offset and End of the input are ignored.
func (r *Registry) Build(box *Box) ([]byte, error) {
	return r.buildBox(box, r.Lookup)
}

func (r *Registry) Write(w io.Writer, box *Box) (int64, error) {
	b, err := r.Build(box)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// maxCompactSize is the largest box size written with the 32-bit header.
var maxCompactSize uint64 = math.MaxUint32

func (r *Registry) buildBox(box *Box, lookup lookupFunc) ([]byte, error) {
	if box == nil {
		return nil, &FieldEncodingError{Reason: "nil box"}
	}
	body, err := r.buildBody(box, lookup(box.Type))
	if err != nil {
		return nil, err
	}

	var b []byte
	if size := uint64(HeaderSize) + uint64(len(body)); size > maxCompactSize {
		b = make([]byte, largeHeaderSize, largeHeaderSize+len(body))
		pio.PutU32BE(b, 1)
		pio.PutU64BE(b[8:], size+8)
	} else {
		b = make([]byte, HeaderSize, HeaderSize+len(body))
		pio.PutU32BE(b, uint32(size))
	}
	pio.PutU32BE(b[4:], uint32(box.Type))
	return append(b, body...), nil
}

// buildBody picks the encoding in order: Raw bytes, the schema, plain
// children, an empty body.
func (r *Registry) buildBody(box *Box, s *Schema) ([]byte, error) {
	if box.Raw != nil {
		return box.Raw, nil
	}
	e := &encoder{typ: box.Type}
	if s == nil {
		if len(box.Fields) > 0 {
			return nil, e.fail(box.Fields[0].Name, box.Fields[0].Value, "box type has no schema")
		}
		if err := r.buildChildren(e, box, r.Lookup); err != nil {
			return nil, err
		}
		return e.buf, nil
	}

	if err := e.encodeFields(s.Fields, box.Fields, ""); err != nil {
		return nil, err
	}
	switch s.Shape {
	case Structured:
		if v, ok := box.Fields.Get(FieldTrailing); ok {
			b, ok := toBytes(v)
			if !ok {
				return nil, e.fail(FieldTrailing, v, "not a byte string")
			}
			e.buf = append(e.buf, b...)
		}
	case Container:
		if err := r.buildChildren(e, box, r.Lookup); err != nil {
			return nil, err
		}
	case SampleDescription:
		if uint64(len(box.Children)) > math.MaxUint32 {
			return nil, e.fail("entry_count", len(box.Children), "too many entries")
		}
		pio.PutU32BE(e.grow(4), uint32(len(box.Children)))
		if err := r.buildChildren(e, box, r.LookupSampleEntry); err != nil {
			return nil, err
		}
	}
	return e.buf, nil
}

func (r *Registry) buildChildren(e *encoder, box *Box, lookup lookupFunc) error {
	for _, child := range box.Children {
		b, err := r.buildBox(child, lookup)
		if err != nil {
			return err
		}
		e.buf = append(e.buf, b...)
	}
	e.buf = append(e.buf, box.Padding...)
	return nil
}
