package mp4io

import (
	"bytes"
	"math"

	"github.com/ugparu/mp4box/utils/bits/pio"
	"github.com/ugparu/mp4box/utils/logger"
)

// HeaderSize is the length of a box header without the 64-bit size extension.
const HeaderSize = 8

const largeHeaderSize = 16

type lookupFunc func(Tag) *Schema

// Parse reads one box from c using DefaultRegistry.
func Parse(c *Reader, limit int64) (*Box, error) {
	return DefaultRegistry.Parse(c, limit)
}

// ParseAll reads boxes from c until it is exhausted, or until limit bytes are consumed.
func ParseAll(c *Reader, limit int64) ([]*Box, error) {
	return DefaultRegistry.ParseAll(c, limit)
}

// Parse reads one box. limit is the number of bytes left in the enclosing
// region or Unbounded; a box declaring size 0 needs a bounded limit.
func (r *Registry) Parse(c *Reader, limit int64) (*Box, error) {
	return r.parseBox(c, limit, r.Lookup)
}

func (r *Registry) ParseAll(c *Reader, limit int64) ([]*Box, error) {
	var boxes []*Box
	start := c.Pos()
	for {
		left := Unbounded
		if limit >= 0 {
			left = limit - (c.Pos() - start)
			if left == 0 {
				break
			}
		} else if c.EOF() {
			break
		}
		b, err := r.Parse(c, left)
		if err != nil {
			return boxes, err
		}
		boxes = append(boxes, b)
	}
	return boxes, nil
}

func (r *Registry) parseBox(c *Reader, limit int64, lookup lookupFunc) (*Box, error) {
	start := c.Pos()
	if limit >= 0 && limit < HeaderSize {
		return nil, &TruncatedInputError{What: "box header", Offset: start, Need: HeaderSize, Have: limit}
	}
	hdr, err := c.readWhat(HeaderSize, "box header")
	if err != nil {
		return nil, err
	}
	size := uint64(pio.U32BE(hdr))
	typ := Tag(pio.U32BE(hdr[4:]))
	headerLen := int64(HeaderSize)

	switch size {
	case 1:
		if limit >= 0 && limit < largeHeaderSize {
			return nil, parseErr(typ.String(), start,
				&TruncatedInputError{What: "largesize", Offset: start + HeaderSize, Need: HeaderSize, Have: limit - HeaderSize})
		}
		ext, err := c.readWhat(8, "largesize")
		if err != nil {
			return nil, parseErr(typ.String(), start, err)
		}
		size = pio.U64BE(ext)
		headerLen = largeHeaderSize
	case 0:
		if limit < 0 {
			return nil, &UnsupportedSizeError{Type: typ, Offset: start, Size: 0,
				Reason: "box extends to end of region but the region has no known length"}
		}
		size = uint64(limit)
	}

	if size < uint64(headerLen) {
		return nil, &UnsupportedSizeError{Type: typ, Offset: start, Size: size, Reason: "smaller than its header"}
	}
	if size > math.MaxInt64 {
		return nil, &UnsupportedSizeError{Type: typ, Offset: start, Size: size, Reason: "exceeds the addressable range"}
	}
	if limit >= 0 && int64(size) > limit {
		return nil, parseErr(typ.String(), start,
			&TruncatedInputError{What: "box body", Offset: start, Need: int64(size), Have: limit})
	}

	body, err := c.readWhat(int64(size)-headerLen, "box body")
	if err != nil {
		return nil, parseErr(typ.String(), start, err)
	}

	box := &Box{Offset: start, End: start + int64(size), Type: typ}
	if err = r.decodeBody(box, body, start+headerLen, lookup(typ)); err != nil {
		return nil, parseErr(typ.String(), start, err)
	}
	logger.Tracef("mp4io", "parsed %s", box)
	return box, nil
}

func (r *Registry) decodeBody(box *Box, body []byte, base int64, s *Schema) error {
	if s == nil {
		logger.Debugf("mp4io", "no schema for %q at %d, keeping %d raw bytes", box.Type.String(), box.Offset, len(body))
		box.Raw = body
		return nil
	}

	d := newDecoder(body, base)
	fields, err := d.decodeFields(s.Fields, Fields{})
	if err != nil {
		return err
	}
	box.Fields = fields

	switch s.Shape {
	case Structured:
		if d.left() > 0 {
			box.Fields = append(box.Fields, Field{Name: FieldTrailing, Value: d.take(d.left())})
		}
	case Container:
		return r.decodeChildren(box, d, -1, r.Lookup)
	case SampleDescription:
		count := FieldDesc{Name: "entry_count", Kind: KindUint, Size: 4}
		v, err := d.decodeValue(&count)
		if err != nil {
			return err
		}
		return r.decodeChildren(box, d, int64(v.(uint64)), r.LookupSampleEntry)
	}
	return nil
}

// decodeChildren parses the rest of d as child boxes. With count < 0 it
// stops when fewer than a header's worth of bytes remain; that tail is kept
// as padding and still belongs to the parent.
func (r *Registry) decodeChildren(box *Box, d *decoder, count int64, lookup lookupFunc) error {
	regionBase := d.base + int64(d.n)
	region := d.take(d.left())
	sub := NewReaderAt(bytes.NewReader(region), regionBase)
	used := func() int64 { return sub.Pos() - regionBase }

	for i := int64(0); count < 0 || i < count; i++ {
		left := int64(len(region)) - used()
		if count < 0 && left < HeaderSize {
			break
		}
		child, err := r.parseBox(sub, left, lookup)
		if err != nil {
			return err
		}
		box.Children = append(box.Children, child)
	}

	if tail := region[used():]; len(tail) > 0 {
		logger.Debugf("mp4io", "%q at %d: %d trailing bytes after last child", box.Type.String(), box.Offset, len(tail))
		box.Padding = tail
	}
	return nil
}
