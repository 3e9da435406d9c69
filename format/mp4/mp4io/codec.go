package mp4io

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/ugparu/mp4box/utils/bits/pio"
)

// decoder walks a field list over one region of a box body.
type decoder struct {
	b       []byte
	n       int
	base    int64
	version uint64
	// kept holds sibling fields for bits the last decoded value cannot carry.
	kept Fields
}

func newDecoder(b []byte, base int64) *decoder {
	return &decoder{b: b, base: base}
}

func (d *decoder) left() int {
	return len(d.b) - d.n
}

func (d *decoder) need(f *FieldDesc, k int) error {
	if d.left() < k {
		return &TruncatedInputError{What: f.Name, Offset: d.base + int64(d.n), Need: int64(k), Have: int64(d.left())}
	}
	return nil
}

func (d *decoder) take(k int) []byte {
	b := d.b[d.n : d.n+k : d.n+k]
	d.n += k
	return b
}

func (d *decoder) keep(base, suffix string, v uint64) {
	if base != "" {
		d.kept = append(d.kept, Field{Name: base + suffix, Value: v})
	}
}

func (d *decoder) decodeFields(descs []FieldDesc, out Fields) (Fields, error) {
	for i := range descs {
		f := &descs[i]
		if f.Kind == KindVersionSwitch {
			sub, ok := f.Cases[d.version]
			if !ok {
				sub = f.Else
			}
			var err error
			if out, err = d.decodeFields(sub, out); err != nil {
				return out, err
			}
			continue
		}
		v, err := d.decodeValue(f)
		if err != nil {
			return out, err
		}
		if f.Name == FieldVersion {
			d.version, _ = v.(uint64)
		}
		out = append(out, Field{Name: f.Name, Value: v})
		out = append(out, d.kept...)
		d.kept = d.kept[:0]
	}
	return out, nil
}

func (d *decoder) decodeValue(f *FieldDesc) (any, error) {
	switch f.Kind {
	case KindUint:
		if err := d.need(f, f.Size); err != nil {
			return nil, err
		}
		v := pio.UintBE(d.take(f.Size), f.Size)
		if f.Mask != 0 {
			if rsv := v &^ f.Mask; rsv != f.Fill&^f.Mask {
				d.keep(f.Name, FieldReservedSuffix, rsv)
			}
			v &= f.Mask
		}
		return v, nil
	case KindInt:
		if err := d.need(f, f.Size); err != nil {
			return nil, err
		}
		return pio.IntBE(d.take(f.Size), f.Size), nil
	case KindBytes:
		if err := d.need(f, f.Size); err != nil {
			return nil, err
		}
		return d.take(f.Size), nil
	case KindFourCC:
		if err := d.need(f, 4); err != nil {
			return nil, err
		}
		return Tag(pio.U32BE(d.take(4))), nil
	case KindLanguage:
		if err := d.need(f, 2); err != nil {
			return nil, err
		}
		code := pio.U16BE(d.take(2))
		lang := DecodeLanguage(code)
		if enc, err := EncodeLanguage(lang); err != nil || enc != code {
			d.keep(f.Name, FieldCodeSuffix, uint64(code))
		}
		return lang, nil
	case KindString:
		return string(d.take(d.left())), nil
	case KindRest:
		return d.take(d.left()), nil
	case KindPascalString, KindPascalBytes:
		if err := d.need(f, f.Size); err != nil {
			return nil, err
		}
		l := int(pio.UintBE(d.take(f.Size), f.Size))
		if err := d.need(f, l); err != nil {
			return nil, err
		}
		if f.Kind == KindPascalString {
			return string(d.take(l)), nil
		}
		return d.take(l), nil
	case KindRecord:
		saved := d.version
		defer func() { d.version = saved }()
		return d.decodeFields(f.Sub, Fields{})
	case KindArray:
		count := -1
		if f.Count != nil {
			cf := *f.Count
			cf.Name = ""
			if f.Name != "" {
				cf.Name = f.Name + "_count"
			}
			v, err := d.decodeValue(&cf)
			if err != nil {
				return nil, err
			}
			n, ok := toUint64(v)
			if !ok || n > math.MaxInt32 {
				return nil, fmt.Errorf("%w: %s count %v at offset %d is out of range", ErrFormat, f.Name, v, d.base+int64(d.n))
			}
			count = int(n)
		}
		return d.decodeArray(f.Elem, count)
	}
	return nil, fmt.Errorf("mp4io: field %q has no codec (kind %d)", f.Name, f.Kind)
}

func (d *decoder) decodeArray(elem *FieldDesc, count int) (any, error) {
	switch elem.Kind {
	case KindUint:
		return collect[uint64](d, elem, count)
	case KindInt:
		return collect[int64](d, elem, count)
	case KindFourCC:
		return collect[Tag](d, elem, count)
	case KindBytes, KindPascalBytes, KindRest:
		return collect[[]byte](d, elem, count)
	case KindString, KindPascalString, KindLanguage:
		return collect[string](d, elem, count)
	case KindRecord:
		return collect[Fields](d, elem, count)
	}
	return collect[any](d, elem, count)
}

// collect decodes count elements, or until the region is used up when count is negative.
func collect[T any](d *decoder, elem *FieldDesc, count int) ([]T, error) {
	out := []T{}
	for i := 0; ; i++ {
		if count >= 0 && i >= count {
			break
		}
		if count < 0 && d.left() == 0 {
			break
		}
		start, kept := d.n, len(d.kept)
		v, err := d.decodeValue(elem)
		if err != nil {
			var te *TruncatedInputError
			if count < 0 && errors.As(err, &te) {
				// A partial last element ends a region filling array and its bytes stay unread.
				d.n, d.kept = start, d.kept[:kept]
				break
			}
			return out, err
		}
		out = append(out, v.(T))
		if count < 0 && d.n == start {
			break
		}
	}
	return out, nil
}

// encoder appends a field list to a body under construction.
type encoder struct {
	buf     []byte
	typ     Tag
	version uint64
}

func (e *encoder) fail(field string, v any, reason string) error {
	return &FieldEncodingError{Type: e.typ, Field: field, Value: v, Reason: reason}
}

func (e *encoder) grow(k int) []byte {
	n := len(e.buf)
	e.buf = append(e.buf, make([]byte, k)...)
	return e.buf[n:]
}

func (e *encoder) encodeFields(descs []FieldDesc, fs Fields, path string) error {
	for i := range descs {
		f := &descs[i]
		if f.Kind == KindVersionSwitch {
			sub, ok := f.Cases[e.version]
			if !ok {
				sub = f.Else
			}
			if err := e.encodeFields(sub, fs, path); err != nil {
				return err
			}
			continue
		}
		name := path + f.Name
		v, ok := fs.Get(f.Name)
		if !ok {
			switch {
			case f.Default != nil:
				v = f.Default
			case f.Kind == KindRecord:
				v = Fields{}
			default:
				return e.fail(name, nil, "required field is missing")
			}
		}
		if err := e.encodeValue(f, v, name, fs, f.Name); err != nil {
			return err
		}
		if f.Name == FieldVersion {
			e.version, _ = toUint64(v)
		}
	}
	return nil
}

// encodeValue writes v as f. key names f inside fs, where parse may have left
// sibling fields; it is empty for array elements.
func (e *encoder) encodeValue(f *FieldDesc, v any, name string, fs Fields, key string) error {
	switch f.Kind {
	case KindUint:
		u, ok := toUint64(v)
		if !ok {
			return e.fail(name, v, "not an unsigned integer")
		}
		if f.Mask != 0 {
			if u&^f.Mask != 0 {
				return e.fail(name, v, fmt.Sprintf("exceeds bit mask %#x", f.Mask))
			}
			rsv, err := e.reserved(f, fs, key, name)
			if err != nil {
				return err
			}
			u |= rsv
		} else if f.Size < 8 && u>>(8*uint(f.Size)) != 0 {
			return e.fail(name, v, fmt.Sprintf("does not fit in %d bytes", f.Size))
		}
		pio.PutUintBE(e.grow(f.Size), u, f.Size)
	case KindInt:
		i, ok := toInt64(v)
		if !ok {
			return e.fail(name, v, "not an integer")
		}
		if f.Size < 8 {
			bits := 8 * uint(f.Size)
			if i < -(1<<(bits-1)) || i > 1<<(bits-1)-1 {
				return e.fail(name, v, fmt.Sprintf("does not fit in %d signed bytes", f.Size))
			}
		}
		pio.PutUintBE(e.grow(f.Size), uint64(i), f.Size)
	case KindBytes:
		b, ok := toBytes(v)
		if !ok {
			return e.fail(name, v, "not a byte string")
		}
		if len(b) != f.Size {
			return e.fail(name, v, fmt.Sprintf("need exactly %d bytes, have %d", f.Size, len(b)))
		}
		e.buf = append(e.buf, b...)
	case KindFourCC:
		t, ok := toTag(v)
		if !ok {
			return e.fail(name, v, "not a four character code")
		}
		pio.PutU32BE(e.grow(4), uint32(t))
	case KindLanguage:
		s, ok := v.(string)
		if !ok {
			return e.fail(name, v, "not a string")
		}
		if code, ok := keptLanguage(fs, key, s); ok {
			pio.PutU16BE(e.grow(2), code)
			break
		}
		code, err := EncodeLanguage(s)
		if err != nil {
			return e.fail(name, v, err.(*FieldEncodingError).Reason) //nolint:errorlint // EncodeLanguage returns only this type
		}
		pio.PutU16BE(e.grow(2), code)
	case KindString, KindRest, KindPascalString, KindPascalBytes:
		b, ok := toBytes(v)
		if !ok {
			return e.fail(name, v, "not a string or byte slice")
		}
		if f.Kind == KindPascalString || f.Kind == KindPascalBytes {
			if f.Size < 8 && uint64(len(b))>>(8*uint(f.Size)) != 0 {
				return e.fail(name, v, fmt.Sprintf("length %d does not fit in a %d byte prefix", len(b), f.Size))
			}
			pio.PutUintBE(e.grow(f.Size), uint64(len(b)), f.Size)
		}
		e.buf = append(e.buf, b...)
	case KindRecord:
		rec, ok := v.(Fields)
		if !ok {
			return e.fail(name, v, "not a record")
		}
		saved := e.version
		err := e.encodeFields(f.Sub, rec, name+".")
		e.version = saved
		return err
	case KindArray:
		rv := reflect.ValueOf(v)
		if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
			return e.fail(name, v, "not a list")
		}
		if f.Count != nil {
			countKey := ""
			if key != "" {
				countKey = key + "_count"
			}
			if err := e.encodeValue(f.Count, rv.Len(), name+".count", fs, countKey); err != nil {
				return err
			}
		}
		for i := 0; i < rv.Len(); i++ {
			if err := e.encodeValue(f.Elem, rv.Index(i).Interface(), fmt.Sprintf("%s[%d]", name, i), nil, ""); err != nil {
				return err
			}
		}
	default:
		return e.fail(name, v, fmt.Sprintf("no codec for kind %d", f.Kind))
	}
	return nil
}

// reserved returns the bits around a masked value: the ones parse kept, or the schema fill.
func (e *encoder) reserved(f *FieldDesc, fs Fields, key, name string) (uint64, error) {
	if key == "" {
		return f.Fill &^ f.Mask, nil
	}
	v, ok := fs.Get(key + FieldReservedSuffix)
	if !ok {
		return f.Fill &^ f.Mask, nil
	}
	bits, ok := toUint64(v)
	if !ok || bits&f.Mask != 0 || (f.Size < 8 && bits>>(8*uint(f.Size)) != 0) {
		return 0, e.fail(name+FieldReservedSuffix, v, fmt.Sprintf("overlaps bit mask %#x", f.Mask))
	}
	return bits, nil
}

// keptLanguage returns the raw code parse kept for lang, as long as lang was not changed since.
func keptLanguage(fs Fields, key, lang string) (uint16, bool) {
	if key == "" {
		return 0, false
	}
	v, ok := fs.Get(key + FieldCodeSuffix)
	if !ok {
		return 0, false
	}
	code, ok := toUint64(v)
	if !ok || code > math.MaxUint16 || DecodeLanguage(uint16(code)) != lang {
		return 0, false
	}
	return uint16(code), true
}

func toUint64(v any) (uint64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.Int() < 0 {
			return 0, false
		}
		return uint64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), true
	}
	return 0, false
}

func toInt64(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if rv.Uint() > math.MaxInt64 {
			return 0, false
		}
		return int64(rv.Uint()), true
	}
	return 0, false
}

func toBytes(v any) ([]byte, bool) {
	switch b := v.(type) {
	case []byte:
		return b, true
	case string:
		return []byte(b), true
	}
	return nil, false
}

func toTag(v any) (Tag, bool) {
	switch t := v.(type) {
	case Tag:
		return t, true
	case [4]byte:
		return Tag(pio.U32BE(t[:])), true
	case string:
		if len(t) == 4 {
			return StringToTag(t), true
		}
	case []byte:
		if len(t) == 4 {
			return Tag(pio.U32BE(t)), true
		}
	}
	return 0, false
}
