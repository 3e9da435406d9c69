package mp4io

// FieldKind selects the codec of a FieldDesc.
type FieldKind uint8

const (
	KindUint          FieldKind = iota + 1 // big-endian unsigned, Size bytes, optional Mask/Fill
	KindInt                                // big-endian two's complement, Size bytes
	KindBytes                              // exactly Size bytes
	KindFourCC                             // 4 byte tag
	KindLanguage                           // packed ISO-639-2/T code, 2 bytes
	KindString                             // rest of the region as a string, NULs kept
	KindRest                               // rest of the region as bytes
	KindPascalString                       // Size byte length prefix, then a string
	KindPascalBytes                        // Size byte length prefix, then bytes
	KindRecord                             // nested field list
	KindArray                              // Count prefixed (or region filling) repetition of Elem
	KindVersionSwitch                      // field list chosen by the decoded version
)

// FieldDesc describes one field of a box body.
type FieldDesc struct {
	Name string
	Kind FieldKind
	Size int
	// Mask keeps only the value bits of a packed integer; Fill is OR-ed in on build.
	Mask uint64
	Fill uint64
	// Default is written when the field is absent on build. Nil makes the field required.
	Default any

	Count *FieldDesc
	Elem  *FieldDesc
	Sub   []FieldDesc
	Cases map[uint64][]FieldDesc
	Else  []FieldDesc
}

// WithDefault returns a copy of f that is optional on build.
func (f FieldDesc) WithDefault(v any) FieldDesc {
	f.Default = v
	return f
}

func U8(name string) FieldDesc  { return FieldDesc{Name: name, Kind: KindUint, Size: 1} }
func U16(name string) FieldDesc { return FieldDesc{Name: name, Kind: KindUint, Size: 2} }
func U24(name string) FieldDesc { return FieldDesc{Name: name, Kind: KindUint, Size: 3} }
func U32(name string) FieldDesc { return FieldDesc{Name: name, Kind: KindUint, Size: 4} }
func U64(name string) FieldDesc { return FieldDesc{Name: name, Kind: KindUint, Size: 8} }
func I8(name string) FieldDesc  { return FieldDesc{Name: name, Kind: KindInt, Size: 1} }
func I16(name string) FieldDesc { return FieldDesc{Name: name, Kind: KindInt, Size: 2} }
func I32(name string) FieldDesc { return FieldDesc{Name: name, Kind: KindInt, Size: 4} }
func I64(name string) FieldDesc { return FieldDesc{Name: name, Kind: KindInt, Size: 8} }

// Bits is a single byte holding a value under mask; the remaining bits are written as fill.
func Bits(name string, mask, fill uint8) FieldDesc {
	return FieldDesc{Name: name, Kind: KindUint, Size: 1, Mask: uint64(mask), Fill: uint64(fill)}
}

func FixedBytes(name string, n int) FieldDesc {
	return FieldDesc{Name: name, Kind: KindBytes, Size: n}
}

// ZeroBytes is FixedBytes defaulting to n zero bytes.
func ZeroBytes(name string, n int) FieldDesc {
	return FixedBytes(name, n).WithDefault(make([]byte, n))
}

func FourCC(name string) FieldDesc   { return FieldDesc{Name: name, Kind: KindFourCC, Size: 4} }
func Language(name string) FieldDesc { return FieldDesc{Name: name, Kind: KindLanguage, Size: 2} }
func String(name string) FieldDesc   { return FieldDesc{Name: name, Kind: KindString} }
func Rest(name string) FieldDesc     { return FieldDesc{Name: name, Kind: KindRest} }

func PascalString(name string, prefix int) FieldDesc {
	return FieldDesc{Name: name, Kind: KindPascalString, Size: prefix}
}

func PascalBytes(name string, prefix int) FieldDesc {
	return FieldDesc{Name: name, Kind: KindPascalBytes, Size: prefix}
}

func Record(name string, sub ...FieldDesc) FieldDesc {
	return FieldDesc{Name: name, Kind: KindRecord, Sub: sub}
}

// Array repeats elem. With a nil count the array fills the rest of the region.
func Array(name string, count *FieldDesc, elem FieldDesc) FieldDesc {
	return FieldDesc{Name: name, Kind: KindArray, Count: count, Elem: &elem}
}

// ByVersion picks cases[version] or, when there is no case, otherwise.
func ByVersion(cases map[uint64][]FieldDesc, otherwise ...FieldDesc) FieldDesc {
	return FieldDesc{Kind: KindVersionSwitch, Cases: cases, Else: otherwise}
}

// FullBox prefixes fs with the version and flags fields.
func FullBox(fs ...FieldDesc) []FieldDesc {
	return FullBoxFlags(0, fs...)
}

// FullBoxFlags is FullBox with flags defaulting to flags on build.
func FullBoxFlags(flags uint64, fs ...FieldDesc) []FieldDesc {
	return append([]FieldDesc{
		U8(FieldVersion).WithDefault(0),
		U24(FieldFlags).WithDefault(flags),
	}, fs...)
}

// Shape tells the framework what follows a box's declared fields.
type Shape uint8

const (
	// Structured bodies are only fields; unclaimed bytes land in FieldTrailing.
	Structured Shape = iota
	// Container bodies hold child boxes after the (possibly empty) field prefix.
	Container
	// SampleDescription bodies hold a 32-bit entry count and that many sample entries.
	SampleDescription
)

func (s Shape) String() string {
	switch s {
	case Structured:
		return "structured"
	case Container:
		return "container"
	case SampleDescription:
		return "sample-description"
	}
	return "unknown"
}

type Schema struct {
	Shape  Shape
	Fields []FieldDesc
}
