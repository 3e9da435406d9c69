package mp4io

import (
	"sort"
	"sync"
)

// Registry maps box tags and sample entry formats to their schemas.
// Register before parsing; lookups are safe from any number of goroutines.
type Registry struct {
	mu      sync.RWMutex
	boxes   map[Tag]*Schema
	entries map[Tag]*Schema
}

// DefaultRegistry backs the package level Parse and Build functions.
var DefaultRegistry = NewRegistry()

// NewRegistry returns a registry preloaded with the built-in schemas.
func NewRegistry() *Registry {
	r := &Registry{
		boxes:   make(map[Tag]*Schema),
		entries: make(map[Tag]*Schema),
	}
	for tag, s := range builtinBoxes() {
		r.boxes[tag] = s
	}
	for format, s := range builtinSampleEntries() {
		r.entries[format] = s
	}
	return r
}

func (r *Registry) Register(tag Tag, s *Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boxes[tag] = s
}

// RegisterSampleEntry adds a format understood inside stsd.
func (r *Registry) RegisterSampleEntry(format Tag, s *Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[format] = s
}

// Lookup returns nil for unknown tags; such boxes are kept as raw bytes.
func (r *Registry) Lookup(tag Tag) *Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.boxes[tag]
}

// LookupSampleEntry never returns nil: unknown formats use the generic entry layout.
func (r *Registry) LookupSampleEntry(format Tag) *Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.entries[format]; ok {
		return s
	}
	return genericSampleEntry
}

func (r *Registry) Tags() []Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedTags(r.boxes)
}

func (r *Registry) SampleEntryFormats() []Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedTags(r.entries)
}

func sortedTags(m map[Tag]*Schema) []Tag {
	tags := make([]Tag, 0, len(m))
	for t := range m {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Register adds a box schema to DefaultRegistry.
func Register(tag Tag, s *Schema) {
	DefaultRegistry.Register(tag, s)
}

// RegisterSampleEntry adds a sample entry schema to DefaultRegistry.
func RegisterSampleEntry(format Tag, s *Schema) {
	DefaultRegistry.RegisterSampleEntry(format, s)
}

var containerSchema = &Schema{Shape: Container}

func builtinBoxes() map[Tag]*Schema {
	ftyp := &Schema{Fields: []FieldDesc{
		FourCC("major_brand"),
		U32("minor_version"),
		Array("compatible_brands", nil, FourCC("")).WithDefault([]Tag{}),
	}}

	boxes := map[Tag]*Schema{
		FTYP: ftyp,
		STYP: ftyp,

		MOOV: containerSchema,
		TRAK: containerSchema,
		EDTS: containerSchema,
		MDIA: containerSchema,
		MINF: containerSchema,
		DINF: containerSchema,
		STBL: containerSchema,
		MVEX: containerSchema,
		MOOF: containerSchema,
		TRAF: containerSchema,
		UDTA: containerSchema,
		META: {Shape: Container, Fields: FullBox()},
		STSD: {Shape: SampleDescription, Fields: FullBox()},

		MEHD: {Fields: FullBox(
			ByVersion(map[uint64][]FieldDesc{
				1: {U64("fragment_duration").WithDefault(0)},
			}, U32("fragment_duration").WithDefault(0)),
		)},
		TREX: {Fields: FullBox(
			U32("track_ID"),
			U32("default_sample_description_index").WithDefault(1),
			U32("default_sample_duration").WithDefault(0),
			U32("default_sample_size").WithDefault(0),
			U32("default_sample_flags").WithDefault(0),
		)},
		MVHD: {Fields: FullBox(
			timesByVersion(U32("timescale")),
			U32("rate").WithDefault(0x00010000), // 16.16
			U16("volume").WithDefault(0x0100),   // 8.8
			ZeroBytes("reserved", 10),
			FixedBytes("matrix", 36).WithDefault(unityMatrix),
			ZeroBytes("pre_defined", 24),
			U32("next_track_ID").WithDefault(0xffffffff),
		)},
		// flags: enabled, in movie.
		TKHD: {Fields: FullBoxFlags(3,
			timesByVersion(U32("track_ID"), U32("reserved1").WithDefault(0)),
			ZeroBytes("reserved2", 8),
			I16("layer").WithDefault(0),
			I16("alternate_group").WithDefault(0),
			U16("volume").WithDefault(0), // 8.8, 0x0100 for audio
			U16("reserved3").WithDefault(0),
			FixedBytes("matrix", 36).WithDefault(unityMatrix),
			U32("width").WithDefault(0), // 16.16
			U32("height").WithDefault(0),
		)},
		MDHD: {Fields: FullBox(
			timesByVersion(U32("timescale")),
			Language("language").WithDefault(LanguageUndetermined),
			U16("pre_defined").WithDefault(0),
		)},
		VMHD: {Fields: FullBoxFlags(1,
			U16("graphics_mode").WithDefault(0),
			U16("opcolor_red").WithDefault(0),
			U16("opcolor_green").WithDefault(0),
			U16("opcolor_blue").WithDefault(0),
		)},
		SMHD: {Fields: FullBox(
			I16("balance").WithDefault(0), // 8.8 fixed point
			U16("reserved").WithDefault(0),
		)},
		HDLR: {Fields: FullBox(
			U32("pre_defined").WithDefault(0),
			FourCC("handler_type"),
			ZeroBytes("reserved", 12),
			String("name").WithDefault(""),
		)},
		// iTunes items are not interpreted.
		ILST: {Fields: []FieldDesc{Rest("data").WithDefault([]byte{})}},

		NAME: nameSchema,
		TNAM: trackTextSchema,
		TITL: trackTextSchema,

		AVCC: {Fields: []FieldDesc{
			U8("version").WithDefault(1),
			U8("profile"),
			U8("compatibility"),
			U8("level"),
			Bits("nal_unit_length_field", 0x03, 0xfc).WithDefault(3),
			Array("sps", ptr(Bits("", 0x1f, 0xe0)), PascalBytes("", 2)).WithDefault([][]byte{}),
			Array("pps", ptr(U8("")), PascalBytes("", 2)).WithDefault([][]byte{}),
		}},
		PASP: {Fields: []FieldDesc{
			U32("h_spacing"),
			U32("v_spacing"),
		}},
		FTAB: {Fields: []FieldDesc{
			Array("fonts", ptr(U16("")), Record("",
				U16("font_id"),
				PascalString("font_name", 1),
			)).WithDefault([]Fields{}),
		}},
	}
	return boxes
}

// unityMatrix is the identity transform of mvhd and tkhd.
var unityMatrix = []byte{
	0x00, 0x01, 0x00, 0x00, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0x00, 0x01, 0x00, 0x00, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0x40, 0x00, 0x00, 0x00,
}

// timesByVersion is the time block of mvhd, tkhd and mdhd, 64-bit wide in
// version 1. mid goes between modification_time and duration.
func timesByVersion(mid ...FieldDesc) FieldDesc {
	v1 := append([]FieldDesc{U64("creation_time").WithDefault(0), U64("modification_time").WithDefault(0)}, mid...)
	v0 := append([]FieldDesc{U32("creation_time").WithDefault(0), U32("modification_time").WithDefault(0)}, mid...)
	return ByVersion(map[uint64][]FieldDesc{
		1: append(v1, U64("duration").WithDefault(0)),
	}, append(v0, U32("duration").WithDefault(0))...)
}

func ptr(f FieldDesc) *FieldDesc {
	return &f
}
