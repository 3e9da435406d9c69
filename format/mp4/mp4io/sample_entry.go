package mp4io

// sampleEntry prefixes class specific fields with the layout shared by every stsd entry.
func sampleEntry(fs ...FieldDesc) []FieldDesc {
	return append([]FieldDesc{
		ZeroBytes("reserved", 6),
		U16("data_reference_index").WithDefault(1),
	}, fs...)
}

// visualSampleEntry is the video class. Resolutions are 16.16 fixed point;
// the integer part is the pixels-per-inch value.
var visualSampleEntry = &Schema{Shape: Container, Fields: sampleEntry(
	U16("version").WithDefault(0),
	U16("revision").WithDefault(0),
	ZeroBytes("vendor", 4),
	U32("temporal_quality").WithDefault(0),
	U32("spatial_quality").WithDefault(0),
	U16("width"),
	U16("height"),
	U16("horizontal_resolution").WithDefault(72),
	U16("horizontal_resolution_fraction").WithDefault(0),
	U16("vertical_resolution").WithDefault(72),
	U16("vertical_resolution_fraction").WithDefault(0),
	U32("data_size").WithDefault(0),
	U16("frame_count").WithDefault(1),
	ZeroBytes("compressor_name", 32),
	U16("depth").WithDefault(24),
	I16("color_table_id").WithDefault(-1),
)}

// audioSampleEntry is the sound class. sample_rate is 16.16 fixed point.
// QuickTime version 1 and 2 entries carry extra fields before the children.
var audioSampleEntry = &Schema{Shape: Container, Fields: sampleEntry(
	U16("version").WithDefault(0),
	U16("revision").WithDefault(0),
	ZeroBytes("vendor", 4),
	U16("channel_count").WithDefault(2),
	U16("sample_size").WithDefault(16),
	I16("compression_id").WithDefault(0),
	U16("packet_size").WithDefault(0),
	U16("sample_rate"),
	U16("sample_rate_fraction").WithDefault(0),
	ByVersion(map[uint64][]FieldDesc{
		1: {
			U32("samples_per_packet").WithDefault(0),
			U32("bytes_per_packet").WithDefault(0),
			U32("bytes_per_frame").WithDefault(0),
			U32("bytes_per_sample").WithDefault(0),
		},
		2: {ZeroBytes("sound_description_v2", 36)},
	}),
)}

// textSampleEntry is the 3GPP timed text class.
var textSampleEntry = &Schema{Shape: Container, Fields: sampleEntry(
	U32("display_flags").WithDefault(0),
	I8("horizontal_justification").WithDefault(0),
	I8("vertical_justification").WithDefault(0),
	ZeroBytes("background_color_rgba", 4),
	Record("default_text_box",
		I16("top").WithDefault(0),
		I16("left").WithDefault(0),
		I16("bottom").WithDefault(0),
		I16("right").WithDefault(0),
	),
	Record("default_style",
		U16("start_char").WithDefault(0),
		U16("end_char").WithDefault(0),
		U16("font_id").WithDefault(1),
		U8("face_style_flags").WithDefault(0),
		U8("font_size").WithDefault(18),
		FixedBytes("text_color_rgba", 4).WithDefault([]byte{0xff, 0xff, 0xff, 0xff}),
	),
)}

// genericSampleEntry keeps everything after data_reference_index opaque.
var genericSampleEntry = &Schema{Fields: sampleEntry(
	Rest("data").WithDefault([]byte{}),
)}

func builtinSampleEntries() map[Tag]*Schema {
	return map[Tag]*Schema{
		AVC1: visualSampleEntry,
		AVC3: visualSampleEntry,
		HEV1: visualSampleEntry,
		HVC1: visualSampleEntry,
		MP4A: audioSampleEntry,
		TX3G: textSampleEntry,
	}
}

// ParseSampleEntry reads one stsd entry outside of an stsd box. The reader
// is left at the entry's declared end.
func ParseSampleEntry(c *Reader, limit int64) (*Box, error) {
	return DefaultRegistry.ParseSampleEntry(c, limit)
}

func (r *Registry) ParseSampleEntry(c *Reader, limit int64) (*Box, error) {
	return r.parseBox(c, limit, r.LookupSampleEntry)
}

func BuildSampleEntry(entry *Box) ([]byte, error) {
	return DefaultRegistry.BuildSampleEntry(entry)
}

func (r *Registry) BuildSampleEntry(entry *Box) ([]byte, error) {
	return r.buildBox(entry, r.LookupSampleEntry)
}

// NALUnitLength returns the size in bytes of the NAL unit length prefix declared by an avcC box.
func NALUnitLength(avcc *Box) int {
	if avcc == nil || avcc.Type != AVCC {
		return 0
	}
	return int(avcc.Fields.Uint("nal_unit_length_field")) + 1
}
