package mp4io

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	testSPS = []byte("\x67\x4d\x40\x29\xe8\x80\x28\x02\xdd\xff\x80\x0d\x80\x0a\x08\x00\x00\x1f\x48\x00\x05\xdc\x00\x78\xc1\x88\x90")
	testPPS = []byte("\x68\xeb\x8c\xb2")

	avc1Bytes = join(
		[]byte("\x00\x00\x00\x98avc1\x00\x00\x00\x00\x00\x00\x00\x01"),
		zeros(16),
		[]byte("\x05\x00\x02\xd0\x00\x48\x00\x00\x00\x48\x00\x00\x00\x00\x00\x00\x00\x01"),
		zeros(32),
		[]byte("\x00\x18\xff\xff"),
		[]byte("\x00\x00\x00\x32avcC\x01\x4d\x40\x29\xff\xe1\x00\x1b"), testSPS, []byte("\x01\x00\x04"), testPPS,
		[]byte("\x00\x00\x00\x10pasp\x00\x00\x00\x1b\x00\x00\x00\x14"),
	)

	tx3gData = join(
		[]byte("\x00\x00\x00\x00\x01\xff"),
		zeros(16),
		[]byte("\x00\x01\x00\x12\xff\xff\xff\xff"),
		[]byte("\x00\x00\x00\x12ftab\x00\x01\x00\x01\x05Serif"),
	)

	stsdBytes = join(
		[]byte("\x00\x00\x00\x50stsd\x00\x00\x00\x00\x00\x00\x00\x01"),
		[]byte("\x00\x00\x00\x40tx3g\x00\x00\x00\x00\x00\x00\x00\x01"),
		tx3gData,
	)
)

func TestParseAvc1Entry(t *testing.T) {
	t.Parallel()

	c := NewBytesReader(join(avc1Bytes, []byte("padding")))
	entry, err := ParseSampleEntry(c, Unbounded)
	require.NoError(t, err)
	require.Equal(t, int64(len(avc1Bytes)), c.Pos())
	require.Equal(t, int64(len(avc1Bytes)), entry.End)
	requireSizes(t, entry)

	require.Equal(t, AVC1, entry.Type)
	fs := entry.Fields
	require.Equal(t, uint64(1), fs.Uint("data_reference_index"))
	require.Equal(t, uint64(0), fs.Uint("version"))
	require.Equal(t, uint64(0), fs.Uint("revision"))
	require.Equal(t, zeros(4), fs.Bytes("vendor"))
	require.Equal(t, uint64(0), fs.Uint("temporal_quality"))
	require.Equal(t, uint64(0), fs.Uint("spatial_quality"))
	require.Equal(t, uint64(1280), fs.Uint("width"))
	require.Equal(t, uint64(720), fs.Uint("height"))
	require.Equal(t, uint64(72), fs.Uint("horizontal_resolution"))
	require.Equal(t, uint64(72), fs.Uint("vertical_resolution"))
	require.Equal(t, uint64(0), fs.Uint("data_size"))
	require.Equal(t, uint64(1), fs.Uint("frame_count"))
	require.Equal(t, zeros(32), fs.Bytes("compressor_name"))
	require.Equal(t, uint64(24), fs.Uint("depth"))
	require.Equal(t, int64(-1), fs.Int("color_table_id"))

	require.Len(t, entry.Children, 2)
	avcc := entry.Children[0]
	require.Equal(t, AVCC, avcc.Type)
	require.Equal(t, int64(86), avcc.Offset)
	require.Equal(t, NewFields(
		"version", uint64(1),
		"profile", uint64(77),
		"compatibility", uint64(64),
		"level", uint64(41),
		"nal_unit_length_field", uint64(3),
		"sps", [][]byte{testSPS},
		"pps", [][]byte{testPPS},
	), avcc.Fields)
	require.Equal(t, 4, NALUnitLength(avcc))

	pasp := entry.Children[1]
	require.Equal(t, PASP, pasp.Type)
	require.Equal(t, uint64(27), pasp.Fields.Uint("h_spacing"))
	require.Equal(t, uint64(20), pasp.Fields.Uint("v_spacing"))
	require.Equal(t, int64(len(avc1Bytes)), pasp.End)

	out, err := BuildSampleEntry(entry)
	require.NoError(t, err)
	require.Equal(t, avc1Bytes, out)
}

func TestBuildAvc1EntryDefaults(t *testing.T) {
	t.Parallel()

	entry := &Box{
		Type:   AVC1,
		Fields: NewFields("width", 1280, "height", 720),
		Children: []*Box{
			{Type: AVCC, Fields: NewFields(
				"profile", 77,
				"compatibility", 64,
				"level", 41,
				"sps", [][]byte{testSPS},
				"pps", [][]byte{testPPS},
			)},
			{Type: PASP, Fields: NewFields("h_spacing", 27, "v_spacing", 20)},
		},
	}
	out, err := BuildSampleEntry(entry)
	require.NoError(t, err)
	require.Equal(t, avc1Bytes, out)
}

func TestParseStsd(t *testing.T) {
	t.Parallel()

	c := NewBytesReader(join(stsdBytes, []byte("padding")))
	stsd, err := Parse(c, Unbounded)
	require.NoError(t, err)
	require.Equal(t, int64(len(stsdBytes)), stsd.End)
	require.Equal(t, int64(len(stsdBytes)), c.Pos())
	require.Equal(t, NewFields("version", uint64(0), "flags", uint64(0)), stsd.Fields)
	require.Len(t, stsd.Children, 1)

	tx3g := stsd.Children[0]
	require.Equal(t, TX3G, tx3g.Type)
	require.Equal(t, int64(16), tx3g.Offset)
	require.Equal(t, int64(80), tx3g.End)
	require.Equal(t, uint64(1), tx3g.Fields.Uint("data_reference_index"))
	require.Equal(t, uint64(0), tx3g.Fields.Uint("display_flags"))
	require.Equal(t, int64(1), tx3g.Fields.Int("horizontal_justification"))
	require.Equal(t, int64(-1), tx3g.Fields.Int("vertical_justification"))
	require.Equal(t, NewFields(
		"top", int64(0),
		"left", int64(0),
		"bottom", int64(0),
		"right", int64(0),
	), tx3g.Fields.Record("default_text_box"))

	style := tx3g.Fields.Record("default_style")
	require.Equal(t, uint64(1), style.Uint("font_id"))
	require.Equal(t, uint64(18), style.Uint("font_size"))
	require.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, style.Bytes("text_color_rgba"))

	require.Len(t, tx3g.Children, 1)
	ftab := tx3g.Children[0]
	require.Equal(t, FTAB, ftab.Type)
	fonts, _ := ftab.Fields.Get("fonts")
	require.Equal(t, []Fields{NewFields("font_id", uint64(1), "font_name", "Serif")}, fonts)

	out, err := Build(stsd)
	require.NoError(t, err)
	require.Equal(t, stsdBytes, out)
}

func TestBuildStsdDefaults(t *testing.T) {
	t.Parallel()

	stsd := &Box{Type: STSD, Children: []*Box{
		{Type: TX3G, Fields: NewFields(
			"horizontal_justification", 1,
			"vertical_justification", -1,
		), Children: []*Box{
			{Type: FTAB, Fields: NewFields("fonts", []Fields{NewFields("font_id", 1, "font_name", "Serif")})},
		}},
	}}
	out, err := Build(stsd)
	require.NoError(t, err)
	require.Equal(t, stsdBytes, out)
}

func TestGenericSampleEntry(t *testing.T) {
	t.Parallel()

	in := join(
		[]byte("\x00\x00\x00\x32stsd\x00\x00\x00\x00\x00\x00\x00\x02"),
		[]byte("\x00\x00\x00\x12ac-3\x00\x00\x00\x00\x00\x00\x00\x02\x0a\x0b"),
		[]byte("\x00\x00\x00\x10zzzz\x00\x00\x00\x00\x00\x00\x00\x01"),
	)
	stsd := parseBytes(t, in)
	require.Len(t, stsd.Children, 2)
	require.Equal(t, "ac-3", stsd.Children[0].Type.String())
	require.Equal(t, uint64(2), stsd.Children[0].Fields.Uint("data_reference_index"))
	require.Equal(t, []byte{0x0a, 0x0b}, stsd.Children[0].Fields.Bytes("data"))
	require.Empty(t, stsd.Children[1].Fields.Bytes("data"))
	require.Nil(t, stsd.Children[0].Children)

	out, err := Build(stsd)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestStsdEntryCountMismatch(t *testing.T) {
	t.Parallel()

	in := join(
		[]byte("\x00\x00\x00\x20stsd\x00\x00\x00\x00\x00\x00\x00\x02"),
		[]byte("\x00\x00\x00\x10zzzz\x00\x00\x00\x00\x00\x00\x00\x01"),
	)
	_, err := Parse(NewBytesReader(in), Unbounded)
	require.ErrorIs(t, err, ErrFormat)
	var te *TruncatedInputError
	require.ErrorAs(t, err, &te)
	require.Contains(t, err.Error(), "stsd:0")
}

func TestNALUnitLength(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0, NALUnitLength(nil))
	require.Equal(t, 0, NALUnitLength(&Box{Type: PASP}))
	require.Equal(t, 2, NALUnitLength(&Box{Type: AVCC, Fields: NewFields("nal_unit_length_field", uint64(1))}))
}
