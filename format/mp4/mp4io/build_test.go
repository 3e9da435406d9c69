package mp4io

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildFtyp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		brands any
	}{
		{"tags", []Tag{StringToTag("iso5"), StringToTag("avc1")}},
		{"strings", []string{"iso5", "avc1"}},
		{"byte_slices", [][]byte{[]byte("iso5"), []byte("avc1")}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := Build(&Box{Type: FTYP, Fields: NewFields(
				"major_brand", "iso5",
				"minor_version", 1,
				"compatible_brands", tt.brands,
			)})
			require.NoError(t, err)
			require.Equal(t, ftypBytes, out)
		})
	}
}

func TestBuildMdhd(t *testing.T) {
	t.Parallel()

	fields := func(version int) Fields {
		fs := NewFields(
			"creation_time", 0,
			"modification_time", 0,
			"timescale", 1000000,
			"duration", 0,
			"language", "und",
		)
		if version > 0 {
			fs.Set("version", version)
		}
		return fs
	}

	out, err := Build(&Box{Type: MDHD, Fields: fields(0)})
	require.NoError(t, err)
	require.Len(t, out, 32)
	require.Equal(t, mdhdV0Bytes, out)

	out, err = Build(&Box{Type: MDHD, Fields: fields(1)})
	require.NoError(t, err)
	require.Len(t, out, 44)
	require.Equal(t, join(
		[]byte("\x00\x00\x00,mdhd\x01\x00\x00\x00"),
		zeros(16),
		[]byte("\x00\x0fB@"),
		zeros(8),
		[]byte("U\xc4\x00\x00"),
	), out)
}

func TestBuildMoov(t *testing.T) {
	t.Parallel()

	moov := &Box{Type: MOOV, Children: []*Box{
		{Type: MVEX, Children: []*Box{
			{Type: MEHD, Fields: NewFields("version", 0, "flags", 0, "fragment_duration", 0)},
			{Type: TREX, Fields: NewFields("track_ID", 1)},
			{Type: TREX, Fields: NewFields("track_ID", 2)},
		}},
	}}

	out, err := Build(moov)
	require.NoError(t, err)
	require.Len(t, out, 96)
	require.Equal(t, join(
		[]byte("\x00\x00\x00\x60moov"),
		[]byte("\x00\x00\x00\x58mvex"),
		[]byte("\x00\x00\x00\x10mehd\x00\x00\x00\x00\x00\x00\x00\x00"),
		[]byte("\x00\x00\x00\x20trex\x00\x00\x00\x00\x00\x00\x00\x01\x00\x00\x00\x01\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"),
		[]byte("\x00\x00\x00\x20trex\x00\x00\x00\x00\x00\x00\x00\x02\x00\x00\x00\x01\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"),
	), out)

	parsed := parseBytes(t, out)
	requireSizes(t, parsed)
	require.Len(t, parsed.FindAll(TREX), 2)
	require.Equal(t, uint64(2), parsed.FindAll(TREX)[1].Fields.Uint("track_ID"))
}

func TestBuildSmhd(t *testing.T) {
	t.Parallel()

	out, err := Build(&Box{Type: SMHD, Fields: NewFields("balance", 0)})
	require.NoError(t, err)
	require.Equal(t, []byte("\x00\x00\x00\x10smhd\x00\x00\x00\x00\x00\x00\x00\x00"), out)

	out, err = Build(&Box{Type: SMHD, Fields: NewFields("balance", -256)})
	require.NoError(t, err)
	require.Equal(t, []byte("\x00\x00\x00\x10smhd\x00\x00\x00\x00\xff\x00\x00\x00"), out)
	require.Equal(t, int64(-256), parseBytes(t, out).Fields.Int("balance"))
}

func TestBuildIgnoresStaleSize(t *testing.T) {
	t.Parallel()

	box := parseBytes(t, ftypBytes)
	box.Fields.Set("compatible_brands", []Tag{StringToTag("iso5")})
	box.End = 1000

	out, err := Build(box)
	require.NoError(t, err)
	require.Equal(t, []byte("\x00\x00\x00\x14ftypiso5\x00\x00\x00\x01iso5"), out)
}

func TestBuildPrecedence(t *testing.T) {
	t.Parallel()

	t.Run("raw_wins", func(t *testing.T) {
		t.Parallel()
		out, err := Build(&Box{Type: FTYP, Raw: []byte("xy"), Fields: NewFields("minor_version", 1)})
		require.NoError(t, err)
		require.Equal(t, []byte("\x00\x00\x00\x0aftypxy"), out)
	})

	t.Run("unknown_container", func(t *testing.T) {
		t.Parallel()
		out, err := Build(&Box{Type: StringToTag("wrap"), Children: []*Box{{Type: FREE}}})
		require.NoError(t, err)
		require.Equal(t, []byte("\x00\x00\x00\x10wrap\x00\x00\x00\x08free"), out)
	})

	t.Run("unknown_with_fields", func(t *testing.T) {
		t.Parallel()
		_, err := Build(&Box{Type: StringToTag("wrap"), Fields: NewFields("a", 1)})
		require.ErrorIs(t, err, ErrFormat)
	})

	t.Run("structured_trailing", func(t *testing.T) {
		t.Parallel()
		in := []byte("\x00\x00\x00\x12paspabcdefgh\x01\x02")
		box := parseBytes(t, in)
		require.Equal(t, []byte{1, 2}, box.Fields.Bytes(FieldTrailing))
		out, err := Build(box)
		require.NoError(t, err)
		require.Equal(t, in, out)
	})
}

func TestBuildErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		box   *Box
		field string
	}{
		{"missing_required", &Box{Type: MDHD, Fields: NewFields("language", "und")}, "timescale"},
		{"u32_overflow", &Box{Type: TREX, Fields: NewFields("track_ID", uint64(1)<<32)}, "track_ID"},
		{"negative_unsigned", &Box{Type: TREX, Fields: NewFields("track_ID", -1)}, "track_ID"},
		{"i16_overflow", &Box{Type: SMHD, Fields: NewFields("balance", 40000)}, "balance"},
		{"not_an_integer", &Box{Type: TREX, Fields: NewFields("track_ID", "one")}, "track_ID"},
		{"upper_case_language", &Box{Type: MDHD, Fields: NewFields("timescale", 1, "language", "ENG")}, "language"},
		{"short_language", &Box{Type: MDHD, Fields: NewFields("timescale", 1, "language", "en")}, "language"},
		{"bad_tag", &Box{Type: FTYP, Fields: NewFields("major_brand", "iso", "minor_version", 0)}, "major_brand"},
		{"mask_overflow", &Box{Type: AVCC, Fields: NewFields("profile", 1, "compatibility", 0, "level", 1, "nal_unit_length_field", 4)}, "nal_unit_length_field"},
		{"fixed_bytes_length", &Box{Type: HDLR, Fields: NewFields("handler_type", "vide", "reserved", []byte{0})}, "reserved"},
		{"array_element", &Box{Type: FTYP, Fields: NewFields("major_brand", "iso5", "minor_version", 0, "compatible_brands", []string{"iso5", "x"})}, "compatible_brands[1]"},
		{"nested_child", &Box{Type: MOOV, Children: []*Box{{Type: MVEX, Children: []*Box{{Type: TREX}}}}}, "track_ID"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Build(tt.box)
			require.ErrorIs(t, err, ErrFormat)
			var fe *FieldEncodingError
			require.ErrorAs(t, err, &fe)
			require.Equal(t, tt.field, fe.Field)
		})
	}

	t.Run("nil_box", func(t *testing.T) {
		t.Parallel()
		_, err := Build(nil)
		require.ErrorIs(t, err, ErrFormat)
	})
}

func TestWrite(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := Write(&buf, parseBytes(t, ftypBytes))
	require.NoError(t, err)
	require.Equal(t, int64(24), n)
	require.Equal(t, ftypBytes, buf.Bytes())
}

// Not parallel: lowers the 32-bit header limit for the whole package.
func TestBuildLargeSizeHeader(t *testing.T) {
	saved := maxCompactSize
	maxCompactSize = 20
	t.Cleanup(func() { maxCompactSize = saved })

	ftyp, err := Build(&Box{Type: FTYP, Fields: NewFields("major_brand", "isom", "minor_version", 0, "compatible_brands", []string{"isom"})})
	require.NoError(t, err)
	require.Equal(t, []byte("\x00\x00\x00\x14ftyp"), ftyp[:8])

	free := &Box{Type: FREE, Raw: []byte("0123456789abcdef")}
	moov := &Box{Type: MOOV, Children: []*Box{free}}
	out, err := Build(moov)
	require.NoError(t, err)
	require.Equal(t, join(
		[]byte("\x00\x00\x00\x01moov\x00\x00\x00\x00\x00\x00\x00\x30"),
		[]byte("\x00\x00\x00\x01free\x00\x00\x00\x00\x00\x00\x00\x20"),
		free.Raw,
	), out)

	parsed := parseBytes(t, out)
	require.Equal(t, int64(48), parsed.End)
	require.Len(t, parsed.Children, 1)
	require.Equal(t, int64(16), parsed.Children[0].Offset)
	require.Equal(t, int64(48), parsed.Children[0].End)
	require.Equal(t, free.Raw, parsed.Children[0].Raw)

	again, err := Build(parsed)
	require.NoError(t, err)
	require.Equal(t, out, again)
}
