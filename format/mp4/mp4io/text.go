package mp4io

import (
	"github.com/ugparu/mp4box/utils/bits/pio"
)

// Text values run to the end of the box; NUL bytes are part of the value.
var (
	nameSchema      = &Schema{Fields: []FieldDesc{String("value").WithDefault("")}}
	trackTextSchema = &Schema{Fields: FullBox(
		Language("language").WithDefault(LanguageUndetermined),
		String("value").WithDefault(""),
	)}
)

// ParseTextBox reads the headerless form of a text box: a 4 byte tag
// followed by a body that fills the rest of limit. With an Unbounded limit
// the body runs to the end of c, which must be able to report its length.
func ParseTextBox(c *Reader, limit int64) (*Box, error) {
	return DefaultRegistry.ParseTextBox(c, limit)
}

func (r *Registry) ParseTextBox(c *Reader, limit int64) (*Box, error) {
	start := c.Pos()
	if limit < 0 {
		if limit = c.Remaining(); limit < 0 {
			return nil, &UnsupportedSizeError{Offset: start,
				Reason: "headerless text box needs a bounded region"}
		}
	}
	if limit < 4 {
		return nil, &TruncatedInputError{What: "text box tag", Offset: start, Need: 4, Have: limit}
	}
	b, err := c.readWhat(limit, "text box")
	if err != nil {
		return nil, err
	}
	box := &Box{Offset: start, End: start + limit, Type: Tag(pio.U32BE(b))}
	if err = r.decodeBody(box, b[4:], start+4, r.Lookup(box.Type)); err != nil {
		return nil, parseErr(box.Type.String(), start, err)
	}
	return box, nil
}

// BuildTextBox emits the headerless form read by ParseTextBox.
func BuildTextBox(box *Box) ([]byte, error) {
	return DefaultRegistry.BuildTextBox(box)
}

func (r *Registry) BuildTextBox(box *Box) ([]byte, error) {
	body, err := r.buildBody(box, r.Lookup(box.Type))
	if err != nil {
		return nil, err
	}
	b := make([]byte, 4, 4+len(body))
	pio.PutU32BE(b, uint32(box.Type))
	return append(b, body...), nil
}
