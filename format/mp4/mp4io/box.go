package mp4io

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Box is one node of a parsed or to-be-built box tree.
//
// Offset and End are absolute stream positions of the header start and of
// the first byte after the box. Children holds nested boxes of containers,
// the entries of stsd and the extension boxes of a sample entry. Raw holds
// the body of a box whose tag has no schema. Padding keeps the sub-header
// tail of a container that did not form another child.
type Box struct {
	Offset   int64  `json:"offset"`
	End      int64  `json:"end"`
	Type     Tag    `json:"type"`
	Fields   Fields `json:"fields,omitempty"`
	Children []*Box `json:"children,omitempty"`
	Raw      []byte `json:"raw,omitempty"`
	Padding  []byte `json:"padding,omitempty"`
}

func (b *Box) Size() int64 {
	return b.End - b.Offset
}

func (b *Box) String() string {
	return fmt.Sprintf("%s offset=%d size=%d", b.Type, b.Offset, b.Size())
}

// Find returns the first box tagged tag in depth-first order, b included.
func (b *Box) Find(tag Tag) *Box {
	if b.Type == tag {
		return b
	}
	for _, child := range b.Children {
		if r := child.Find(tag); r != nil {
			return r
		}
	}
	return nil
}

// FindAll returns every box tagged tag in depth-first order, b included.
func (b *Box) FindAll(tag Tag) (r []*Box) {
	if b.Type == tag {
		r = append(r, b)
	}
	for _, child := range b.Children {
		r = append(r, child.FindAll(tag)...)
	}
	return
}

// Child returns the first direct child tagged tag.
func (b *Box) Child(tag Tag) *Box {
	for _, child := range b.Children {
		if child.Type == tag {
			return child
		}
	}
	return nil
}

// FindIn searches a top-level box sequence.
func FindIn(boxes []*Box, tag Tag) *Box {
	for _, b := range boxes {
		if r := b.Find(tag); r != nil {
			return r
		}
	}
	return nil
}

func printBox(out io.Writer, b *Box, depth int) {
	fmt.Fprintf(out, "%s%s", strings.Repeat("  ", depth), b)
	for _, f := range b.Fields {
		fmt.Fprintf(out, " %s=%s", f.Name, formatValue(f.Value))
	}
	if b.Raw != nil {
		fmt.Fprintf(out, " raw=%d bytes", len(b.Raw))
	}
	if len(b.Padding) > 0 {
		fmt.Fprintf(out, " padding=%d bytes", len(b.Padding))
	}
	fmt.Fprintln(out)
	for _, child := range b.Children {
		printBox(out, child, depth+1)
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case []byte:
		if len(x) > 16 {
			return fmt.Sprintf("%x...(%d bytes)", x[:16], len(x))
		}
		return fmt.Sprintf("%x", x)
	case string:
		return fmt.Sprintf("%q", x)
	case Tag:
		return fmt.Sprintf("%q", x.String())
	}
	return fmt.Sprintf("%v", v)
}

// Fprint writes an indented dump of the tree rooted at b.
func Fprint(out io.Writer, b *Box) {
	printBox(out, b, 0)
}

func Print(b *Box) {
	Fprint(os.Stdout, b)
}
